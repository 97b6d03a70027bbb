// Package transcript reshapes the transcription service's raw recognition
// payload into the canonical two-speaker conversation document.
package transcript

import (
	"encoding/json"
	"fmt"
)

// Turn is one utterance in the shaped conversation.
type Turn struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Conversation is the shaped output document.
type Conversation struct {
	Conversation []Turn `json:"conversation"`
}

// MalformedInputError reports a raw payload missing the expected fields.
// Fatal; surfaced verbatim to the operator.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "transcript: malformed input: " + e.Reason
}

// Raw recognition payload shape. Only the fields the shaper consumes are
// declared; everything else in the provider payload is ignored.
type rawPayload struct {
	RecognizedPhrases *[]rawPhrase `json:"recognizedPhrases"`
}

type rawPhrase struct {
	Speaker int             `json:"speaker"`
	Offset  string          `json:"offset"`
	NBest   []rawHypothesis `json:"nBest"`
}

type rawHypothesis struct {
	Display string `json:"display"`
}

// Shape converts raw recognition bytes into a Conversation. Phrases with
// speaker 1 or 2 become turns in original order; any other speaker value
// marks non-dialogue audio and is dropped. The top nBest hypothesis is
// authoritative and the offset passes through unmodified.
func Shape(data []byte) (Conversation, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return Conversation{}, &MalformedInputError{Reason: err.Error()}
	}
	if raw.RecognizedPhrases == nil {
		return Conversation{}, &MalformedInputError{Reason: "recognizedPhrases field is missing"}
	}

	turns := make([]Turn, 0, len(*raw.RecognizedPhrases))
	for i, phrase := range *raw.RecognizedPhrases {
		if phrase.Speaker != 1 && phrase.Speaker != 2 {
			continue
		}
		if len(phrase.NBest) == 0 {
			return Conversation{}, &MalformedInputError{
				Reason: fmt.Sprintf("phrase %d has no nBest hypotheses", i),
			}
		}
		turns = append(turns, Turn{
			Speaker:   fmt.Sprintf("speaker_%d", phrase.Speaker),
			Text:      phrase.NBest[0].Display,
			Timestamp: phrase.Offset,
		})
	}

	return Conversation{Conversation: turns}, nil
}
