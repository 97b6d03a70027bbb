package transcript

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestShapeSpeakerFiltering(t *testing.T) {
	payload := []byte(`{
		"recognizedPhrases": [
			{"speaker": 1, "offset": "PT0S", "nBest": [{"display": "Hello, pharmacy."}]},
			{"speaker": 3, "offset": "PT2S", "nBest": [{"display": "(hold music)"}]},
			{"speaker": 2, "offset": "PT4.2S", "nBest": [{"display": "Hi, I need a refill."}]},
			{"speaker": 0, "offset": "PT6S", "nBest": [{"display": "(silence)"}]},
			{"speaker": 1, "offset": "PT8S", "nBest": [{"display": "Sure, which prescription?"}]}
		]
	}`)

	conv, err := Shape(payload)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}

	if len(conv.Conversation) != 3 {
		t.Fatalf("got %d turns, want 3 (speakers 1 and 2 only)", len(conv.Conversation))
	}

	wantSpeakers := []string{"speaker_1", "speaker_2", "speaker_1"}
	wantStamps := []string{"PT0S", "PT4.2S", "PT8S"}
	for i, turn := range conv.Conversation {
		if turn.Speaker != wantSpeakers[i] {
			t.Errorf("turn %d speaker = %s, want %s", i, turn.Speaker, wantSpeakers[i])
		}
		if turn.Timestamp != wantStamps[i] {
			t.Errorf("turn %d timestamp = %s, want %s", i, turn.Timestamp, wantStamps[i])
		}
	}
}

func TestShapeExactDocument(t *testing.T) {
	payload := []byte(`{"recognizedPhrases":[` +
		`{"speaker":1,"offset":"PT0S","nBest":[{"display":"hi"}]},` +
		`{"speaker":3,"offset":"PT1S","nBest":[{"display":"noise"}]}]}`)

	conv, err := Shape(payload)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}

	got, err := json.Marshal(conv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"conversation":[{"speaker":"speaker_1","text":"hi","timestamp":"PT0S"}]}`
	if string(got) != want {
		t.Errorf("document = %s, want %s", got, want)
	}
}

func TestShapeTopHypothesisWins(t *testing.T) {
	payload := []byte(`{"recognizedPhrases":[{"speaker":2,"offset":"PT0S",` +
		`"nBest":[{"display":"best guess"},{"display":"second guess"}]}]}`)

	conv, err := Shape(payload)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	if conv.Conversation[0].Text != "best guess" {
		t.Errorf("text = %q, want top hypothesis", conv.Conversation[0].Text)
	}
}

func TestShapeEmptyPhraseList(t *testing.T) {
	conv, err := Shape([]byte(`{"recognizedPhrases":[]}`))
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	if len(conv.Conversation) != 0 {
		t.Errorf("got %d turns, want 0", len(conv.Conversation))
	}
}

func TestShapeMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "<xml/>"},
		{"missing recognizedPhrases", `{"source":"x.wav"}`},
		{"dialogue phrase without nBest", `{"recognizedPhrases":[{"speaker":1,"offset":"PT0S","nBest":[]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Shape([]byte(tt.payload))
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("err = %v, want *MalformedInputError", err)
			}
		})
	}
}

func TestShapeDeterministic(t *testing.T) {
	payload := []byte(`{"recognizedPhrases":[` +
		`{"speaker":1,"offset":"PT0S","nBest":[{"display":"a"}]},` +
		`{"speaker":2,"offset":"PT1S","nBest":[{"display":"b"}]}]}`)

	first, err := Shape(payload)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}
	second, err := Shape(payload)
	if err != nil {
		t.Fatalf("shape: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("shaping is not deterministic")
	}
}

func TestOffsetSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"PT1M30.5S", 90.5},
		{"PT45S", 45.0},
		{"PT0S", 0},
		{"PT2H", 7200},
		{"PT1H2M3S", 3723},
		{"PT0.08S", 0.08},
	}

	for _, tt := range tests {
		got, err := OffsetSeconds(tt.in)
		if err != nil {
			t.Errorf("OffsetSeconds(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("OffsetSeconds(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOffsetSecondsRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "90.5", "PT", "PT5X", "PT12", "1M30S"} {
		if _, err := OffsetSeconds(in); err == nil {
			t.Errorf("OffsetSeconds(%q): expected error", in)
		}
	}
}
