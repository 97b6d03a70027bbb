// Package transcribe talks to the remote batch transcription service.
// The service is a black box: submit a content URL, get back a job
// handle, and eventually a result manifest appears in the output
// container.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client submits transcription jobs against the remote service.
type Client interface {
	// Submit starts transcription of the audio at contentURL and returns
	// the remote job handle.
	Submit(ctx context.Context, contentURL string) (string, error)
}

// RESTClient implements Client against the service's batch REST API.
type RESTClient struct {
	endpoint   string
	apiKey     string
	locale     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewRESTClient creates a REST transcription client.
func NewRESTClient(endpoint, apiKey, locale string, log zerolog.Logger) *RESTClient {
	return &RESTClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		locale:     locale,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		log:        log,
	}
}

type submitRequest struct {
	ContentURLs []string         `json:"contentUrls"`
	DisplayName string           `json:"displayName"`
	Locale      string           `json:"locale"`
	Properties  submitProperties `json:"properties"`
}

type submitProperties struct {
	DiarizationEnabled  bool `json:"diarizationEnabled"`
	WordLevelTimestamps bool `json:"wordLevelTimestampsEnabled"`
}

type submitResponse struct {
	Self string `json:"self"`
}

// Submit starts a diarized batch transcription of the given content URL.
func (c *RESTClient) Submit(ctx context.Context, contentURL string) (string, error) {
	reqBody := submitRequest{
		ContentURLs: []string{contentURL},
		DisplayName: "callscribe batch transcription",
		Locale:      c.locale,
		Properties: submitProperties{
			DiarizationEnabled:  true,
			WordLevelTimestamps: false,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("transcribe: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("transcribe: create request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcribe: read response body: %w", err)
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Str("body_preview", preview(body)).
		Msg("transcription service response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("transcribe: service returned status %d: %s", resp.StatusCode, body)
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("transcribe: parse response: %w", err)
	}
	if sr.Self == "" {
		return "", fmt.Errorf("transcribe: response has no job location: %s", preview(body))
	}

	// The job handle is the last path segment of the returned location.
	remoteID := sr.Self
	if i := strings.LastIndex(remoteID, "/"); i >= 0 {
		remoteID = remoteID[i+1:]
	}
	return remoteID, nil
}

func preview(body []byte) string {
	const max = 500
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
