package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrUnavailable         = errors.New("transcript not available for this video")
	ErrTranscriptsDisabled = fmt.Errorf("%w: transcripts are disabled", ErrUnavailable)
	ErrNoTranscriptFound   = fmt.Errorf("%w: no transcript in the requested languages", ErrUnavailable)
)

// DefaultLanguages is the preference order sent when none is configured.
var DefaultLanguages = []string{"en-US", "en"}

type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Segments returns the transcript fragments for a video in service order.
func (c *Client) Segments(ctx context.Context, videoID string, languages []string) ([]Segment, error) {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	endpoint := fmt.Sprintf("%s/v1/transcripts/%s?languages=%s",
		c.baseURL, url.PathEscape(videoID), url.QueryEscape(strings.Join(languages, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp)
	}

	var result struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcript response: %w", err)
	}
	if len(result.Segments) == 0 {
		return nil, ErrNoTranscriptFound
	}
	return result.Segments, nil
}

// Fetch returns the whole transcript as one space-joined string.
func (c *Client) Fetch(ctx context.Context, videoID string, languages []string) (string, error) {
	segments, err := c.Segments(ctx, videoID, languages)
	if err != nil {
		slog.WarnContext(ctx, "transcript fetch failed", "video_id", videoID, "error", err)
		return "", err
	}

	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	slog.DebugContext(ctx, "transcript fetched", "video_id", videoID, "segments", len(segments))
	return strings.Join(parts, " "), nil
}

func classify(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	switch payload.Error.Code {
	case "TRANSCRIPTS_DISABLED":
		return ErrTranscriptsDisabled
	case "NO_TRANSCRIPT_FOUND":
		return ErrNoTranscriptFound
	}

	switch resp.StatusCode {
	case http.StatusForbidden:
		return ErrTranscriptsDisabled
	case http.StatusNotFound:
		return ErrNoTranscriptFound
	}
	return fmt.Errorf("transcript service error: %d", resp.StatusCode)
}
