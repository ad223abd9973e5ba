package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/civicfix/civicfix-backend/internal/config"
)

var (
	// ErrMissingAPIKey is a configuration failure: no credential means no
	// moderation call is even attempted.
	ErrMissingAPIKey = errors.New("moderation API key is not configured")

	// ErrUnavailable means the safety of the content could not be
	// determined. Callers must fail closed: this is not a rejection, but
	// content must not be published on it either.
	ErrUnavailable = errors.New("moderation service unavailable")
)

// Verdict is the outcome of one successful classification call.
type Verdict struct {
	Allowed  bool
	Flagged  bool
	Category string
}

const maxAttempts = 3

// Client calls the OpenAI moderations endpoint with a bounded retry
// policy. A single deadline covers the whole retry sequence, including
// the waits between attempts.
type Client struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
	timeout    time.Duration
	backoff    []time.Duration
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		// No per-request timeout on the client itself; the overall
		// deadline in Check bounds every attempt.
		httpClient: &http.Client{},
		apiKey:     cfg.ModerationAPIKey,
		apiURL:     cfg.ModerationAPIURL,
		model:      cfg.ModerationModel,
		timeout:    cfg.ModerationTimeout,
		backoff:    []time.Duration{1 * time.Second, 3 * time.Second, 8 * time.Second},
	}
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories json.RawMessage `json:"categories"`
	} `json:"results"`
}

// Check classifies text. Empty or whitespace-only text is trivially
// allowed without a network call. Transient failures (429/5xx, network
// errors) are retried on the backoff schedule, honoring an integer
// Retry-After header when the server sends one.
func (c *Client) Check(ctx context.Context, text string) (Verdict, error) {
	if strings.TrimSpace(text) == "" {
		return Verdict{Allowed: true}, nil
	}
	if c.apiKey == "" {
		return Verdict{}, ErrMissingAPIKey
	}

	body, err := json.Marshal(moderationRequest{Model: c.model, Input: text})
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		slog.Info("moderation attempt", "component", "moderation", "attempt", attempt+1)

		result, status, err := c.doAttempt(ctx, body)
		if err == nil && status == 0 {
			return result.Verdict, nil
		}

		if err != nil {
			// A malformed success body is already wrapped as
			// ErrUnavailable and is terminal.
			if errors.Is(err, ErrUnavailable) {
				return Verdict{}, err
			}
			// Network-level failure. Terminal if the overall deadline
			// is gone, otherwise treated like a transient status.
			if ctx.Err() != nil {
				return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			}
			slog.Warn("moderation request failed", "component", "moderation", "attempt", attempt+1, "error", err)
			status = http.StatusServiceUnavailable
		}

		if !retryable(status) {
			return Verdict{}, fmt.Errorf("%w: status %d", ErrUnavailable, status)
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := c.backoff[attempt]
		if result.retryAfter != nil {
			delay = *result.retryAfter
		}
		slog.Warn("moderation retrying", "component", "moderation", "status", status, "delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
	}

	return Verdict{}, fmt.Errorf("%w: retries exhausted", ErrUnavailable)
}

// attemptVerdict carries either a classification or the server-specified
// retry delay from a failed attempt.
type attemptVerdict struct {
	Verdict
	retryAfter *time.Duration
}

// doAttempt performs one HTTP round trip. A zero status with nil error
// means verdict is valid; a non-zero status means the attempt failed
// with that status.
func (c *Client) doAttempt(ctx context.Context, body []byte) (attemptVerdict, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return attemptVerdict{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptVerdict{}, 0, err
	}
	defer resp.Body.Close()

	slog.Info("moderation response", "component", "moderation", "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return attemptVerdict{retryAfter: retryAfterDelay(resp)}, resp.StatusCode, nil
	}

	var decoded moderationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil || len(decoded.Results) == 0 {
		// A malformed success body is terminal, not retryable.
		return attemptVerdict{}, 0, fmt.Errorf("%w: malformed response", ErrUnavailable)
	}

	r0 := decoded.Results[0]
	if !r0.Flagged {
		return attemptVerdict{Verdict: Verdict{Allowed: true}}, 0, nil
	}
	return attemptVerdict{Verdict: Verdict{
		Flagged:  true,
		Category: firstFlaggedCategory(r0.Categories),
	}}, 0, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// retryAfterDelay reads an integer Retry-After header (seconds form);
// the date form is ignored.
func retryAfterDelay(resp *http.Response) *time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return nil
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return nil
	}
	d := time.Duration(seconds) * time.Second
	return &d
}

// firstFlaggedCategory walks the categories object in document order and
// returns the first member whose value is true. Decoding into a map
// would lose the order and make the reported category nondeterministic.
func firstFlaggedCategory(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ""
		}
		key, ok := keyTok.(string)
		if !ok {
			return ""
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return ""
		}
		if b, ok := val.(bool); ok && b {
			return key
		}
	}
	return ""
}
