package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string) *Client {
	return &Client{
		httpClient: &http.Client{},
		apiKey:     "test-key",
		apiURL:     url,
		model:      "omni-moderation-latest",
		timeout:    5 * time.Second,
		backoff:    []time.Duration{5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond},
	}
}

func TestCheckEmptyTextAllowedWithoutCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for _, text := range []string{"", "   ", "\n\t"} {
		verdict, err := c.Check(context.Background(), text)
		if err != nil {
			t.Fatalf("Check(%q) error: %v", text, err)
		}
		if !verdict.Allowed {
			t.Fatalf("Check(%q): expected allowed", text)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("expected no network calls, got %d", n)
	}
}

func TestCheckMissingAPIKey(t *testing.T) {
	c := testClient("http://unused.invalid")
	c.apiKey = ""

	_, err := c.Check(context.Background(), "broken streetlight")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCheckAllowedAndRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req moderationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "omni-moderation-latest" || req.Input != "great sidewalk" {
			t.Errorf("unexpected request body: %+v", req)
		}
		w.Write([]byte(`{"results":[{"flagged":false,"categories":{}}]}`))
	}))
	defer srv.Close()

	verdict, err := testClient(srv.URL).Check(context.Background(), "great sidewalk")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !verdict.Allowed || verdict.Flagged {
		t.Fatalf("expected allowed verdict, got %+v", verdict)
	}
}

func TestCheckFlaggedReturnsFirstCategoryInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"flagged":true,"categories":{"sexual":false,"harassment":true,"violence":true}}]}`))
	}))
	defer srv.Close()

	verdict, err := testClient(srv.URL).Check(context.Background(), "bad text")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if verdict.Allowed {
		t.Fatal("expected verdict not allowed")
	}
	if verdict.Category != "harassment" {
		t.Fatalf("expected first flagged category %q, got %q", "harassment", verdict.Category)
	}
}

func TestCheckRetryBoundOnPermanent429(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Check(context.Background(), "pothole on 5th")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", n)
	}
}

func TestCheckRetriesTransient5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results":[{"flagged":false,"categories":{}}]}`))
	}))
	defer srv.Close()

	verdict, err := testClient(srv.URL).Check(context.Background(), "cracked pavement")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !verdict.Allowed {
		t.Fatal("expected allowed verdict after retries")
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
}

func TestCheckHonorsRetryAfterHeader(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results":[{"flagged":false,"categories":{}}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	// With the schedule alone the first retry would wait 2 seconds; the
	// Retry-After of 0 must replace it.
	c.backoff = []time.Duration{2 * time.Second, 2 * time.Second, 2 * time.Second}

	start := time.Now()
	verdict, err := c.Check(context.Background(), "leaning sign")
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !verdict.Allowed {
		t.Fatal("expected allowed verdict")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Retry-After not honored, waited %v", elapsed)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestCheckNonRetryableStatusFailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Check(context.Background(), "some text")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 attempt, got %d", n)
	}
}

func TestCheckMalformedResponseIsTerminal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Check(context.Background(), "some text")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("malformed response must not be retried, got %d attempts", n)
	}
}

func TestCheckDeadlineBoundsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.Check(context.Background(), "slow backend")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("deadline not enforced, took %v", elapsed)
	}
}

func TestFirstFlaggedCategory(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"first true wins", `{"a":false,"b":true,"c":true}`, "b"},
		{"none flagged", `{"a":false,"b":false}`, ""},
		{"empty object", `{}`, ""},
		{"empty input", ``, ""},
		{"non-bool values skipped", `{"a":0.1,"b":true}`, "b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := firstFlaggedCategory(json.RawMessage(tc.raw)); got != tc.want {
				t.Fatalf("firstFlaggedCategory(%s) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
