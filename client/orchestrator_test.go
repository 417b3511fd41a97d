package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// pollServer serves scripted question states: each GET of a question pops the
// next state from its script, repeating the last one once exhausted.
type pollServer struct {
	mu      sync.Mutex
	scripts map[string][]Question
	calls   map[string]int
	srv     *httptest.Server
}

func newPollServer(t *testing.T, scripts map[string][]Question) *pollServer {
	t.Helper()
	ps := &pollServer{scripts: scripts, calls: make(map[string]int)}
	ps.srv = httptest.NewServer(http.HandlerFunc(ps.handle))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pollServer) handle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/agent/questions/")

	ps.mu.Lock()
	script, ok := ps.scripts[id]
	n := ps.calls[id]
	ps.calls[id] = n + 1
	ps.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"question not found","code":"QUESTION_NOT_FOUND"}`))
		return
	}

	if n >= len(script) {
		n = len(script) - 1
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(script[n])
}

func (ps *pollServer) callCount(id string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.calls[id]
}

func state(id string, status Status, current, required int) Question {
	responses := make([]ResponseItem, current)
	for i := range responses {
		responses[i] = ResponseItem{Answer: "an answer"}
	}
	return Question{
		QuestionID:        id,
		Status:            status,
		Prompt:            "Which option reads better?",
		Type:              TypeText,
		RequiredResponses: required,
		CurrentResponses:  current,
		ExpiresAt:         time.Now().Add(time.Hour),
		Responses:         responses,
	}
}

func fastOrchestrator(baseURL string) *Orchestrator {
	c := New(WithBaseURL(baseURL))
	return NewOrchestrator(c,
		WithPollInterval(10*time.Millisecond),
		WithMaxBackoff(40*time.Millisecond),
		WithBackoffMultiplier(2.0),
	)
}

func TestAwaitResponsesTrickle(t *testing.T) {
	const id = "q_trickle00001"
	ps := newPollServer(t, map[string][]Question{
		id: {
			state(id, StatusPartial, 1, 3),
			state(id, StatusPartial, 2, 3),
			state(id, StatusClosed, 3, 3),
		},
	})

	o := fastOrchestrator(ps.srv.URL)
	results, err := o.AwaitResponses(context.Background(), []string{id}, AwaitOptions{
		MinResponses: 3,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("AwaitResponses: %v", err)
	}

	q := results[id]
	if q == nil || q.CurrentResponses != 3 || q.Status != StatusClosed {
		t.Fatalf("result = %+v, want 3 responses CLOSED", q)
	}
	if got := ps.callCount(id); got != 3 {
		t.Errorf("poll calls = %d, want exactly 3 rounds", got)
	}
}

func TestAwaitResponsesEarlyExitBelowQuorum(t *testing.T) {
	// MinResponses below the quorum satisfies the wait before the question
	// closes server-side
	const id = "q_early0000001"
	ps := newPollServer(t, map[string][]Question{
		id: {state(id, StatusPartial, 2, 5)},
	})

	o := fastOrchestrator(ps.srv.URL)
	results, err := o.AwaitResponses(context.Background(), []string{id}, AwaitOptions{
		MinResponses: 2,
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("AwaitResponses: %v", err)
	}
	if results[id].CurrentResponses != 2 {
		t.Fatalf("CurrentResponses = %d, want 2", results[id].CurrentResponses)
	}
	if got := ps.callCount(id); got != 1 {
		t.Errorf("poll calls = %d, want 1", got)
	}
}

func TestAwaitResponsesZeroTimeoutPollsOnce(t *testing.T) {
	const id = "q_oneshot00001"
	ps := newPollServer(t, map[string][]Question{
		id: {state(id, StatusPartial, 1, 5)},
	})

	o := fastOrchestrator(ps.srv.URL)
	start := time.Now()
	results, err := o.AwaitResponses(context.Background(), []string{id}, AwaitOptions{
		MinResponses: 5,
		Timeout:      0,
	})
	if err != nil {
		t.Fatalf("AwaitResponses: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("zero timeout slept for %v", elapsed)
	}
	if results[id] == nil || results[id].CurrentResponses != 1 {
		t.Fatalf("result = %+v, want the single fetched state", results[id])
	}
	if got := ps.callCount(id); got != 1 {
		t.Errorf("poll calls = %d, want 1", got)
	}
}

func TestAwaitResponsesTimeoutReturnsPartial(t *testing.T) {
	const id = "q_partial00001"
	ps := newPollServer(t, map[string][]Question{
		id: {state(id, StatusPartial, 2, 5)},
	})

	o := fastOrchestrator(ps.srv.URL)
	results, err := o.AwaitResponses(context.Background(), []string{id}, AwaitOptions{
		MinResponses: 5,
		Timeout:      50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("timeout must not be an error, got %v", err)
	}
	if results[id] == nil || results[id].CurrentResponses != 2 {
		t.Fatalf("result = %+v, want best-known partial state", results[id])
	}
}

func TestAwaitResponsesPreCancelledContext(t *testing.T) {
	const id = "q_precancel001"
	ps := newPollServer(t, map[string][]Question{
		id: {state(id, StatusClosed, 3, 3)},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := fastOrchestrator(ps.srv.URL)
	_, err := o.AwaitResponses(ctx, []string{id}, AwaitOptions{Timeout: time.Second})
	var cancelErr *CancelledError
	if !errors.As(err, &cancelErr) {
		t.Fatalf("want CancelledError, got %v", err)
	}
	if got := ps.callCount(id); got != 0 {
		t.Errorf("poll calls = %d, want 0 for a pre-cancelled context", got)
	}
}

func TestAwaitResponsesCancelDuringSleep(t *testing.T) {
	const id = "q_midcancel001"
	ps := newPollServer(t, map[string][]Question{
		id: {state(id, StatusPartial, 1, 5)},
	})

	c := New(WithBaseURL(ps.srv.URL))
	o := NewOrchestrator(c, WithPollInterval(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := o.AwaitResponses(ctx, []string{id}, AwaitOptions{
		MinResponses: 5,
		Timeout:      time.Minute,
	})
	var cancelErr *CancelledError
	if !errors.As(err, &cancelErr) {
		t.Fatalf("want CancelledError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, want prompt wakeup from sleep", elapsed)
	}
}

func TestAwaitResponsesRetriesTransientFailures(t *testing.T) {
	const id = "q_transient001"
	var mu sync.Mutex
	failures := 2

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fail := failures > 0
		if fail {
			failures--
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"storage unavailable","code":"SERVER_ERROR"}`))
			return
		}
		json.NewEncoder(w).Encode(state(id, StatusClosed, 3, 3))
	}))
	defer srv.Close()

	o := fastOrchestrator(srv.URL)
	results, err := o.AwaitResponses(context.Background(), []string{id}, AwaitOptions{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("AwaitResponses: %v", err)
	}
	if results[id] == nil || results[id].Status != StatusClosed {
		t.Fatalf("result = %+v, want CLOSED after transient failures", results[id])
	}
}

func TestAwaitResponsesPermanentFailure(t *testing.T) {
	// Unknown question: every poll 404s, no result can ever arrive
	ps := newPollServer(t, map[string][]Question{})

	o := fastOrchestrator(ps.srv.URL)
	_, err := o.AwaitResponses(context.Background(), []string{"q_missing00001"}, AwaitOptions{
		Timeout: 5 * time.Second,
	})
	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("want ServerError when every question fails for good, got %v", err)
	}
	if got := ps.callCount("q_missing00001"); got != 1 {
		t.Errorf("poll calls = %d, want 1 (404 is not retried)", got)
	}
}

func TestAwaitResponsesDropsPermanentlyFailedID(t *testing.T) {
	// One id 404s on every poll while the other satisfies its condition: the
	// failed id is dropped from the result map and the call succeeds
	const id = "q_survivor0001"
	ps := newPollServer(t, map[string][]Question{
		id: {state(id, StatusClosed, 3, 3)},
	})

	o := fastOrchestrator(ps.srv.URL)
	results, err := o.AwaitResponses(context.Background(), []string{id, "q_missing00003"}, AwaitOptions{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("one surviving id must not error the call, got %v", err)
	}
	if results[id] == nil || results[id].Status != StatusClosed {
		t.Fatalf("surviving result = %+v", results[id])
	}
	if _, present := results["q_missing00003"]; present {
		t.Error("permanently failed id must be absent from the result map")
	}
	if got := ps.callCount("q_missing00003"); got != 1 {
		t.Errorf("failed id polled %d times, want 1 (404 is not retried)", got)
	}
}

func TestPollOnceMixedOutcomes(t *testing.T) {
	const known = "q_known0000001"
	ps := newPollServer(t, map[string][]Question{
		known: {state(known, StatusPartial, 1, 3)},
	})

	o := fastOrchestrator(ps.srv.URL)
	results, err := o.PollOnce(context.Background(), []string{known, "q_missing00001"})
	if err != nil {
		t.Fatalf("PollOnce with one success must not error, got %v", err)
	}

	if results[known].Err != nil || results[known].Question.CurrentResponses != 1 {
		t.Errorf("known result = %+v", results[known])
	}
	var nfErr *NotFoundError
	if !errors.As(results["q_missing00001"].Err, &nfErr) {
		t.Errorf("missing result err = %v, want NotFoundError", results["q_missing00001"].Err)
	}
}

func TestPollOnceAllFail(t *testing.T) {
	ps := newPollServer(t, map[string][]Question{})

	o := fastOrchestrator(ps.srv.URL)
	results, err := o.PollOnce(context.Background(), []string{"q_missing00001", "q_missing00002"})
	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("want ServerError when every read fails, got %v", err)
	}
	if len(results) != 2 {
		t.Errorf("per-id results = %d, want 2", len(results))
	}
}

func TestSubmitAndWait(t *testing.T) {
	const id = "q_submitwait01"
	script := []Question{
		state(id, StatusPartial, 1, 2),
		state(id, StatusClosed, 2, 2),
	}

	var mu sync.Mutex
	polls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(Submission{
				QuestionID: id,
				Status:     StatusOpen,
				PollURL:    "/v1/agent/questions/" + id,
				ExpiresAt:  time.Now().Add(time.Hour),
			})
			return
		}
		mu.Lock()
		n := polls
		polls++
		mu.Unlock()
		if n >= len(script) {
			n = len(script) - 1
		}
		json.NewEncoder(w).Encode(script[n])
	}))
	defer srv.Close()

	o := fastOrchestrator(srv.URL)
	q, err := o.SubmitAndWait(context.Background(), QuestionRequest{
		Prompt:       "Which option reads better?",
		Type:         TypeText,
		MinResponses: 2,
	}, AwaitOptions{})
	if err != nil {
		t.Fatalf("SubmitAndWait: %v", err)
	}
	if q.Status != StatusClosed || q.CurrentResponses != 2 {
		t.Fatalf("final state = %+v, want CLOSED with 2 responses", q)
	}
}
