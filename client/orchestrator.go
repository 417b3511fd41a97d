package client

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Orchestrator defaults
const (
	DefaultPollInterval      = 30 * time.Second
	DefaultMaxBackoff        = 5 * time.Minute
	DefaultBackoffMultiplier = 1.5
	DefaultAwaitTimeout      = time.Hour
)

// Orchestrator waits for in-flight questions to gather responses using
// adaptive polling with exponential backoff. It retries poll reads only;
// submissions pass straight through to the Client.
type Orchestrator struct {
	client            *Client
	pollInterval      time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithPollInterval sets the base interval between poll rounds
func WithPollInterval(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// WithMaxBackoff caps the interval between poll rounds
func WithMaxBackoff(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.maxBackoff = d }
}

// WithBackoffMultiplier sets the backoff growth factor
func WithBackoffMultiplier(m float64) OrchestratorOption {
	return func(o *Orchestrator) { o.backoffMultiplier = m }
}

// NewOrchestrator creates an Orchestrator around a Client
func NewOrchestrator(c *Client, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:            c,
		pollInterval:      DefaultPollInterval,
		maxBackoff:        DefaultMaxBackoff,
		backoffMultiplier: DefaultBackoffMultiplier,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit submits a question; passthrough to Client.SubmitQuestion
func (o *Orchestrator) Submit(ctx context.Context, req QuestionRequest) (*Submission, error) {
	return o.client.SubmitQuestion(ctx, req)
}

// PollResult is the per-question outcome of one poll round
type PollResult struct {
	Question *Question
	Err      error
}

// PollOnce issues one concurrent read per question ID, no retries. Failures
// are reported per ID; the call itself returns ServerError only when every
// read failed.
func (o *Orchestrator) PollOnce(ctx context.Context, questionIDs []string) (map[string]PollResult, error) {
	type indexed struct {
		id     string
		result PollResult
	}

	settled := make([]indexed, len(questionIDs))

	var wg sync.WaitGroup
	for i, id := range questionIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			q, err := o.client.GetQuestion(ctx, id)
			settled[i] = indexed{id: id, result: PollResult{Question: q, Err: err}}
		}(i, id)
	}
	wg.Wait()

	// Assemble the result map only after all reads settle
	results := make(map[string]PollResult, len(settled))
	failures := 0
	for _, entry := range settled {
		results[entry.id] = entry.result
		if entry.result.Err != nil {
			failures++
		}
	}

	if len(questionIDs) > 0 && failures == len(questionIDs) {
		return results, &ServerError{Message: "all poll reads failed"}
	}

	return results, nil
}

// AwaitOptions controls AwaitResponses.
//
// MinResponses > 0 satisfies a question once its response count reaches it;
// otherwise only a terminal status (CLOSED/EXPIRED) satisfies. A Timeout of
// zero or less performs exactly one poll round and returns whatever it
// fetched without sleeping.
type AwaitOptions struct {
	MinResponses int
	Timeout      time.Duration
}

// AwaitResponses polls until every question satisfies its acceptance
// condition, the timeout elapses (returning the best-known partial state,
// which is a normal outcome, not an error), or the context is cancelled
// (CancelledError). Questions leave the poll set as soon as they satisfy
// the condition and are never polled again.
//
// An id that fails non-retryably (unknown question, rejected request) is
// dropped: it stops being polled and is absent from the returned map while
// the remaining ids proceed. Callers that need per-id failure detail should
// use PollOnce. The call itself errors only when every id ends that way
// with nothing fetched.
func (o *Orchestrator) AwaitResponses(ctx context.Context, questionIDs []string, opts AwaitOptions) (map[string]*Question, error) {
	// A pre-cancelled context must fail before any network call
	select {
	case <-ctx.Done():
		return nil, &CancelledError{Err: ctx.Err()}
	default:
	}

	start := time.Now()
	interval := o.pollInterval
	results := make(map[string]*Question, len(questionIDs))

	outstanding := make([]string, len(questionIDs))
	copy(outstanding, questionIDs)

	for {
		// A round where every read fails with a retryable error is not fatal;
		// per-id outcomes below decide what keeps polling
		polled, _ := o.PollOnce(ctx, outstanding)
		if ctx.Err() != nil {
			return nil, &CancelledError{Err: ctx.Err()}
		}

		remaining := outstanding[:0]
		permanentFailures := 0
		for _, id := range outstanding {
			res := polled[id]
			if res.Err != nil {
				if retryable(res.Err) {
					remaining = append(remaining, id)
				} else {
					permanentFailures++
				}
				continue
			}

			results[id] = res.Question
			if !satisfied(res.Question, opts.MinResponses) {
				remaining = append(remaining, id)
			}
		}
		outstanding = remaining

		if len(outstanding) == 0 {
			// Every id either satisfied its condition or failed for good
			if len(results) == 0 && permanentFailures > 0 {
				return nil, &ServerError{Message: "all questions failed to poll"}
			}
			return results, nil
		}

		elapsed := time.Since(start)
		if elapsed >= opts.Timeout {
			return results, nil
		}

		sleep := interval
		if rest := opts.Timeout - elapsed; sleep > rest {
			sleep = rest
		}
		if sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, &CancelledError{Err: ctx.Err()}
			case <-timer.C:
			}
		}

		interval = time.Duration(float64(interval) * o.backoffMultiplier)
		if interval > o.maxBackoff {
			interval = o.maxBackoff
		}
	}
}

// SubmitAndWait submits one question and waits for it. MinResponses defaults
// to the request's quorum and Timeout to the question's own TTL.
func (o *Orchestrator) SubmitAndWait(ctx context.Context, req QuestionRequest, opts AwaitOptions) (*Question, error) {
	sub, err := o.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if opts.MinResponses == 0 {
		if req.MinResponses > 0 {
			opts.MinResponses = req.MinResponses
		} else {
			opts.MinResponses = DefaultMinResponses
		}
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Until(sub.ExpiresAt)
		if opts.Timeout <= 0 {
			opts.Timeout = DefaultAwaitTimeout
		}
	}

	results, err := o.AwaitResponses(ctx, []string{sub.QuestionID}, opts)
	if err != nil {
		return nil, err
	}

	q, ok := results[sub.QuestionID]
	if !ok {
		return nil, &ServerError{Message: "no state fetched for " + sub.QuestionID}
	}
	return q, nil
}

// retryable reports whether a poll failure should be retried on the next
// backoff tick. Server and transport failures are transient; 4xx outcomes
// (unknown question, bad request) cannot recover.
func retryable(err error) bool {
	var (
		serverErr    *ServerError
		rateLimitErr *RateLimitError
	)
	return errors.As(err, &serverErr) || errors.As(err, &rateLimitErr)
}

func satisfied(q *Question, minResponses int) bool {
	if q.Terminal() {
		return true
	}
	return minResponses > 0 && q.CurrentResponses >= minResponses
}
