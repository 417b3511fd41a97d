package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"askhuman/internal/cache"
	"askhuman/internal/model"
	"askhuman/internal/repository"
)

// Broadcaster receives question lifecycle events. Emission is at-least-once;
// listeners must tolerate duplicates.
type Broadcaster interface {
	QuestionCreated(q *model.Question)
	QuestionUpdated(q *model.Question, status model.QuestionStatus)
}

// LedgerService owns the question/response lifecycle: quorum, expiry, and
// the response admission gate. It never retries; every call is a single
// attempt whose outcome is reported once.
type LedgerService struct {
	questionRepo repository.QuestionRepo
	responseRepo repository.ResponseRepo
	answered     cache.AnsweredCache
	broadcaster  Broadcaster
	now          func() time.Time
}

func NewLedgerService(questionRepo repository.QuestionRepo, responseRepo repository.ResponseRepo, answered cache.AnsweredCache) *LedgerService {
	return &LedgerService{
		questionRepo: questionRepo,
		responseRepo: responseRepo,
		answered:     answered,
		now:          time.Now,
	}
}

// SetBroadcaster injects the lifecycle event sink (the websocket hub)
func (s *LedgerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateQuestion validates and stores a new question
func (s *LedgerService) CreateQuestion(ctx context.Context, p model.CreateQuestionParams) (*model.Question, error) {
	q, err := model.NewQuestion(p, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}

	log.Info().
		Str("questionId", q.ID).
		Str("type", string(q.Type)).
		Int("requiredResponses", q.RequiredResponses).
		Str("agentId", q.AgentID).
		Msg("Question created")

	if s.broadcaster != nil {
		s.broadcaster.QuestionCreated(q)
	}

	return q, nil
}

// GetQuestion returns the question and its accepted responses. Status is
// derived on every read via Question.Status; nothing is cached.
func (s *LedgerService) GetQuestion(ctx context.Context, id string) (*model.Question, []*model.Response, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if q == nil {
		return nil, nil, &model.NotFoundError{QuestionID: id}
	}

	responses, err := s.responseRepo.ListByQuestion(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return q, responses, nil
}

// SubmitResponse admits a human response. The response document is inserted
// first so the unique (questionId, fingerprintHash) index settles duplicate
// races, then the count increment is attempted under the quorum/expiry
// condition. An insert whose admission loses that race is backed out and the
// caller sees QuestionClosedError.
func (s *LedgerService) SubmitResponse(ctx context.Context, p model.SubmitResponseParams) (*model.Response, error) {
	q, err := s.questionRepo.GetByID(ctx, p.QuestionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, &model.NotFoundError{QuestionID: p.QuestionID}
	}

	now := s.now()
	if !q.AcceptsResponses(now) {
		return nil, &model.QuestionClosedError{QuestionID: q.ID, Status: q.Status(now)}
	}

	resp, err := model.NewResponse(q, p, now)
	if err != nil {
		return nil, err
	}

	if err := s.responseRepo.Insert(ctx, resp); err != nil {
		return nil, err
	}

	updated, err := s.questionRepo.AdmitResponse(ctx, q.ID, now)
	if err != nil {
		// Admission never happened; an orphaned row would skew the stored
		// list against the count and block the fingerprint from retrying
		if rmErr := s.responseRepo.Remove(ctx, resp.ID); rmErr != nil {
			log.Error().Err(rmErr).Str("responseId", resp.ID).Msg("Failed to back out unadmitted response")
		}
		return nil, err
	}
	if updated == nil {
		// Lost the race to quorum or expiry; back out the insert
		if rmErr := s.responseRepo.Remove(ctx, resp.ID); rmErr != nil {
			log.Error().Err(rmErr).Str("responseId", resp.ID).Msg("Failed to back out rejected response")
		}
		status := model.StatusClosed
		if !now.Before(q.ExpiresAt) {
			status = model.StatusExpired
		}
		return nil, &model.QuestionClosedError{QuestionID: q.ID, Status: status}
	}

	if err := s.answered.MarkAnswered(ctx, p.FingerprintHash, q.ID); err != nil {
		log.Warn().Err(err).Str("questionId", q.ID).Msg("Failed to record answered set")
	}

	status := updated.Status(now)
	log.Info().
		Str("questionId", q.ID).
		Str("responseId", resp.ID).
		Int("currentResponses", updated.CurrentResponses).
		Str("status", string(status)).
		Msg("Response admitted")

	if s.broadcaster != nil {
		s.broadcaster.QuestionUpdated(updated, status)
	}

	return resp, nil
}

// maxListScan bounds how many candidates ListAnswerable will examine
const maxListScan = 1000

// ListAnswerable returns questions the given fingerprint can still answer,
// newest first.
func (s *LedgerService) ListAnswerable(ctx context.Context, fingerprint string, limit int) ([]*model.Question, error) {
	answered, err := s.answered.AnsweredIDs(ctx, fingerprint)
	if err != nil {
		log.Warn().Err(err).Msg("Answered set unavailable, listing unfiltered")
		answered = nil
	}

	// Overfetch to compensate for filtered-out questions, widening until the
	// page fills or the store runs out
	fetchLimit := limit + len(answered)
	for {
		questions, err := s.questionRepo.ListAnswerable(ctx, s.now(), fetchLimit)
		if err != nil {
			return nil, err
		}

		result := make([]*model.Question, 0, limit)
		for _, q := range questions {
			if answered[q.ID] {
				continue
			}
			result = append(result, q)
			if len(result) == limit {
				break
			}
		}

		if len(result) == limit || len(questions) < fetchLimit || fetchLimit >= maxListScan {
			return result, nil
		}
		fetchLimit *= 2
		if fetchLimit > maxListScan {
			fetchLimit = maxListScan
		}
	}
}

// CanAnswer reports whether the fingerprint may still answer the question
func (s *LedgerService) CanAnswer(ctx context.Context, q *model.Question, fingerprint string) bool {
	if !q.AcceptsResponses(s.now()) {
		return false
	}
	has, err := s.answered.HasAnswered(ctx, fingerprint, q.ID)
	if err != nil {
		// Advisory only; the unique index still rejects duplicates
		return true
	}
	return !has
}
