package services

import (
	"context"
	"net/url"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/query"
	"finanzas/internal/storage"
)

// FeedbackService handles the free-text feedback entries. Feedback shares
// the bounded-field rules of elements but has no amount and no date range.
type FeedbackService struct {
	repo *storage.Repository
}

func NewFeedbackService(repo *storage.Repository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// FeedbackPayload is the creation body.
type FeedbackPayload struct {
	Description *string `json:"description"`
	Type        *string `json:"type"`
}

// FeedbackRecord is the wire projection of a feedback entry.
type FeedbackRecord struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_on"`
	OwnerID     int64     `json:"owner_id"`
}

// Add stores a feedback entry owned by the actor.
func (s *FeedbackService) Add(ctx context.Context, payload FeedbackPayload, actor core.Actor) (*FeedbackRecord, error) {
	if payload.Description == nil || payload.Type == nil {
		return nil, core.ErrValidation("one or more required fields are missing")
	}

	feedback := core.Feedback{
		OwnerID:     actor.UserID,
		Description: *payload.Description,
		Type:        *payload.Type,
	}
	if err := feedback.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.InsertFeedback(ctx, &feedback); err != nil {
		return nil, err
	}

	record := toFeedbackRecord(feedback)
	return &record, nil
}

// List returns the paginated feedback listing: every entry for admins, the
// actor's own entries otherwise.
func (s *FeedbackService) List(ctx context.Context, values url.Values, actor core.Actor) (map[string]any, error) {
	pageParams, err := query.ParsePageParams(values)
	if err != nil {
		return nil, err
	}

	ownerScope := actor.UserID
	if actor.IsAdmin {
		ownerScope = 0
	}

	entries, err := s.repo.ListFeedback(ctx, ownerScope)
	if err != nil {
		return nil, err
	}

	records := make([]FeedbackRecord, 0, len(entries))
	for _, f := range entries {
		records = append(records, toFeedbackRecord(f))
	}

	return query.Paginate(pageParams, records, "feedback", nil)
}

// DistinctTypes lists the feedback type tags the actor has used.
func (s *FeedbackService) DistinctTypes(ctx context.Context, actor core.Actor) ([]string, error) {
	return s.repo.DistinctFeedbackTypes(ctx, actor.UserID)
}

func toFeedbackRecord(f core.Feedback) FeedbackRecord {
	return FeedbackRecord{
		ID:          f.ID,
		Description: f.Description,
		Type:        f.Type,
		CreatedAt:   f.CreatedAt,
		OwnerID:     f.OwnerID,
	}
}
