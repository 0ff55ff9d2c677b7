package activity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Recorder appends audit entries on behalf of the record services. Append
// failures are logged and swallowed: the primary record write has already
// committed and is not rolled back for a missing log entry.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Created appends the creation entry for a document.
func (r *Recorder) Created(ctx context.Context, id shared.Identity, kind EntityKind, entityID uuid.UUID, title, description string) {
	r.record(ctx, Entry{
		ID:          uuid.New(),
		OrgID:       id.OrgID,
		Kind:        kind,
		EntityID:    entityID,
		Type:        TypeCreated,
		Title:       title,
		Description: description,
		ActorID:     id.UserID,
	})
}

// StatusChanged appends the "old → new" entry for a status transition.
func (r *Recorder) StatusChanged(ctx context.Context, id shared.Identity, kind EntityKind, entityID uuid.UUID, oldStatus, newStatus string) {
	r.record(ctx, Entry{
		ID:       uuid.New(),
		OrgID:    id.OrgID,
		Kind:     kind,
		EntityID: entityID,
		Type:     TypeStatusChange,
		Title:    "Status changed: " + oldStatus + " → " + newStatus,
		ActorID:  id.UserID,
	})
}

func (r *Recorder) record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}
	if err := r.repo.Insert(ctx, e); err != nil && r.logger != nil {
		r.logger.Error("append activity entry",
			slog.String("entity_kind", string(e.Kind)),
			slog.String("entity_id", e.EntityID.String()),
			slog.Any("error", err))
	}
}
