package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albertomtferreira/devflow/internal/apperrors"
	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/store"
)

// Service handles a project's custom status list. ReplaceStatuses is
// the single invariant-enforcing entry point; AddStatus and
// UpdateStatus route through it. All writes are read-verify-write with
// no version check, so concurrent editors are last-write-wins.
type Service struct {
	store store.Store
	log   *slog.Logger
}

// NewService creates a new status Service.
func NewService(st store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, log: log}
}

// NewStatus carries the caller-supplied fields for a status being
// added; id, order and creation timestamp are assigned by the service.
type NewStatus struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// StatusPatch carries partial updates to a status. Nil fields are left
// unchanged; id and creation timestamp are never updatable.
type StatusPatch struct {
	Label       *string `json:"label,omitempty"`
	Color       *string `json:"color,omitempty"`
	Description *string `json:"description,omitempty"`
	IsDefault   *bool   `json:"isDefault,omitempty"`
}

// loadOwnedProject reads the project document and verifies ownership.
// A missing document surfaces as ErrNotFound and a foreign one as
// ErrAccessDenied; over the API both collapse to the same response so
// unauthorized callers cannot tell "doesn't exist" from "not yours".
func (s *Service) loadOwnedProject(ctx context.Context, projectID, actorID string) (*models.Project, error) {
	fields, err := s.store.Get(ctx, store.ProjectsCollection, projectID)
	if err != nil {
		return nil, err
	}
	project, err := models.ProjectFromFields(projectID, fields)
	if err != nil {
		return nil, fmt.Errorf("decode project %s: %w", projectID, err)
	}
	if project.UserID != actorID {
		return nil, fmt.Errorf("project %s: %w", projectID, apperrors.ErrAccessDenied)
	}
	return project, nil
}

// GetStatuses returns the project's status list.
func (s *Service) GetStatuses(ctx context.Context, projectID, actorID string) ([]models.ProjectStatus, error) {
	project, err := s.loadOwnedProject(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	return project.CustomStatuses, nil
}

// ReplaceStatuses validates and persists the whole status list as one
// field write. Order is re-derived from array position regardless of
// what the caller sent.
func (s *Service) ReplaceStatuses(ctx context.Context, projectID, actorID string, statuses []models.ProjectStatus) error {
	if len(statuses) == 0 {
		return fmt.Errorf("project must have at least one status: %w", apperrors.ErrInvalidState)
	}
	defaults := 0
	for _, st := range statuses {
		if st.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("project must have exactly one default status, has %d: %w",
			defaults, apperrors.ErrInvalidState)
	}

	ordered := make([]models.ProjectStatus, len(statuses))
	for i, st := range statuses {
		st.Order = i
		ordered[i] = st
	}

	// Re-verify ownership right before the write.
	if _, err := s.loadOwnedProject(ctx, projectID, actorID); err != nil {
		return err
	}

	return s.store.Update(ctx, store.ProjectsCollection, projectID, store.Fields{
		"customStatuses": ordered,
		"updatedAt":      store.ServerTimestamp,
	})
}

// AddStatus appends a new status to the project's list and returns it.
func (s *Service) AddStatus(ctx context.Context, projectID, actorID string, newStatus NewStatus) (models.ProjectStatus, error) {
	current, err := s.GetStatuses(ctx, projectID, actorID)
	if err != nil {
		return models.ProjectStatus{}, err
	}

	added := models.ProjectStatus{
		ID:          uuid.NewString(),
		Label:       newStatus.Label,
		Color:       newStatus.Color,
		Description: newStatus.Description,
		Order:       len(current),
		IsDefault:   newStatus.IsDefault,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.ReplaceStatuses(ctx, projectID, actorID, append(current, added)); err != nil {
		return models.ProjectStatus{}, err
	}
	return added, nil
}

// UpdateStatus patches the mutable fields of one status and persists
// the list through ReplaceStatuses.
func (s *Service) UpdateStatus(ctx context.Context, projectID, actorID, statusID string, patch StatusPatch) error {
	current, err := s.GetStatuses(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range current {
		if current[i].ID == statusID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("status %s: %w", statusID, apperrors.ErrNotFound)
	}

	if patch.Label != nil {
		current[idx].Label = *patch.Label
	}
	if patch.Color != nil {
		current[idx].Color = *patch.Color
	}
	if patch.Description != nil {
		current[idx].Description = *patch.Description
	}
	if patch.IsDefault != nil {
		current[idx].IsDefault = *patch.IsDefault
	}

	return s.ReplaceStatuses(ctx, projectID, actorID, current)
}

// DeleteStatus removes one status. The project's current status and the
// last remaining status cannot be removed. The trimmed list is
// persisted directly, not through ReplaceStatuses, so the default-count
// invariant is not re-checked here: deleting the default status leaves
// the project with no default until the next ReplaceStatuses.
func (s *Service) DeleteStatus(ctx context.Context, projectID, actorID, statusID string) error {
	project, err := s.loadOwnedProject(ctx, projectID, actorID)
	if err != nil {
		return err
	}

	if project.CurrentStatus == statusID {
		return fmt.Errorf("status %s: %w", statusID, apperrors.ErrActiveStatusInUse)
	}
	if len(project.CustomStatuses) <= 1 {
		return fmt.Errorf("project %s: %w", projectID, apperrors.ErrLastStatusRemaining)
	}

	trimmed := make([]models.ProjectStatus, 0, len(project.CustomStatuses)-1)
	for _, st := range project.CustomStatuses {
		if st.ID == statusID {
			continue
		}
		st.Order = len(trimmed)
		trimmed = append(trimmed, st)
	}

	return s.store.Update(ctx, store.ProjectsCollection, projectID, store.Fields{
		"customStatuses": trimmed,
		"updatedAt":      store.ServerTimestamp,
	})
}

// SetCurrentStatus moves the project's current-status pointer. The
// target may be any status present in the list; workflows are
// user-defined, so there is no transition topology to enforce.
func (s *Service) SetCurrentStatus(ctx context.Context, projectID, actorID, statusID string) error {
	statuses, err := s.GetStatuses(ctx, projectID, actorID)
	if err != nil {
		return err
	}
	if models.StatusByID(statuses, statusID) == nil {
		return fmt.Errorf("status %s is not in the project's status list: %w",
			statusID, apperrors.ErrInvalidState)
	}

	s.log.Debug("setting current status",
		slog.String("project_id", projectID), slog.String("status_id", statusID))

	return s.store.Update(ctx, store.ProjectsCollection, projectID, store.Fields{
		"currentStatus": statusID,
		"updatedAt":     store.ServerTimestamp,
	})
}
