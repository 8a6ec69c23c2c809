package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/project"
)

// Session is the write-through project cache for one acting identity.
// Every mutation goes through the repository first; the cache is only
// touched after the write succeeds, so a failed call leaves the
// last-known-good state intact. The one exception is PatchStatus, the
// optimistic local patch applied without confirmation.
//
// Reconciliation is discard-and-replace: RefreshProjects swaps the
// whole keyed map rather than merging field by field.
type Session struct {
	mu      sync.RWMutex
	actorID string
	svc     *project.Service
	bus     *Bus
	log     *slog.Logger

	byID    map[string]*models.Project
	order   []string
	current *models.Project
}

// NewSession creates an empty session cache for the given actor.
func NewSession(svc *project.Service, actorID string, bus *Bus, log *slog.Logger) *Session {
	if bus == nil {
		bus = NewBus()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		actorID: actorID,
		svc:     svc,
		bus:     bus,
		log:     log,
		byID:    make(map[string]*models.Project),
	}
}

// Bus returns the session's event bus for observer registration.
func (s *Session) Bus() *Bus { return s.bus }

// ActorID returns the identity this session caches projects for.
func (s *Session) ActorID() string { return s.actorID }

// Load populates the cache with a full fetch of the actor's projects.
func (s *Session) Load(ctx context.Context) error {
	return s.RefreshProjects(ctx)
}

// Clear empties the cache; used when the acting identity goes away.
func (s *Session) Clear() {
	s.mu.Lock()
	s.byID = make(map[string]*models.Project)
	s.order = nil
	s.current = nil
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventRefreshed})
}

// Projects returns the cached list in order, as clones.
func (s *Session) Projects() []*models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Project, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Project returns one cached project as a clone, or nil.
func (s *Session) Project(id string) *models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id].Clone()
}

// CurrentProject returns the current project as a clone, or nil.
func (s *Session) CurrentProject() *models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// SetCurrentProject points the session at a project (or nil).
func (s *Session) SetCurrentProject(p *models.Project) {
	s.mu.Lock()
	s.current = p.Clone()
	s.mu.Unlock()
}

// CreateProject writes through to the repository, re-reads the
// normalized aggregate, prepends it to the cached list and makes it
// current. The returned project is the caller's navigation target.
func (s *Session) CreateProject(ctx context.Context, data project.NewProjectData) (*models.Project, error) {
	data.UserID = s.actorID

	id, err := s.svc.Add(ctx, data)
	if err != nil {
		return nil, err
	}
	created, err := s.svc.Get(ctx, id, s.actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created project: %w", err)
	}

	s.mu.Lock()
	s.byID[created.ID] = created.Clone()
	s.order = append([]string{created.ID}, s.order...)
	s.current = created.Clone()
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventProjectCreated, ProjectID: created.ID, Project: created.Clone()})
	return created, nil
}

// UpdateProject writes through to the repository and replaces the
// cached entry (and the current project, if it is the one edited) with
// the re-read result.
func (s *Session) UpdateProject(ctx context.Context, id string, patch project.Patch) (*models.Project, error) {
	if err := s.svc.Update(ctx, id, s.actorID, patch); err != nil {
		return nil, err
	}
	updated, err := s.svc.Get(ctx, id, s.actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve updated project: %w", err)
	}

	s.mu.Lock()
	if _, ok := s.byID[id]; ok {
		s.byID[id] = updated.Clone()
	}
	if s.current != nil && s.current.ID == id {
		s.current = updated.Clone()
	}
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventProjectUpdated, ProjectID: id, Project: updated.Clone()})
	return updated, nil
}

// DeleteProject writes through to the repository, then drops the entry
// from the cache and clears the current project if it matched. The
// deletion event is the caller's signal to navigate away.
func (s *Session) DeleteProject(ctx context.Context, id, title string) error {
	if err := s.svc.Delete(ctx, id, s.actorID, title); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventProjectDeleted, ProjectID: id})
	return nil
}

// RefreshProjects re-fetches the actor's full project list and replaces
// the cached list wholesale. The current project pointer is left as it
// was; RefreshCurrentProject is the targeted reconciliation for it.
func (s *Session) RefreshProjects(ctx context.Context) error {
	projects, err := s.svc.ListByUser(ctx, s.actorID)
	if err != nil {
		return err
	}

	byID := make(map[string]*models.Project, len(projects))
	order := make([]string, 0, len(projects))
	for _, p := range projects {
		byID[p.ID] = p.Clone()
		order = append(order, p.ID)
	}

	s.mu.Lock()
	s.byID = byID
	s.order = order
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventRefreshed})
	return nil
}

// RefreshCurrentProject re-fetches one project and patches it into both
// the current-project pointer and the corresponding list entry.
func (s *Session) RefreshCurrentProject(ctx context.Context, id string) error {
	p, err := s.svc.Get(ctx, id, s.actorID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = p.Clone()
	if _, ok := s.byID[id]; ok {
		s.byID[id] = p.Clone()
	}
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventProjectUpdated, ProjectID: id, Project: p.Clone()})
	return nil
}

// PatchStatus applies a purely local, optimistic patch of the cached
// current-status pointer for immediate observer feedback. It never
// calls the repository; the authoritative write and the converging
// refreshes are the status selector's job.
func (s *Session) PatchStatus(id, newStatusID string) {
	s.mu.Lock()
	if p, ok := s.byID[id]; ok {
		p.CurrentStatus = newStatusID
	}
	if s.current != nil && s.current.ID == id {
		s.current.CurrentStatus = newStatusID
	}
	s.mu.Unlock()

	s.bus.Publish(Event{Type: EventStatusChanged, ProjectID: id, StatusID: newStatusID})
}
