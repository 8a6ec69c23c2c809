package cache

import (
	"context"

	"github.com/albertomtferreira/devflow/internal/status"
)

// Selector is the quick status selector: the one operation that spans
// the status repository and the session cache. After the authoritative
// write it refreshes both the current project and the full list so
// every observer converges on the stored value.
type Selector struct {
	statuses *status.Service
	session  *Session
}

// NewSelector creates a Selector bound to one session.
func NewSelector(statuses *status.Service, session *Session) *Selector {
	return &Selector{statuses: statuses, session: session}
}

// ChangeStatus moves the project's current status to newStatusID.
// Selecting the already-current status is a no-op. Any status in the
// project's list is reachable from any other; workflows are
// user-defined, so there is no transition graph.
func (s *Selector) ChangeStatus(ctx context.Context, projectID, newStatusID string) error {
	if p := s.session.Project(projectID); p != nil && p.CurrentStatus == newStatusID {
		return nil
	}

	if err := s.statuses.SetCurrentStatus(ctx, projectID, s.session.ActorID(), newStatusID); err != nil {
		return err
	}

	// Optimistic local patch for immediate feedback, then converge on
	// the authoritative document.
	s.session.PatchStatus(projectID, newStatusID)
	if err := s.session.RefreshCurrentProject(ctx, projectID); err != nil {
		return err
	}
	return s.session.RefreshProjects(ctx)
}
