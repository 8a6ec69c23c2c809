package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/albertomtferreira/devflow/internal/apperrors"
	"github.com/albertomtferreira/devflow/internal/project"
	"github.com/albertomtferreira/devflow/internal/status"
	"github.com/albertomtferreira/devflow/internal/store"
)

func newTestSelector(t *testing.T) (*Selector, *Session, *testStore) {
	t.Helper()
	ts := &testStore{Store: store.NewMemory()}
	projects := project.NewService(ts, status.NewCatalog(), nil)
	statuses := status.NewService(ts, nil)
	session := NewSession(projects, "alice", nil, nil)
	return NewSelector(statuses, session), session, ts
}

func TestChangeStatus(t *testing.T) {
	selector, session, ts := newTestSelector(t)
	ctx := context.Background()

	created, err := session.CreateProject(ctx, project.NewProjectData{Title: "x"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	target := created.CustomStatuses[2].ID

	if err := selector.ChangeStatus(ctx, created.ID, target); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	// Both the store and every cached view converge on the new status.
	fields, _ := ts.Get(ctx, store.ProjectsCollection, created.ID)
	if fields["currentStatus"] != target {
		t.Errorf("stored currentStatus = %v, want %s", fields["currentStatus"], target)
	}
	if session.Project(created.ID).CurrentStatus != target {
		t.Error("cached list entry did not converge")
	}
	if session.CurrentProject().CurrentStatus != target {
		t.Error("current project did not converge")
	}
}

func TestChangeStatusSameIsNoOp(t *testing.T) {
	selector, session, ts := newTestSelector(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "x"})
	writesBefore := ts.updates

	if err := selector.ChangeStatus(ctx, created.ID, created.CurrentStatus); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if ts.updates != writesBefore {
		t.Errorf("no-op selection wrote to the store %d time(s)", ts.updates-writesBefore)
	}
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	selector, session, _ := newTestSelector(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "x"})

	err := selector.ChangeStatus(ctx, created.ID, "not-in-list")
	if !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	// The rejected write must not leave an optimistic patch behind.
	if session.Project(created.ID).CurrentStatus != created.CurrentStatus {
		t.Error("cache patched despite rejected write")
	}
}

func TestChangeStatusUncachedProject(t *testing.T) {
	selector, session, ts := newTestSelector(t)
	ctx := context.Background()

	// A project that exists in the store but was never loaded into the
	// session still gets the authoritative write.
	svc := project.NewService(ts, status.NewCatalog(), nil)
	id, err := svc.Add(ctx, project.NewProjectData{UserID: "alice", Title: "cold"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	p, _ := svc.Get(ctx, id, "alice")
	target := p.CustomStatuses[1].ID

	if err := selector.ChangeStatus(ctx, id, target); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	fields, _ := ts.Get(ctx, store.ProjectsCollection, id)
	if fields["currentStatus"] != target {
		t.Errorf("stored currentStatus = %v, want %s", fields["currentStatus"], target)
	}
	// The converging refreshes pull it into the session.
	if session.Project(id) == nil {
		t.Error("project not cached after the converging refresh")
	}
}
