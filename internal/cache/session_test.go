package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/albertomtferreira/devflow/internal/project"
	"github.com/albertomtferreira/devflow/internal/status"
	"github.com/albertomtferreira/devflow/internal/store"
)

// testStore wraps the in-memory store with switchable write failures
// and an update counter.
type testStore struct {
	store.Store
	addErr    error
	updateErr error
	deleteErr error
	updates   int
}

func (s *testStore) Add(ctx context.Context, collection string, fields store.Fields) (string, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	return s.Store.Add(ctx, collection, fields)
}

func (s *testStore) Update(ctx context.Context, collection, id string, fields store.Fields) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	return s.Store.Update(ctx, collection, id, fields)
}

func (s *testStore) Delete(ctx context.Context, collection, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, collection, id)
}

func newTestSession(t *testing.T) (*Session, *testStore) {
	t.Helper()
	ts := &testStore{Store: store.NewMemory()}
	svc := project.NewService(ts, status.NewCatalog(), nil)
	return NewSession(svc, "alice", nil, nil), ts
}

func TestSessionCreateProject(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	first, err := session.CreateProject(ctx, project.NewProjectData{Title: "First"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if first.UserID != "alice" {
		t.Errorf("UserID = %s, want the session actor", first.UserID)
	}
	if len(first.CustomStatuses) != 3 {
		t.Errorf("created project has %d statuses, want normalized 3", len(first.CustomStatuses))
	}

	second, err := session.CreateProject(ctx, project.NewProjectData{Title: "Second"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	// Newest first, and the new project becomes current.
	projects := session.Projects()
	if len(projects) != 2 {
		t.Fatalf("cached %d projects, want 2", len(projects))
	}
	if projects[0].ID != second.ID || projects[1].ID != first.ID {
		t.Errorf("order = [%s %s], want newest first", projects[0].ID, projects[1].ID)
	}
	if current := session.CurrentProject(); current == nil || current.ID != second.ID {
		t.Errorf("current = %v, want the just-created project", current)
	}
}

func TestSessionCreateFailureLeavesCache(t *testing.T) {
	session, ts := newTestSession(t)
	ctx := context.Background()

	if _, err := session.CreateProject(ctx, project.NewProjectData{Title: "Kept"}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	ts.addErr = errors.New("store down")
	if _, err := session.CreateProject(ctx, project.NewProjectData{Title: "Lost"}); err == nil {
		t.Fatal("CreateProject should have failed")
	}

	projects := session.Projects()
	if len(projects) != 1 || projects[0].Title != "Kept" {
		t.Errorf("cache changed by failed create: %+v", projects)
	}
}

func TestSessionUpdateProject(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Before"})

	title := "After"
	updated, err := session.UpdateProject(ctx, created.ID, project.Patch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if updated.Title != "After" {
		t.Errorf("Title = %s, want After", updated.Title)
	}
	if session.Project(created.ID).Title != "After" {
		t.Error("cached list entry not replaced")
	}
	if session.CurrentProject().Title != "After" {
		t.Error("current project not replaced")
	}
}

func TestSessionUpdateFailureLeavesCache(t *testing.T) {
	session, ts := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Before"})

	ts.updateErr = errors.New("store down")
	title := "After"
	if _, err := session.UpdateProject(ctx, created.ID, project.Patch{Title: &title}); err == nil {
		t.Fatal("UpdateProject should have failed")
	}

	if session.Project(created.ID).Title != "Before" {
		t.Error("cache changed by failed update")
	}
}

func TestSessionDeleteProject(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Doomed"})

	if err := session.DeleteProject(ctx, created.ID, created.Title); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if len(session.Projects()) != 0 {
		t.Error("deleted project still cached")
	}
	if session.CurrentProject() != nil {
		t.Error("current project not cleared by deletion")
	}
}

func TestSessionDeleteFailureLeavesCache(t *testing.T) {
	session, ts := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Kept"})

	ts.deleteErr = errors.New("store down")
	if err := session.DeleteProject(ctx, created.ID, created.Title); err == nil {
		t.Fatal("DeleteProject should have failed")
	}
	if session.Project(created.ID) == nil {
		t.Error("cache dropped the entry despite the failed delete")
	}
}

func TestSessionRefreshProjectsReplacesWholesale(t *testing.T) {
	session, ts := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Mine"})

	// A write that bypasses the session: visible only after a refresh.
	svc := project.NewService(ts, status.NewCatalog(), nil)
	outsideID, err := svc.Add(ctx, project.NewProjectData{UserID: "alice", Title: "Outside"})
	if err != nil {
		t.Fatalf("outside Add: %v", err)
	}

	if session.Project(outsideID) != nil {
		t.Fatal("outside write visible before refresh")
	}
	if err := session.RefreshProjects(ctx); err != nil {
		t.Fatalf("RefreshProjects: %v", err)
	}
	if session.Project(outsideID) == nil {
		t.Error("outside write still invisible after refresh")
	}
	if session.Project(created.ID) == nil {
		t.Error("refresh dropped a still-existing project")
	}
	// The current pointer is reconciled separately, not by list refresh.
	if current := session.CurrentProject(); current == nil || current.ID != created.ID {
		t.Errorf("current = %v, want untouched %s", current, created.ID)
	}
}

func TestSessionRefreshCurrentProject(t *testing.T) {
	session, ts := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Before"})

	svc := project.NewService(ts, status.NewCatalog(), nil)
	title := "Renamed"
	if err := svc.Update(ctx, created.ID, "alice", project.Patch{Title: &title}); err != nil {
		t.Fatalf("outside Update: %v", err)
	}

	if err := session.RefreshCurrentProject(ctx, created.ID); err != nil {
		t.Fatalf("RefreshCurrentProject: %v", err)
	}
	if session.CurrentProject().Title != "Renamed" {
		t.Error("current project not reconciled")
	}
	if session.Project(created.ID).Title != "Renamed" {
		t.Error("list entry not patched alongside the current project")
	}
}

func TestSessionPatchStatusIsLocalOnly(t *testing.T) {
	session, ts := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "x"})
	target := created.CustomStatuses[1].ID
	writesBefore := ts.updates

	session.PatchStatus(created.ID, target)

	if session.Project(created.ID).CurrentStatus != target {
		t.Error("cached entry not patched")
	}
	if session.CurrentProject().CurrentStatus != target {
		t.Error("current project not patched")
	}
	if ts.updates != writesBefore {
		t.Error("optimistic patch reached the store")
	}

	fields, _ := ts.Get(ctx, store.ProjectsCollection, created.ID)
	if fields["currentStatus"] == target {
		t.Error("stored document changed by a local-only patch")
	}
}

func TestSessionClonesOut(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	created, _ := session.CreateProject(ctx, project.NewProjectData{Title: "Original"})

	leaked := session.Project(created.ID)
	leaked.Title = "Mutated"
	leaked.CustomStatuses[0].Label = "Mutated"

	fresh := session.Project(created.ID)
	if fresh.Title != "Original" || fresh.CustomStatuses[0].Label == "Mutated" {
		t.Error("cache state mutated through a returned clone")
	}
}

func TestSessionClear(t *testing.T) {
	session, _ := newTestSession(t)
	ctx := context.Background()

	_, _ = session.CreateProject(ctx, project.NewProjectData{Title: "x"})
	session.Clear()

	if len(session.Projects()) != 0 || session.CurrentProject() != nil {
		t.Error("Clear left state behind")
	}
}
