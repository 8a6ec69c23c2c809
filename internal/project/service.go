// Package project implements the repository over the project
// aggregate: the document plus its embedded status workflow.
package project

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albertomtferreira/devflow/internal/apperrors"
	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/status"
	"github.com/albertomtferreira/devflow/internal/store"
)

// Service handles project CRUD against the document store, applying
// the legacy status migration on every read path.
type Service struct {
	store   store.Store
	catalog *status.Catalog
	log     *slog.Logger
}

// NewService creates a new project Service.
func NewService(st store.Store, catalog *status.Catalog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, catalog: catalog, log: log}
}

// NewProjectData carries the caller-supplied fields for project
// creation.
type NewProjectData struct {
	UserID           string   `json:"userId"`
	Title            string   `json:"title"`
	ShortDescription string   `json:"shortDescription"`
	LongDescription  string   `json:"longDescription"`
	TechStack        []string `json:"techStack"`
	Skills           []string `json:"skills"`
	LiveURL          string   `json:"liveUrl"`
	RepoURL          string   `json:"repoUrl"`
	Tags             []string `json:"tags"`
	StatusTemplate   string   `json:"statusTemplate"`
	CurrentStatus    string   `json:"currentStatus"`
}

// Patch carries partial updates to a project. Nil fields are left
// untouched; non-nil empty strings and arrays are applied as given.
type Patch struct {
	Title            *string   `json:"title,omitempty"`
	ShortDescription *string   `json:"shortDescription,omitempty"`
	LongDescription  *string   `json:"longDescription,omitempty"`
	LiveURL          *string   `json:"liveUrl,omitempty"`
	RepoURL          *string   `json:"repoUrl,omitempty"`
	TechStack        *[]string `json:"techStack,omitempty"`
	Skills           *[]string `json:"skills,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
	CurrentStatus    *string   `json:"currentStatus,omitempty"`
}

// Add creates a new project with a status workflow instantiated from
// the requested template ("simple" when none is given) and returns the
// new document id.
func (s *Service) Add(ctx context.Context, data NewProjectData) (string, error) {
	templateID := data.StatusTemplate
	if templateID == "" {
		templateID = "simple"
	}
	customStatuses, err := s.catalog.Instantiate(templateID)
	if err != nil {
		return "", err
	}

	// Use the requested current status when it names an entry of the
	// instantiated set; otherwise fall back to the set's default.
	currentStatus := models.DefaultStatus(customStatuses).ID
	if data.CurrentStatus != "" && models.StatusByID(customStatuses, data.CurrentStatus) != nil {
		currentStatus = data.CurrentStatus
	}

	id, err := s.store.Add(ctx, store.ProjectsCollection, store.Fields{
		"title":            data.Title,
		"shortDescription": data.ShortDescription,
		"longDescription":  data.LongDescription,
		"userId":           data.UserID,
		"role":             "Owner",
		"techStack":        orEmpty(data.TechStack),
		"skills":           orEmpty(data.Skills),
		"liveUrl":          data.LiveURL,
		"repoUrl":          data.RepoURL,
		"tags":             orEmpty(data.Tags),
		"customStatuses":   customStatuses,
		"currentStatus":    currentStatus,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("project created",
		slog.String("project_id", id), slog.String("user_id", data.UserID))
	return id, nil
}

// Get returns the normalized aggregate. Fails with ErrNotFound for a
// missing document and ErrAccessDenied for a foreign one; the legacy
// migration runs before the project is returned, with its result
// written back best-effort.
func (s *Service) Get(ctx context.Context, id, actorID string) (*models.Project, error) {
	fields, err := s.store.Get(ctx, store.ProjectsCollection, id)
	if err != nil {
		return nil, err
	}
	project, err := models.ProjectFromFields(id, fields)
	if err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	if project.UserID != actorID {
		return nil, fmt.Errorf("project %s: %w", id, apperrors.ErrAccessDenied)
	}

	if err := s.normalizeStatuses(ctx, project, true); err != nil {
		return nil, err
	}
	return project, nil
}

// Update applies only the fields present in patch and stamps an update
// timestamp. A patched current status is validated against the
// existing status list and silently discarded when it names no entry,
// matching the partial-update contract: the rest of the patch still
// lands.
func (s *Service) Update(ctx context.Context, id, actorID string, patch Patch) error {
	existing, err := s.Get(ctx, id, actorID)
	if err != nil {
		return err
	}

	fields := store.Fields{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.ShortDescription != nil {
		fields["shortDescription"] = *patch.ShortDescription
	}
	if patch.LongDescription != nil {
		fields["longDescription"] = *patch.LongDescription
	}
	if patch.LiveURL != nil {
		fields["liveUrl"] = *patch.LiveURL
	}
	if patch.RepoURL != nil {
		fields["repoUrl"] = *patch.RepoURL
	}
	if patch.TechStack != nil {
		fields["techStack"] = orEmpty(*patch.TechStack)
	}
	if patch.Skills != nil {
		fields["skills"] = orEmpty(*patch.Skills)
	}
	if patch.Tags != nil {
		fields["tags"] = orEmpty(*patch.Tags)
	}
	if patch.CurrentStatus != nil {
		if models.StatusByID(existing.CustomStatuses, *patch.CurrentStatus) != nil {
			fields["currentStatus"] = *patch.CurrentStatus
		}
	}
	fields["updatedAt"] = store.ServerTimestamp

	if err := s.store.Update(ctx, store.ProjectsCollection, id, fields); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete removes the aggregate document, statuses included. The title
// is only used as an audit attribute on the deletion log entry.
func (s *Service) Delete(ctx context.Context, id, actorID, title string) error {
	if _, err := s.Get(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.ProjectsCollection, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.log.Info("project deleted",
		slog.String("project_id", id),
		slog.String("user_id", actorID),
		slog.String("title", title))
	return nil
}

// ListByUser returns all of the actor's projects in the store's
// natural query order. Legacy documents are migrated in-memory only;
// the write-back happens on the next single-project Get, keeping the
// listing path read-only.
func (s *Service) ListByUser(ctx context.Context, actorID string) ([]*models.Project, error) {
	docs, err := s.store.QueryByField(ctx, store.ProjectsCollection, "userId", actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]*models.Project, 0, len(docs))
	for _, doc := range docs {
		p, err := models.ProjectFromFields(doc.ID, doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("decode project %s: %w", doc.ID, err)
		}
		if err := s.normalizeStatuses(ctx, p, false); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// MigrateAll force-runs the legacy migration with write-back over
// every project document. Admin tooling only.
func (s *Service) MigrateAll(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx, store.ProjectsCollection)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents: %w", err)
	}

	migrated := 0
	for _, doc := range docs {
		p, err := models.ProjectFromFields(doc.ID, doc.Fields)
		if err != nil {
			return migrated, fmt.Errorf("decode project %s: %w", doc.ID, err)
		}
		if len(p.CustomStatuses) > 0 {
			continue
		}
		if err := s.normalizeStatuses(ctx, p, true); err != nil {
			return migrated, err
		}
		migrated++
	}
	return migrated, nil
}

// orEmpty keeps persisted array fields as [] rather than null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
