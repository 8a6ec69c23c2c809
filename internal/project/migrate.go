package project

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/store"
)

// normalizeStatuses is the legacy migration adapter, run transparently
// on the project read path. In priority order: a project that already
// has custom statuses is left alone; a legacy enum status is upgraded
// to a single-entry list; a project with neither gets the "simple"
// template. Re-running against a migrated document is a no-op.
//
// When persist is set, the synthesized fields are written back to the
// document; a failed write-back is logged and swallowed so read-only
// callers still get the migrated aggregate.
func (s *Service) normalizeStatuses(ctx context.Context, p *models.Project, persist bool) error {
	if len(p.CustomStatuses) > 0 {
		return nil
	}

	if p.LegacyStatus != "" {
		p.CustomStatuses = migrateLegacyStatus(p.LegacyStatus)
	} else {
		statuses, err := s.catalog.Instantiate("simple")
		if err != nil {
			return fmt.Errorf("instantiate default template: %w", err)
		}
		p.CustomStatuses = statuses
	}
	p.CurrentStatus = models.DefaultStatus(p.CustomStatuses).ID

	if persist {
		err := s.store.Update(ctx, store.ProjectsCollection, p.ID, store.Fields{
			"customStatuses": p.CustomStatuses,
			"currentStatus":  p.CurrentStatus,
			"updatedAt":      store.ServerTimestamp,
		})
		if err != nil {
			s.log.Warn("status migration write-back failed",
				slog.String("project_id", p.ID), slog.String("error", err.Error()))
		}
	}
	return nil
}

// migrateLegacyStatus maps one legacy enum value to a single-entry
// custom status list. The id is deterministic ("legacy-<value>") so a
// concurrent double migration converges on the same reference.
func migrateLegacyStatus(legacy models.LegacyStatus) []models.ProjectStatus {
	mapped := legacy.Mapping()
	return []models.ProjectStatus{
		{
			ID:          fmt.Sprintf("legacy-%s", legacy),
			Label:       mapped.Label,
			Color:       mapped.Color,
			Description: fmt.Sprintf("Migrated from legacy status: %s", legacy),
			Order:       0,
			IsDefault:   true,
			CreatedAt:   time.Now().UTC(),
		},
	}
}
