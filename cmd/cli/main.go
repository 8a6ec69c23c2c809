// devflow-admin is the operator CLI: legacy status migration, project
// inspection and status changes against the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/albertomtferreira/devflow/internal/cache"
	"github.com/albertomtferreira/devflow/internal/config"
	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/project"
	"github.com/albertomtferreira/devflow/internal/status"
	"github.com/albertomtferreira/devflow/internal/store"
	"github.com/albertomtferreira/devflow/internal/store/pgstore"
	"github.com/albertomtferreira/devflow/pkg/logger"
)

type services struct {
	catalog  *status.Catalog
	statuses *status.Service
	projects *project.Service
	close    func()
}

func newServices(ctx context.Context) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("no database configured (set DEVFLOW_DATABASE_HOST)")
	}

	logger.Init(logger.Config{Level: "WARN", Format: "text"})
	log := logger.Get()

	pg, err := pgstore.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := pg.SetSchema(store.ProjectsCollection, store.ProjectsSchema); err != nil {
		pg.Close()
		return nil, err
	}

	catalog := status.NewCatalog()
	if cfg.Templates.PackFile != "" {
		if err := catalog.LoadPack(cfg.Templates.PackFile); err != nil {
			pg.Close()
			return nil, err
		}
	}

	return &services{
		catalog:  catalog,
		statuses: status.NewService(pg, log),
		projects: project.NewService(pg, catalog, log),
		close:    pg.Close,
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "devflow-admin",
		Short:         "devflow operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd(), projectsCmd(), statusCmd(), templatesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade legacy status documents to custom workflows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs, err := newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svcs.close()

			migrated, err := svcs.projects.MigrateAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("migrated %d project(s)\n", migrated)
			return nil
		},
	}
}

func projectsCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List a user's projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs, err := newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svcs.close()

			// Go through the session cache so the listing shows the
			// same normalized view the dashboard sees.
			session := cache.NewSession(svcs.projects, userID, nil, nil)
			if err := session.Load(cmd.Context()); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tSTATUSES")
			for _, p := range session.Projects() {
				current := "-"
				if st := models.StatusByID(p.CustomStatuses, p.CurrentStatus); st != nil {
					current = st.Label
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Title, current, len(p.CustomStatuses))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func statusCmd() *cobra.Command {
	var userID, projectID, statusID string

	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Change a project's current status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs, err := newServices(cmd.Context())
			if err != nil {
				return err
			}
			defer svcs.close()

			session := cache.NewSession(svcs.projects, userID, nil, nil)
			if err := session.Load(cmd.Context()); err != nil {
				return err
			}

			selector := cache.NewSelector(svcs.statuses, session)
			if err := selector.ChangeStatus(cmd.Context(), projectID, statusID); err != nil {
				return err
			}

			p := session.Project(projectID)
			if p != nil {
				if st := models.StatusByID(p.CustomStatuses, p.CurrentStatus); st != nil {
					fmt.Printf("project %s is now %q\n", projectID, st.Label)
					return nil
				}
			}
			fmt.Printf("project %s status set to %s\n", projectID, statusID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&statusID, "status", "", "status id to make current")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the status template catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := status.NewCatalog()
			cfg, err := config.Load()
			if err == nil && cfg.Templates.PackFile != "" {
				if err := catalog.LoadPack(cfg.Templates.PackFile); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUSES")
			for _, t := range catalog.Templates() {
				fmt.Fprintf(w, "%s\t%s\t%d\n", t.ID, t.Name, len(t.Statuses))
			}
			return w.Flush()
		},
	}
}
