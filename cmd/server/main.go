package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/albertomtferreira/devflow/internal/auth"
	"github.com/albertomtferreira/devflow/internal/config"
	"github.com/albertomtferreira/devflow/internal/handlers"
	"github.com/albertomtferreira/devflow/internal/middleware"
	"github.com/albertomtferreira/devflow/internal/models"
	"github.com/albertomtferreira/devflow/internal/project"
	"github.com/albertomtferreira/devflow/internal/status"
	"github.com/albertomtferreira/devflow/internal/store"
	"github.com/albertomtferreira/devflow/internal/store/pgstore"
	"github.com/albertomtferreira/devflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	log := logger.Get()

	ctx := context.Background()

	// Document store: Postgres when configured, in-memory otherwise.
	var docStore store.Store
	var closeStore func()
	if cfg.Database.Host != "" {
		pg, err := pgstore.New(ctx, cfg.Database)
		if err != nil {
			log.Error("failed to initialize database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := pg.SetSchema(store.ProjectsCollection, store.ProjectsSchema); err != nil {
			log.Error("failed to register projects schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		docStore = pg
		closeStore = pg.Close
	} else {
		log.Warn("no database configured, using in-memory store")
		mem := store.NewMemory()
		if err := mem.SetSchema(store.ProjectsCollection, store.ProjectsSchema); err != nil {
			log.Error("failed to register projects schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		docStore = mem
		closeStore = func() {}
	}
	defer closeStore()

	catalog := status.NewCatalog()
	if cfg.Templates.PackFile != "" {
		if err := catalog.LoadPack(cfg.Templates.PackFile); err != nil {
			log.Error("failed to load template pack", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	statusService := status.NewService(docStore, log)
	projectService := project.NewService(docStore, catalog, log)

	provider, err := loadSessions(cfg.Auth.SessionsFile)
	if err != nil {
		log.Error("failed to load sessions file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	projectHandler := handlers.NewProjectHandler(projectService)
	statusHandler := handlers.NewStatusHandler(statusService, catalog)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigin))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/status-templates", statusHandler.ListTemplates)

	projectsAPI := api.Group("/projects")
	projectsAPI.Use(middleware.AuthMiddleware(provider))
	projectsAPI.GET("", projectHandler.ListProjects)
	projectsAPI.POST("", projectHandler.CreateProject)
	projectsAPI.GET("/:id", projectHandler.GetProject)
	projectsAPI.PATCH("/:id", projectHandler.UpdateProject)
	projectsAPI.DELETE("/:id", projectHandler.DeleteProject)

	projectsAPI.GET("/:id/statuses", statusHandler.GetStatuses)
	projectsAPI.PUT("/:id/statuses", statusHandler.ReplaceStatuses)
	projectsAPI.POST("/:id/statuses", statusHandler.AddStatus)
	projectsAPI.PATCH("/:id/statuses/:statusId", statusHandler.UpdateStatus)
	projectsAPI.DELETE("/:id/statuses/:statusId", statusHandler.DeleteStatus)
	projectsAPI.PUT("/:id/status", statusHandler.SetCurrentStatus)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("devflow API server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// loadSessions builds the static identity provider from a JSON file of
// token -> user entries. An empty path yields a provider that rejects
// every token.
func loadSessions(path string) (*auth.StaticProvider, error) {
	provider := auth.NewStaticProvider()
	if path == "" {
		return provider, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sessions map[string]models.User
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, err
	}
	for token, u := range sessions {
		provider.Register(token, u)
	}
	return provider, nil
}
