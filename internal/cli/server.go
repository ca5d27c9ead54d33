package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduhub-course-service/internal/app"
	"eduhub-course-service/internal/config"
	"eduhub-course-service/internal/content"
	"eduhub-course-service/internal/infra/ai"
	"eduhub-course-service/internal/infra/memory"
	"eduhub-course-service/internal/logger"
	transport "eduhub-course-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the course server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Development)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	defaults, err := content.DefaultCourses()
	if err != nil {
		return err
	}
	catalog := app.NewCatalogService(st.catalog, defaults, log)
	issuer := app.NewCertificateIssuer(st.kv, log)
	service := app.NewProgressService(catalog, memory.NewEngineStore(), app.NewProgressStore(st.kv, log), issuer)

	var generator *app.CourseGenerator
	if cfg.AI.APIKey != "" {
		timeout := config.TTLDuration(cfg.AI.Timeout, 60*time.Second)
		writer := ai.NewChatClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, timeout)
		generator = app.NewCourseGenerator(writer, catalog, log)
	} else {
		log.Info().Msg("ai api key not set, course generation disabled")
	}

	api := transport.NewCourseHandler(catalog, service, generator, log)
	ws := transport.NewWSHandler(service, cfg.Server.AllowedOrigins, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(api, ws, cfg.Server.AllowedOrigins, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting course service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
