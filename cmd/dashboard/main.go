package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"contentpilot/internal/api"
	"contentpilot/internal/config"
	"contentpilot/internal/credentials"
	"contentpilot/internal/jobs"
	"contentpilot/internal/platform/logging"
	"contentpilot/internal/session"
)

// app holds the wired-up services every command works against.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	session *session.Store
	client  *api.Client
	engine  *jobs.Engine
}

func newApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(cfg.LogLevel)
	creds := credentials.NewStore(cfg.StateDir, cfg.SecureTransport())
	sess := session.NewStore(creds, logger)
	client := api.NewClient(sess.Token,
		api.WithBaseURL(cfg.APIBaseURL),
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	engine := jobs.NewEngine(client, sess.Token, logger, jobs.WithPollInterval(cfg.PollInterval))

	// Restore the persisted session before any command runs. Commands
	// observe either the restored session or a clean signed-out state,
	// never a half-loaded one.
	sess.Hydrate(ctx)
	if err := sess.AwaitHydration(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		session: sess,
		client:  client,
		engine:  engine,
	}, nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
}

// requireAuth fails fast when no session is signed in.
func (a *app) requireAuth() error {
	if state := a.session.State(); !state.IsAuthenticated {
		return fmt.Errorf("not signed in; run `contentpilot login` first")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "contentpilot",
		Short:         "Terminal dashboard for the ContentPilot video pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var a *app
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		a, err = newApp(cmd.Context())
		return err
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a != nil {
			a.close()
		}
	}

	root.AddCommand(
		newLoginCommand(&a),
		newSignupCommand(&a),
		newLogoutCommand(&a),
		newWhoamiCommand(&a),
		newOnboardingCommand(&a),
		newTemplatesCommand(&a),
		newJobsCommand(&a),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
