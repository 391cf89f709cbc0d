package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"compensa/internal"
	"compensa/internal/api"
	"compensa/internal/config"
	"compensa/internal/logging"
	"compensa/internal/pipeline"
	"compensa/internal/render"
	"compensa/internal/storage"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

type app struct {
	verbose bool

	cfg    config.Config
	log    *zap.Logger
	db     *storage.DB
	ws     *pipeline.Workspace
	term   render.Terminal
	domain string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "compensa",
		Short: "Environmental compensation calculator",
		Long: `compensa collects trees, vegetation patches and APP items, sends them to the
compensation API and shows the computed values per row and in total.

Rows are kept in a local database between commands, so a batch can be built
up with several "add" calls and then sent with "calc".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		a.addCmd(),
		a.removeCmd(),
		a.listCmd(),
		a.clearCmd(),
		a.calcCmd(),
		a.importCmd(),
		a.exportCmd(),
		a.historyCmd(),
		a.municipalitiesCmd(),
		a.statusCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Require("COMPENSA_API_BASE_URL", cfg.APIBaseURL); err != nil {
		return err
	}
	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return err
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}

	a.cfg = cfg
	a.log = logger
	a.db = db
	a.ws = pipeline.NewWorkspace(db, api.NewClient(cfg, logger), cfg, logger)
	a.term = render.Terminal{Color: cfg.Color}
	logger.Debug("workspace ready", zap.String("db", cfg.DBPath), zap.String("api", cfg.APIBaseURL))
	return nil
}

// run wraps a command body so the database and logger are released whether
// or not it fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// domainFlag registers the --domain flag shared by the table commands.
func (a *app) domainFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&a.domain, "domain", "d", string(internal.DomainIsolated), "isolated|patch|app")
}

func (a *app) parsedDomain() (internal.Domain, error) {
	return internal.ParseDomain(a.domain)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
