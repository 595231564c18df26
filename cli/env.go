// ABOUTME: Shared setup for CLI commands
// ABOUTME: Loads config, opens the journal, builds the sheet service and the session
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/harperreed/contatos/config"
	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/logging"
	"github.com/harperreed/contatos/roster"
	"github.com/harperreed/contatos/session"
	"github.com/harperreed/contatos/sheets"
)

// Options carries the global flags.
type Options struct {
	ConfigPath string
	MemberFile string
	SheetURL   string
	DBPath     string
	DryRun     bool
	// LogOutput overrides the configured log destination.
	LogOutput string
	// WorkDir is searched for the member file and service_account.json.
	WorkDir string
}

// Env is what every command runs against.
type Env struct {
	Config  *config.Config
	DB      *sql.DB
	Session *session.Session
	Service sheets.Service
	DryRun  bool
	Out     io.Writer

	configPath string
	workDir    string
}

// Setup builds an Env from the global flags.
func Setup(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.MemberFile != "" {
		cfg.MemberFile = opts.MemberFile
	}
	if opts.SheetURL != "" {
		cfg.SheetURL = opts.SheetURL
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	lc := cfg.Logging()
	if opts.LogOutput != "" {
		lc.Output = opts.LogOutput
	}
	logger := logging.Configure(lc)
	ctx = logging.WithLogger(ctx, &logger)

	aliases := roster.DefaultAliases()
	if cfg.AliasesPath != "" {
		if aliases, err = roster.LoadAliases(cfg.AliasesPath); err != nil {
			return nil, err
		}
	}

	// Lookups work without credentials; sheet operations report the error.
	svc, err := NewService(ctx, cfg, opts.DryRun, workDir)
	if err != nil {
		logger.Debug().Err(err).Msg("spreadsheet access unavailable")
		svc = unavailableService{err: err}
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &Env{
		Config: cfg,
		DB:     database,
		Session: session.New(session.Options{
			Service: svc,
			Aliases: aliases,
			Journal: database,
			Logger:  &logger,
		}),
		Service: svc,
		DryRun:  opts.DryRun,
		Out:     os.Stdout,

		configPath: opts.ConfigPath,
		workDir:    workDir,
	}, nil
}

// Close releases the journal.
func (e *Env) Close() error {
	if e.DB == nil {
		return nil
	}
	return e.DB.Close()
}

// Logger returns the session logger.
func (e *Env) Logger() *zerolog.Logger {
	return e.Session.Logger()
}

// MemberFile returns the member file the session should load.
func (e *Env) MemberFile() (string, error) {
	return e.Config.ResolveMemberFile(e.workDir)
}

// LoadMembers loads the member table into the session.
func (e *Env) LoadMembers(ctx context.Context) error {
	path, err := e.MemberFile()
	if err != nil {
		return err
	}

	if _, err := e.Session.Load(ctx, path); err != nil {
		return fmt.Errorf("failed to load member table: %w", err)
	}
	return nil
}

// NewService returns the Google Sheets client, or an in-memory spreadsheet
// shaped like the configured one when dryRun is set.
func NewService(ctx context.Context, cfg *config.Config, dryRun bool, workDir string) (sheets.Service, error) {
	if dryRun {
		return dryRunService(cfg.SheetURL), nil
	}

	creds, err := sheets.LoadCredentials(ctx, cfg.CredentialSources(workDir))
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewGoogleService(ctx, creds)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("client_email", creds.ClientEmail).
		Str("source", creds.Source).
		Msg("using service account")
	return svc, nil
}

func dryRunService(sheetURL string) *sheets.MemoryService {
	svc := sheets.NewMemoryService()

	loc, err := sheets.ParseURL(sheetURL)
	if err != nil {
		return svc
	}

	ws := sheets.Worksheet{Title: "dry-run", Index: 0}
	if loc.HasGID {
		ws.ID = loc.GID
	}
	svc.AddDocument(loc.DocumentID, "dry-run", ws)
	return svc
}

// unavailableService fails every call with the error that prevented
// building the real client.
type unavailableService struct {
	err error
}

func (u unavailableService) OpenDocument(context.Context, string) (*sheets.Document, error) {
	return nil, u.err
}

func (u unavailableService) ReadRow(context.Context, sheets.Worksheet, int) ([]string, error) {
	return nil, u.err
}

func (u unavailableService) WriteRow(context.Context, sheets.Worksheet, int, []string) error {
	return u.err
}

func (u unavailableService) AppendRow(context.Context, sheets.Worksheet, []string) error {
	return u.err
}
