// ABOUTME: Application configuration stored at XDG paths with environment overrides
// ABOUTME: Resolves the destination sheet, member file, credentials and server settings
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/logging"
	"github.com/harperreed/contatos/sheets"
	"github.com/harperreed/contatos/table"
)

// DefaultSheetURL is the correction requests spreadsheet used when nothing
// else is configured.
const DefaultSheetURL = "https://docs.google.com/spreadsheets/d/1tWyQQow2jhP50hSLSc00CvzfWVubpcd48MUeVvWTa_s/edit?gid=0"

// DefaultMemberFiles are looked up, in order, in the working directory.
var DefaultMemberFiles = []string{
	"FILIADOSDADOS.CSV",
	"FILIADOSDADOS.csv",
	"FILADOSDADOS.CSV",
	"FILADOSDADOS.csv",
	"filiaDOSdados.csv",
	"filiaDOSdados.CSV",
}

// DefaultSetoriais are the sector choices offered with a correction.
var DefaultSetoriais = []string{"Cultura", "Agrário"}

// Config holds everything needed to look up members and submit corrections.
type Config struct {
	SheetURL           string   `json:"sheet_url"`
	MemberFile         string   `json:"member_file,omitempty"`
	MemberCandidates   []string `json:"member_candidates,omitempty"`
	CredentialsPath    string   `json:"credentials_path,omitempty"`
	ServiceAccountJSON string   `json:"service_account_json,omitempty"`
	AliasesPath        string   `json:"aliases_path,omitempty"`
	DBPath             string   `json:"db_path,omitempty"`
	Listen             string   `json:"listen"`
	Setoriais          []string `json:"setoriais"`
	LogLevel           string   `json:"log_level,omitempty"`
	LogFormat          string   `json:"log_format,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SheetURL:         DefaultSheetURL,
		MemberCandidates: append([]string(nil), DefaultMemberFiles...),
		DBPath:           db.DefaultPath(),
		Listen:           ":8080",
		Setoriais:        append([]string(nil), DefaultSetoriais...),
		LogLevel:         "info",
		LogFormat:        "auto",
	}
}

// Path returns the XDG-compliant config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "contatos", "config.json")
}

// Load reads the config file at path, or Path() when path is empty. A
// missing file yields the defaults. Values from .env files and the
// environment override the file:
// - CONTATOS_SHEET_URL
// - CONTATOS_MEMBER_FILE
// - CONTATOS_CREDENTIALS
// - CONTATOS_SERVICE_ACCOUNT_JSON
// - CONTATOS_ALIASES
// - CONTATOS_DB_PATH
// - CONTATOS_LISTEN
// - CONTATOS_SETORIAIS (comma-separated)
// - LOG_LEVEL, LOG_FORMAT.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	loadEnvFiles()
	applyEnvOverrides(cfg)

	if cfg.SheetURL == "" {
		cfg.SheetURL = DefaultSheetURL
	}
	if len(cfg.MemberCandidates) == 0 {
		cfg.MemberCandidates = append([]string(nil), DefaultMemberFiles...)
	}
	if len(cfg.Setoriais) == 0 {
		cfg.Setoriais = append([]string(nil), DefaultSetoriais...)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = db.DefaultPath()
	}

	return cfg, nil
}

// loadEnvFiles loads .env then .env.local; neither overrides variables
// already present in the environment.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONTATOS_SHEET_URL"); v != "" {
		cfg.SheetURL = v
	}
	if v := os.Getenv("CONTATOS_MEMBER_FILE"); v != "" {
		cfg.MemberFile = v
	}
	if v := os.Getenv("CONTATOS_CREDENTIALS"); v != "" {
		cfg.CredentialsPath = v
	}
	if v := os.Getenv("CONTATOS_SERVICE_ACCOUNT_JSON"); v != "" {
		cfg.ServiceAccountJSON = v
	}
	if v := os.Getenv("CONTATOS_ALIASES"); v != "" {
		cfg.AliasesPath = v
	}
	if v := os.Getenv("CONTATOS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CONTATOS_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("CONTATOS_SETORIAIS"); v != "" {
		cfg.Setoriais = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes cfg to path, or Path() when path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file with restricted permissions
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ResolveMemberFile returns the configured member file, or the first
// default candidate found in dir.
func (c *Config) ResolveMemberFile(dir string) (string, error) {
	if c.MemberFile != "" {
		return c.MemberFile, nil
	}
	path, err := table.Discover(dir, c.MemberCandidates)
	if err != nil {
		return "", fmt.Errorf("no member file configured: %w", err)
	}
	return path, nil
}

// Setorial returns the configured spelling of s, matched case-insensitively.
func (c *Config) Setorial(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, opt := range c.Setoriais {
		if strings.EqualFold(opt, s) {
			return opt, true
		}
	}
	return "", false
}

// CredentialSources returns where to look for the service account key.
func (c *Config) CredentialSources(workDir string) sheets.CredentialSources {
	return sheets.CredentialSources{
		InlineJSON: c.ServiceAccountJSON,
		Path:       c.CredentialsPath,
		WorkDir:    workDir,
	}
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	lc := logging.DefaultConfig()
	if c.LogLevel != "" {
		lc.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		lc.Format = c.LogFormat
	}
	return lc
}
