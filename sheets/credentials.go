// ABOUTME: Service account credential discovery for the Sheets client
// ABOUTME: Tries inline JSON, a configured path, the working directory, then GOOGLE_APPLICATION_CREDENTIALS
package sheets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/harperreed/contatos/logging"
)

// DefaultCredentialsFile is looked up in the working directory.
const DefaultCredentialsFile = "service_account.json"

// Scopes requested for the service account.
var Scopes = []string{sheetsapi.SpreadsheetsScope, sheetsapi.DriveScope}

// Credentials is a parsed service account key.
type Credentials struct {
	Config      *jwt.Config
	ClientEmail string
	// Source describes where the key was found, for diagnostics.
	Source string
}

// CredentialSources lists where to look for a service account key.
type CredentialSources struct {
	InlineJSON string
	Path       string
	WorkDir    string
}

// ParseCredentials builds the JWT config from a service account JSON key.
// Other key types (authorized_user, external_account) are rejected.
func ParseCredentials(data []byte, source string) (*Credentials, error) {
	conf, err := google.JWTConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials from %s: %w", source, err)
	}
	if conf.Email == "" || len(conf.PrivateKey) == 0 {
		return nil, fmt.Errorf("credentials from %s are missing client_email or private_key", source)
	}

	return &Credentials{
		Config:      conf,
		ClientEmail: conf.Email,
		Source:      source,
	}, nil
}

// LoadCredentials returns the first usable key. Candidates that exist but
// cannot be read or parsed are logged and skipped.
func LoadCredentials(ctx context.Context, src CredentialSources) (*Credentials, error) {
	logger := logging.FromContext(ctx)

	if inline := strings.TrimSpace(src.InlineJSON); inline != "" {
		creds, err := ParseCredentials([]byte(inline), "inline JSON")
		if err == nil {
			return creds, nil
		}
		logger.Warn().Err(err).Msg("ignoring inline service account JSON")
	}

	var paths []string
	if src.Path != "" {
		paths = append(paths, src.Path)
	}
	paths = append(paths, filepath.Join(src.WorkDir, DefaultCredentialsFile))
	if env := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); env != "" {
		paths = append(paths, env)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("path", path).Msg("cannot read service account file")
			}
			continue
		}
		creds, err := ParseCredentials(data, path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("ignoring service account file")
			continue
		}
		return creds, nil
	}

	return nil, fmt.Errorf("%w: tried %s", ErrNoCredentials, strings.Join(paths, ", "))
}
