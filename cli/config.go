// ABOUTME: Config file CLI command
// ABOUTME: Writes the config file from the effective settings and command flags
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/harperreed/contatos/config"
)

// InitCommand writes the config file so later runs need no flags. The inline
// service account JSON is never written; point --credentials at a key file.
func InitCommand(_ context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	credentials := fs.String("credentials", "", "Path to the service account key")
	aliases := fs.String("aliases", "", "YAML file with column aliases")
	setoriais := fs.String("setoriais", "", "Comma-separated setorial choices")
	force := fs.Bool("force", false, "Overwrite an existing config file")
	_ = fs.Parse(args)

	path := env.configPath
	if path == "" {
		path = config.Path()
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	cfg.SheetURL = env.Config.SheetURL
	cfg.MemberFile = env.Config.MemberFile
	cfg.CredentialsPath = env.Config.CredentialsPath
	cfg.AliasesPath = env.Config.AliasesPath
	cfg.DBPath = env.Config.DBPath
	cfg.Listen = env.Config.Listen
	cfg.Setoriais = env.Config.Setoriais

	if *credentials != "" {
		cfg.CredentialsPath = *credentials
	}
	if *aliases != "" {
		cfg.AliasesPath = *aliases
	}
	if *setoriais != "" {
		var list []string
		for _, s := range strings.Split(*setoriais, ",") {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
		if len(list) == 0 {
			return fmt.Errorf("--setoriais needs at least one value")
		}
		cfg.Setoriais = list
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Out, "✓ Config written to %s\n", path)
	_, _ = fmt.Fprintf(env.Out, "  Sheet: %s\n", cfg.SheetURL)
	_, _ = fmt.Fprintf(env.Out, "  Setoriais: %s\n", strings.Join(cfg.Setoriais, ", "))
	if cfg.CredentialsPath == "" {
		_, _ = fmt.Fprintln(env.Out, "  No credentials path set; service_account.json in the working directory will be used")
	}
	return nil
}
