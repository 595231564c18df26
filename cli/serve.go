// ABOUTME: Web form and TUI subcommands
// ABOUTME: Serve runs the web server and, with --watch, reloads the member table on change
package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/contatos/table"
	"github.com/harperreed/contatos/tui"
	"github.com/harperreed/contatos/web"
)

const reloadDebounce = 500 * time.Millisecond

// ServeCommand starts the web form.
func ServeCommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", env.Config.Listen, "Listen address")
	watch := fs.Bool("watch", false, "Reload the member table when the file changes")
	_ = fs.Parse(args)

	// The form reports a missing table; a watched file can still appear later.
	if err := env.LoadMembers(ctx); err != nil {
		env.Logger().Warn().Err(err).Msg("member table not loaded")
	}

	var path string
	if *watch {
		var err error
		if path, err = env.MemberFile(); err != nil {
			return fmt.Errorf("--watch needs a member file: %w", err)
		}
	}

	srv, err := web.NewServer(env.Session, env.Config)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, *listen)
	})

	if *watch {
		g.Go(func() error {
			return table.Watch(ctx, path, reloadDebounce, func() {
				if _, err := env.Session.Load(ctx, path); err != nil {
					env.Logger().Warn().Err(err).Str("file", path).Msg("reload failed, keeping previous table")
					return
				}
				env.Logger().Info().Str("file", path).Msg("member table reloaded")
			})
		})
	}

	_, _ = fmt.Fprintf(env.Out, "Serving correction form on %s\n", *listen)
	return g.Wait()
}

// TUICommand starts the interactive terminal form.
func TUICommand(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	_ = fs.Parse(args)

	// The first screen shows why the table is missing.
	if err := env.LoadMembers(ctx); err != nil {
		env.Logger().Debug().Err(err).Msg("member table not loaded")
	}

	return tui.Run(ctx, env.Session, env.Config)
}
