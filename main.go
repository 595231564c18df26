// ABOUTME: Entry point for the contatos CLI, web form, TUI and MCP server
// ABOUTME: Parses global flags and routes to the command handlers
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/contatos/cli"
)

const version = "0.2.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/contatos/config.json)")
	members := flag.String("members", "", "Member table (CSV or XLSX)")
	sheetURL := flag.String("sheet-url", "", "Destination spreadsheet URL")
	dbPath := flag.String("db-path", "", "Submission journal path (default: ~/.local/share/contatos/contatos.db)")
	dryRun := flag.Bool("dry-run", false, "Write to an in-memory spreadsheet instead of Google Sheets")

	flag.Usage = printUsage
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("contatos version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	commands := map[string]func(context.Context, *cli.Env, []string) error{
		"init":    cli.InitCommand,
		"lookup":  cli.LookupCommand,
		"submit":  cli.SubmitCommand,
		"pending": cli.PendingCommand,
		"retry":   cli.RetryCommand,
		"target":  cli.TargetCommand,
		"status":  cli.StatusCommand,
		"serve":   cli.ServeCommand,
		"tui":     cli.TUICommand,
		"mcp": func(ctx context.Context, env *cli.Env, _ []string) error {
			return cli.MCPCommand(ctx, env, version)
		},
	}

	run, ok := commands[command]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := cli.Options{
		ConfigPath: *configPath,
		MemberFile: *members,
		SheetURL:   *sheetURL,
		DBPath:     *dbPath,
		DryRun:     *dryRun,
	}
	if command == "tui" {
		// Log lines would draw over the full-screen interface.
		opts.LogOutput = "discard"
	}

	env, err := cli.Setup(ctx, opts)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	err = run(ctx, env, commandArgs)
	_ = env.Close()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`contatos v%s - Member contact correction requests

USAGE:
  contatos [global flags] <command> [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/contatos/config.json)
  --members <file>       Member table, CSV or XLSX (default: first of the
                         usual file names found in the current directory)
  --sheet-url <url>      Destination spreadsheet URL
  --db-path <path>       Submission journal (default: ~/.local/share/contatos/contatos.db)
  --dry-run              Use an in-memory spreadsheet; nothing leaves the machine

COMMANDS:
  contatos init [--credentials f] [--setoriais a,b] [--force]
                                        Write the config file from the current settings
  contatos lookup --date <date>         Show members born on a date
  contatos submit                       Submit a correction request
    --date <date>                         Birth date (required)
    --name <name>                         Member name when several share the date
    --phone <phone>                       New phone/WhatsApp
    --email <email>                       New email
    --setorial <setorial>                 Setorial (required)
  contatos pending [--status s]         List journaled submissions (default: unsent)
  contatos retry <id>                   Re-send a journaled submission
  contatos target                       Show the destination worksheet
  contatos status                       Show how the member table was read
  contatos serve [--listen :8080] [--watch]
                                        Start the web form
  contatos tui                          Start the interactive terminal form
  contatos mcp                          Start the MCP server on stdio

CONFIGURATION:
  Environment variables override the config file: CONTATOS_SHEET_URL,
  CONTATOS_MEMBER_FILE, CONTATOS_CREDENTIALS, CONTATOS_SERVICE_ACCOUNT_JSON,
  CONTATOS_ALIASES, CONTATOS_DB_PATH, CONTATOS_LISTEN, CONTATOS_SETORIAIS,
  LOG_LEVEL, LOG_FORMAT. A .env file in the current directory is read too.

  Credentials are a Google service account key, looked up in order:
  CONTATOS_SERVICE_ACCOUNT_JSON, CONTATOS_CREDENTIALS, ./service_account.json,
  GOOGLE_APPLICATION_CREDENTIALS. Share the spreadsheet with the service
  account's client_email as editor.
`, version)
}
