package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/logger"
	"github.com/linkcart/storefront-core/pkg/migrate"
)

const usage = `usage: migrate <command> [flags]

commands:
  up                 apply all pending migrations
  down               roll back the latest migration
  status             list migrations and their state
  to <version>       migrate up or down to a YYYYMMDDHHMMSS version
  create -name NAME  write a new SQL migration file
  validate           parse the migrations without a database

flags:
  -dir DIR           read migrations from DIR instead of the embedded set`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	dir := fs.String("dir", "", "migrations directory on disk")
	name := fs.String("name", "", "migration name (create)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch command {
	case "create":
		if *name == "" {
			return errors.New("-name is required")
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.Validate(migrate.Source(*dir)); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	case "up", "down", "status", "to":
	default:
		return fmt.Errorf("unknown command\n\n%s", usage)
	}

	var target int64
	if command == "to" {
		if fs.NArg() != 1 {
			return errors.New("expected exactly one version")
		}
		v, err := strconv.ParseInt(fs.Arg(0), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q", fs.Arg(0))
		}
		target = v
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "command": command})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	pool, err := client.DB().DB()
	if err != nil {
		return err
	}
	migrator, err := migrate.New(pool, migrate.Source(*dir), logg)
	if err != nil {
		return err
	}

	if command == "to" {
		return migrator.MigrateTo(ctx, target)
	}
	return migrator.Run(ctx, command)
}
