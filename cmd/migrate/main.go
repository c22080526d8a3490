package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/wedplan-backend/pkg/bootstrap"
	"github.com/angelmondragon/wedplan-backend/pkg/db"
	"github.com/angelmondragon/wedplan-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|up-by-one|down|redo|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory; empty uses the embedded set")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	// create and validate work on files only and need no config.
	if out, handled, err := offline(opts); handled {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(out)
		return
	}

	ctx := context.Background()
	proc := bootstrap.Start(ctx, "migrate")
	cfg, logg := proc.Config, proc.Logger
	if cfg.FeatureFlags.UseSQLite {
		proc.Must(ctx, "database", errors.New("goose migrations target postgres; sqlite uses the dev schema"))
	}

	client, err := db.New(ctx, cfg.DB, logg)
	proc.Must(ctx, "database", err)
	proc.OnClose("database", client.Close)

	sqlDB, err := client.DB().DB()
	proc.Must(ctx, "sql database", err)

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": opts.cmd, "dir": opts.dir})
	if err := online(opts, func(target int64) error {
		src := migrate.Source{Dir: opts.dir}
		if target > 0 {
			return migrate.MigrateToVersion(ctx, sqlDB, src, target)
		}
		return migrate.Run(ctx, sqlDB, src, opts.cmd)
	}); err != nil {
		logg.Error(ctx, "migration failed", err)
		proc.Fail(ctx)
		return
	}
	logg.Info(ctx, "migration finished")
	proc.Close(ctx)
}

// offline runs the commands that only touch migration files.
func offline(opts options) (string, bool, error) {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return "", true, errors.New("-name is required for create")
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name)
		if err != nil {
			return "", true, fmt.Errorf("create migration: %w", err)
		}
		return "created " + path, true, nil
	case "validate":
		var err error
		if opts.dir == "" {
			err = migrate.ValidateEmbedded()
		} else {
			err = migrate.ValidateDir(opts.dir)
		}
		if err != nil {
			return "", true, fmt.Errorf("validate migrations: %w", err)
		}
		return "migrations valid", true, nil
	}
	return "", false, nil
}

// online dispatches the database commands. apply receives a target version
// for -cmd=version and zero for the plain goose commands.
func online(opts options, apply func(target int64) error) error {
	switch opts.cmd {
	case "up", "up-by-one", "down", "redo", "status":
		return apply(0)
	case "version":
		target, err := migrate.ParseVersion(opts.version)
		if err != nil {
			return err
		}
		return apply(target)
	}
	return fmt.Errorf("unknown -cmd %q", opts.cmd)
}
