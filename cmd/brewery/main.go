// Command brewery manages the brewery database: it creates the schema,
// runs an SQL console, serves the HTTP inspection API and ships snapshots
// to object storage.
//
//	brewery [-config brewery.yaml] init
//	brewery [-config brewery.yaml] console
//	brewery [-config brewery.yaml] serve
//	brewery [-config brewery.yaml] tables
//	brewery [-config brewery.yaml] backup
//	brewery [-config brewery.yaml] backups
//	brewery [-config brewery.yaml] restore KEY|latest
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/brewery/internal/backup"
	"github.com/koustreak/brewery/internal/brewery"
	"github.com/koustreak/brewery/internal/config"
	"github.com/koustreak/brewery/internal/console"
	"github.com/koustreak/brewery/internal/database"
	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/filestore/minio"
	"github.com/koustreak/brewery/internal/logger"
	"github.com/koustreak/brewery/internal/schema"
	"github.com/koustreak/brewery/internal/server"
	"github.com/mattn/go-isatty"
)

const defaultConfigPath = "brewery.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "brewery:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: brewery [-config FILE] COMMAND

commands:
  init           create missing brewery tables
  console        interactive SQL prompt
  serve          HTTP inspection API
  tables         list tables with their row counts
  backup         upload a snapshot of the database
  backups        list uploaded snapshots
  restore KEY    replace the database file with snapshot KEY (or "latest")

flags:
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, configPath, command string, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log := logger.New(cfg.LoggerConfig(os.Stderr))
	logger.SetGlobal(log)
	log = log.Component("cli").With().Str("command", command).Logger()

	// restore replaces the file, so it must run with the database closed.
	if command == "restore" {
		if len(args) != 1 {
			return errs.New(errs.ErrKindInvalidInput, "restore needs a snapshot key or \"latest\"")
		}
		svc, err := backups(ctx, cfg)
		if err != nil {
			return err
		}
		return svc.Restore(ctx, args[0], cfg.Database.Path)
	}
	if command == "backups" {
		return listBackups(ctx, cfg)
	}

	sink := database.NewSink(logger.Global().Component("sink"))
	sink.SetColumnWidth(cfg.Database.ColumnWidth)

	conn, err := database.Open(ctx, cfg.DatabaseConfig(), sink)
	if err != nil {
		return err
	}
	defer conn.Close()

	switch command {
	case "init":
		if err := brewery.CreateSchema(conn); err != nil {
			return err
		}
		log.Infof("schema ready in %s", conn.Path())
		return nil

	case "console":
		c := console.New(conn, sink, os.Stdout)
		c.ShowPrompts(isTerminal(os.Stdin))
		return c.Run(ctx, os.Stdin)

	case "tables":
		return printTables(conn)

	case "serve":
		var opts []server.Option
		if cfg.Backup.Enabled() {
			svc, err := backups(ctx, cfg)
			if err != nil {
				return err
			}
			opts = append(opts, server.WithBackups(svc))
		}
		opts = append(opts, server.WithLogger(logger.Global()))
		return server.New(cfg.ServerConfig(), server.NewSession(conn), opts...).ListenAndServe(ctx)

	case "backup":
		svc, err := backups(ctx, cfg)
		if err != nil {
			return err
		}
		info, err := svc.Backup(ctx, conn)
		if err != nil {
			return err
		}
		fmt.Println(info.Key)
		_, err = svc.Prune(ctx)
		return err

	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown command %q", command)
	}
}

// loadConfig reads path, falling back to defaults when the default file is
// absent. An explicitly named file must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errs.IsNotFound(err) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}

func backups(ctx context.Context, cfg *config.Config) (*backup.Service, error) {
	if !cfg.Backup.Enabled() {
		return nil, errs.New(errs.ErrKindInvalidInput, "backup.endpoint is not configured")
	}
	store, err := minio.New(ctx, cfg.FilestoreConfig())
	if err != nil {
		return nil, err
	}
	return backup.New(store, cfg.BackupConfig(), logger.Global()), nil
}

func listBackups(ctx context.Context, cfg *config.Config) error {
	svc, err := backups(ctx, cfg)
	if err != nil {
		return err
	}
	list, err := svc.List(ctx)
	if err != nil {
		return err
	}
	for _, o := range list {
		fmt.Printf("%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printTables(conn *database.Connection) error {
	tables, err := schema.NewIntrospector(conn).ListTables("")
	if err != nil {
		return err
	}
	for _, t := range tables {
		n, err := conn.Size(t)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d\n", t, n)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
