package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/config"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/logger"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/infrastructure/migration"
	"github.com/Jarvisr88/AriesOne-SaaS-sub002/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// schemaMigrator is the subset of migration.Migrator the commands drive.
type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Status() (migration.Status, error)
	Force(version int) error
	Close() error
}

type session struct {
	log      *zap.Logger
	out      io.Writer
	source   fs.FS
	migrator schemaMigrator
}

type command struct {
	name    string
	args    string
	help    string
	needsDB bool
	run     func(s *session, args []string) error
}

var commands = []command{
	{name: "up", help: "Apply all pending migrations", needsDB: true,
		run: func(s *session, _ []string) error { return s.migrator.Up() }},
	{name: "down", help: "Roll back all migrations", needsDB: true,
		run: func(s *session, _ []string) error { return s.migrator.Down() }},
	{name: "step", args: "<n>", help: "Apply n migrations (positive=up, negative=down)", needsDB: true,
		run: func(s *session, args []string) error {
			n, err := intArg(args, "step count")
			if err != nil {
				return err
			}
			return s.migrator.Steps(n)
		}},
	{name: "status", help: "Show the schema version with applied and pending migrations", needsDB: true,
		run: runStatus},
	{name: "force", args: "<version>", help: "Force set migration version (-1 clears it)", needsDB: true,
		run: func(s *session, args []string) error {
			v, err := intArg(args, "version")
			if err != nil {
				return err
			}
			return s.migrator.Force(v)
		}},
	{name: "list", help: "List available migrations", run: runList},
}

// openMigrator connects to the configured database.
var openMigrator = func(source fs.FS, log *zap.Logger) (schemaMigrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	m, err := migration.New(db, source, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(out)
	path := flags.String("path", "", "Read migrations from a directory instead of the embedded schema")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.Usage = func() { printUsage(out, flags) }
	if err := flags.Parse(argv); err != nil {
		return err
	}

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		return errors.New("no command given")
	}
	cmd, ok := lookup(args[0])
	if !ok {
		flags.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync(log) }()

	s := &session{log: log, out: out, source: migrations.FS}
	if *path != "" {
		s.source = os.DirFS(*path)
	}

	if cmd.needsDB {
		m, err := openMigrator(s.source, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()
		s.migrator = m
	}

	return cmd.run(s, args[1:])
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func runList(s *session, _ []string) error {
	names, err := migration.ListMigrations(s.source)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No migrations found")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(s.out, "  -", name)
	}
	return nil
}

func runStatus(s *session, _ []string) error {
	st, err := s.migrator.Status()
	if err != nil {
		return err
	}
	if st.Version == 0 {
		fmt.Fprintln(s.out, "Version: none")
	} else {
		fmt.Fprintf(s.out, "Version: %d\n", st.Version)
	}
	if st.Dirty {
		fmt.Fprintln(s.out, "Dirty: yes (repair with force)")
	}
	fmt.Fprintf(s.out, "Applied: %d\n", len(st.Applied))
	fmt.Fprintf(s.out, "Pending: %d\n", len(st.Pending))
	for _, name := range st.Pending {
		fmt.Fprintln(s.out, "  -", name)
	}
	return nil
}

func printUsage(out io.Writer, flags *flag.FlagSet) {
	var b strings.Builder
	b.WriteString("DME billing schema migrations\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-22s%s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}
	b.WriteString("\nFlags:\n")
	fmt.Fprint(out, b.String())
	flags.PrintDefaults()
	fmt.Fprint(out, "\nDatabase settings are read from config.toml or DME_DATABASE_HOST, DME_DATABASE_PORT,\n"+
		"DME_DATABASE_USER, DME_DATABASE_PASSWORD, DME_DATABASE_DBNAME, DME_DATABASE_SSLMODE.\n")
}
