package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/riskibarqy/afl-match-model/internal/app"
	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

var logger = logging.New(logging.Options{Level: logging.LevelInfo, Fields: []any{"job", "migration"}})

type command struct {
	usage string
	run   func(m *migrate.Migrate, args []string) error
}

var commands = map[string]command{
	"up":      {usage: "up", run: runUp},
	"down":    {usage: "down [steps]", run: runDown},
	"version": {usage: "version", run: runVersion},
	"force":   {usage: "force <version>", run: runForce},
	"goto":    {usage: "goto <version>", run: runGoto},
}

var defaultMigrationDirs = []string{"./db/migrations", "/app/db/migrations"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(os.Args[1]))]
	if !ok {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load config", "error", err)
	}
	if cfg.DBURL == "" {
		fatal("DB_URL is required")
	}

	migrationsDir, err := resolveMigrationsDir(os.Getenv("MIGRATIONS_DIR"), defaultMigrationDirs)
	if err != nil {
		fatal("resolve migrations dir", "error", err)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, app.DatabaseURL(cfg))
	if err != nil {
		fatal("create migrator", "error", err)
	}
	m.Log = migrateLogger{}

	runErr := cmd.run(m, os.Args[2:])
	closeMigrator(m)
	if runErr != nil {
		fatal("migration failed", "command", os.Args[1], "source", sourceURL, "error", runErr)
	}
	_ = logger.Sync()
}

func runUp(m *migrate.Migrate, _ []string) error {
	if err := ignoreNoChange(m.Up()); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func runDown(m *migrate.Migrate, args []string) error {
	steps, err := parseSteps(args)
	if err != nil {
		return err
	}
	if err := ignoreNoChange(m.Steps(-steps)); err != nil {
		return err
	}
	logger.Info("migrations rolled back", "steps", steps)
	return nil
}

func runVersion(m *migrate.Migrate, _ []string) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("version: none")
		fmt.Println("dirty: false")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}

func runForce(m *migrate.Migrate, args []string) error {
	version, err := parseVersion(args)
	if err != nil {
		return err
	}
	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	logger.Info("forced version", "version", version)
	return nil
}

func runGoto(m *migrate.Migrate, args []string) error {
	version, err := parseVersion(args)
	if err != nil {
		return err
	}
	if err := ignoreNoChange(m.Migrate(version)); err != nil {
		return err
	}
	logger.Info("migrated", "version", version)
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}
	return steps, nil
}

// parseVersion bounds the version to what migrate.Force accepts as an int.
func parseVersion(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("a version argument is required")
	}
	value, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if value > uint64(^uint(0)>>1) {
		return 0, fmt.Errorf("version %d is too large for this platform", value)
	}
	return uint(value), nil
}

func resolveMigrationsDir(override string, fallbacks []string) (string, error) {
	candidates := append([]string{strings.TrimSpace(override)}, fallbacks...)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, %s)", strings.Join(fallbacks, ", "))
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}

func fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	_ = logger.Sync()
	os.Exit(1)
}

// migrateLogger routes golang-migrate progress output through zap.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (migrateLogger) Verbose() bool { return false }

func printUsage() {
	name := filepath.Base(os.Args[0])
	names := make([]string, 0, len(commands))
	for key := range commands {
		names = append(names, key)
	}
	sort.Strings(names)

	fmt.Fprintf(os.Stderr, "usage: %s <command> [args]\n", name)
	fmt.Fprintln(os.Stderr, "commands:")
	for _, key := range names {
		fmt.Fprintf(os.Stderr, "  %s %s\n", name, commands[key].usage)
	}
	fmt.Fprintf(os.Stderr, "example:\n  %s goto 20260301000004\n", name)
}
