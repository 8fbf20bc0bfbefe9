package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/sadopc/daybook/internal/config"
	"github.com/sadopc/daybook/internal/export"
	"github.com/sadopc/daybook/internal/migrate"
	"github.com/sadopc/daybook/internal/storage"
	"github.com/sadopc/daybook/internal/store"
	"github.com/sadopc/daybook/internal/tui"
)

func main() {
	cmd := "tui"
	var args []string
	if len(os.Args) > 1 {
		cmd = os.Args[1]
		args = os.Args[2:]
	}

	var err error
	switch cmd {
	case "tui":
		err = cmdTUI()
	case "migrate":
		err = cmdMigrate()
	case "purge-legacy":
		err = cmdPurge()
	case "export":
		err = cmdExport(args)
	case "import":
		err = cmdImport(args)
	case "status":
		err = cmdStatus()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: daybook [command] [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  tui                 Open the dashboard (default)")
	fmt.Println("  migrate             Move legacy keys into the unified store")
	fmt.Println("  purge-legacy        Delete archived legacy keys and the migration backup")
	fmt.Println("  export <file>       Write a .json backup or a .csv of tasks")
	fmt.Println("  import <file.json>  Replace all data with a JSON backup")
	fmt.Println("  status              Show storage, migration and record counts")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  DAYBOOK_CONFIG      Config file (default: ~/.config/daybook/config.yaml)")
	fmt.Println()
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend storage.Backend
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// setup loads config, builds the logger and opens the backend. logOut is
// used when no log file is configured.
func setup(logOut io.Writer) (*app, error) {
	path := os.Getenv("DAYBOOK_CONFIG")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, f.Close)
		logOut = f
	}
	a.logger = config.NewLogger(cfg.Logging, logOut)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		a.logger.Warn("memory storage selected, nothing will be persisted")
		a.backend = storage.NewMemory()
	default:
		dbPath := cfg.Storage.Path
		if dbPath == "" {
			if dbPath, err = storage.DefaultDBPath(); err != nil {
				return nil, err
			}
		}
		db, err := storage.OpenSQLite(dbPath, a.logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.backend = db
	}
	return a, nil
}

// openStore migrates legacy data if needed and loads the store.
func (a *app) openStore() (*store.Store, error) {
	if err := migrate.New(a.backend, migrate.WithLogger(a.logger)).Migrate(); err != nil {
		return nil, fmt.Errorf("migrate legacy data: %w", err)
	}
	return store.Open(a.backend, store.WithLogger(a.logger))
}

func cmdTUI() error {
	a, err := setup(io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.openStore()
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewApp(s, a.cfg, a.logger), tea.WithAltScreen())
	stop := tui.Listen(s, p.Send)
	defer stop()

	_, err = p.Run()
	return err
}

func cmdMigrate() error {
	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	e := migrate.New(a.backend, migrate.WithLogger(a.logger))
	if e.State() != migrate.NeedsMigration {
		cyan.Println("Nothing to migrate.")
		return nil
	}
	if err := e.Migrate(); err != nil {
		color.Yellow("Migration rolled back; your data is unchanged.\n")
		return err
	}

	r := e.Report()
	green.Println("Migration complete.")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  tasks\t%d\n", r.Tasks)
	fmt.Fprintf(w, "  fixed schedules\t%d\n", r.FixedSchedules)
	fmt.Fprintf(w, "  goals\t%d (%d steps)\n", r.Goals, r.SubGoals)
	fmt.Fprintf(w, "  habits\t%d (%d logs)\n", r.Habits, r.HabitLogs)
	fmt.Fprintf(w, "  skipped records\t%d\n", r.Skipped)
	fmt.Fprintf(w, "  archived keys\t%s\n", strings.Join(r.Archived, ", "))
	return w.Flush()
}

func cmdPurge() error {
	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := migrate.New(a.backend, migrate.WithLogger(a.logger)).Purge()
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		color.Cyan("No legacy archives found.\n")
		return nil
	}
	color.Green("Removed %d keys: %s\n", len(removed), strings.Join(removed, ", "))
	return nil
}

func cmdExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: daybook export <file.json|file.csv>")
	}
	path := args[0]

	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	s, err := a.openStore()
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := export.ToJSON(s.ExportData(), path); err != nil {
			return err
		}
		now := time.Now()
		if _, err := s.UpdateSettings(store.SettingsPatch{LastBackup: &now}); err != nil {
			return err
		}
	case ".csv":
		if err := export.TasksToCSV(s.Tasks(), s.Categories(), path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported export format %q (use .json or .csv)", filepath.Ext(path))
	}

	color.Green("Exported to %s\n", path)
	return nil
}

func cmdImport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: daybook import <file.json>")
	}

	d, err := export.FromJSON(args[0])
	if err != nil {
		return err
	}

	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	s, err := a.openStore()
	if err != nil {
		return err
	}
	if err := s.ImportData(d); err != nil {
		return err
	}

	color.Green("Imported %s\n", args[0])
	return printCounts(s.Stats())
}

func cmdStatus() error {
	a, err := setup(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	e := migrate.New(a.backend, migrate.WithLogger(a.logger))
	cyan.Print("Storage:   ")
	fmt.Println(a.cfg.Storage.Driver)
	cyan.Print("Migration: ")
	fmt.Println(e.State())
	if _, ok, _ := e.Backup(); ok {
		yellow.Println("A migration backup is present; run `daybook purge-legacy` once you are happy with the data.")
	}
	if e.State() == migrate.NeedsMigration {
		yellow.Println("Legacy data found; run `daybook migrate`.")
		return nil
	}

	s, err := store.Open(a.backend, store.WithLogger(a.logger))
	if err != nil {
		return err
	}
	return printCounts(s.Stats())
}

func printCounts(st store.Stats) error {
	cyan := color.New(color.FgCyan)
	cyan.Print("Schema:    ")
	fmt.Printf("%s (updated %s)\n", st.Version, st.LastUpdated)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, c := range store.Collections {
		fmt.Fprintf(w, "  %s\t%d\n", c, st.Counts[c])
	}
	return w.Flush()
}
