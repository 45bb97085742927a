package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/app"
	"github.com/marcus/filer/internal/config"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/keymap"
	"github.com/marcus/filer/internal/source"
	"github.com/marcus/filer/internal/state"
	"golang.org/x/term"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	nameFlag     = flag.String("name", "default", "filer instance name")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	logPath      = flag.String("log", "", "write logs to this file instead of stderr")
	hiddenFlag   = flag.Bool("hidden", false, "show dotfiles")
	resumeFlag   = flag.Bool("resume", false, "reopen the directory listed when the filer last quit")
	initConfig   = flag.Bool("init-config", false, "write the default config file and exit")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	// Handle version flag
	if *versionFlag || *shortVersion {
		fmt.Printf("filer version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	if *initConfig {
		if err := config.Save(config.Default()); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", config.ConfigPath())
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	var logOut io.Writer = os.Stderr
	if *logPath != "" {
		f, err := os.OpenFile(config.ExpandPath(*logPath), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Load persistent state (ignore errors - state is optional)
	if err := state.Init(); err != nil {
		logger.Warn("state unavailable", "error", err)
	}

	sources := cfg.Sources
	switch {
	case flag.NArg() > 0:
		sources = nil
		for _, p := range flag.Args() {
			sources = append(sources, config.SourceConfig{Path: p})
		}
	case *resumeFlag && state.GetLastPath() != "":
		sources = []config.SourceConfig{{Path: state.GetLastPath()}}
	}

	var watcher *source.Watcher
	if cfg.Watch.Enabled {
		if watcher, err = source.NewWatcher(cfg.Watch.Debounce, logger); err != nil {
			logger.Warn("file watching disabled", "error", err)
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	lines, columns := 24, 80
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		lines, columns = h-1, w
	}
	ref := &app.ProgramRef{}
	ed := editor.NewMemory(lines, columns,
		editor.WithTerminalRunner(app.TerminalRunner(logger)),
		editor.WithOnChange(ref.NotifyChanged),
	)

	fw, err := app.NewFramework(ed, app.Options{
		Name:       *nameFlag,
		Sources:    sources,
		Params:     cfg.UI,
		ShowHidden: *hiddenFlag,
		Watcher:    watcher,
		Cursors:    state.Cursors{},
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start filer: %v\n", err)
		os.Exit(1)
	}

	// Create keymap registry
	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)

	// Apply user keymap overrides
	for key, cmd := range cfg.Keymap.Overrides {
		km.SetUserOverride(key, cmd)
	}

	// Create and run application
	model := app.New(fw, km)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	ref.Set(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	ver := "devel+" + revision
	if len(ver) > 20 {
		ver = ver[:20]
	}
	if dirty {
		ver += "+dirty"
	}
	return ver
}

func init() {
	// Customize usage output
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: filer [options] [path ...]\n\n")
		fmt.Fprintf(os.Stderr, "A tree file explorer for the terminal.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
