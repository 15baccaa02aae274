package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"pomodoro_tui/internal"
	"pomodoro_tui/internal/config"
	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/logfields"
	"pomodoro_tui/internal/metrics"
	"pomodoro_tui/internal/notify"
	"pomodoro_tui/internal/scheduler"
	"pomodoro_tui/internal/session"
	"pomodoro_tui/internal/timer"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Global carries state shared by every command.
type Global struct {
	Config config.Config
	Logger *slog.Logger
	closer io.Closer
}

type CLI struct {
	Config      string `short:"c" help:"Configuration file path (default: user config dir)"`
	DB          string `name:"db" help:"Database path (overrides config)"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address"`
	Verbose     bool   `short:"v" help:"Enable verbose logging"`

	Run      RunCmd      `cmd:"" default:"1" help:"Start the pomodoro timer"`
	Sessions SessionsCmd `cmd:"" help:"List saved session configurations"`
	History  HistoryCmd  `cmd:"" help:"List recently completed sessions"`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
}

func (c *CLI) configPath() (string, error) {
	if c.Config != "" {
		return c.Config, nil
	}
	return config.DefaultPath()
}

// load resolves configuration and installs the default logger.
func (c *CLI) load() (*Global, error) {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		return nil, err
	}

	path, err := c.configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if c.DB != "" {
		cfg.DatabasePath = c.DB
	}
	if c.MetricsAddr != "" {
		cfg.MetricsAddr = c.MetricsAddr
	}
	if c.Verbose {
		cfg.LogLevel = "debug"
	}

	// The TUI owns the terminal, so logs go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	return &Global{Config: cfg, Logger: logger, closer: logFile}, nil
}

func openRepository(cfg config.Config) (*session.Repository, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	repo, err := session.NewRepository(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := repo.SeedDefaults(context.Background()); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to seed sessions: %w", err)
	}
	return repo, nil
}

type RunCmd struct{}

func (r *RunCmd) Run(g *Global) error {
	logger := g.Logger

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if g.Config.MetricsAddr != "" {
		promRecorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
		recorder = promRecorder
		srv := &http.Server{Addr: g.Config.MetricsAddr, Handler: promRecorder.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer srv.Close()
		logger.Info("Serving metrics", slog.String("addr", g.Config.MetricsAddr))
	}

	repo, err := openRepository(g.Config)
	if err != nil {
		return err
	}
	defer repo.Close()

	// p is assigned before any session can complete or any tick can fire.
	var p *tea.Program

	asyncRecorder := session.NewAsyncRecorder(repo, session.RecorderOptions{
		Logger:  logger,
		Metrics: recorder,
		OnWritten: func(rec history.Record, err error) {
			p.Send(internal.MsgRecorded{Record: rec, Err: err})
		},
	})
	defer asyncRecorder.Close()

	sinks := notify.Multi{notify.Log{Logger: logger}}
	if g.Config.Bell {
		sinks = append(sinks, notify.Bell{W: os.Stderr})
	}

	clock := clockwork.NewRealClock()
	engine := timer.New(session.NewStore(repo, asyncRecorder), sinks, clock, timer.Options{
		Logger:  logger,
		Metrics: recorder,
	})

	m, err := internal.NewModel(repo, engine, clock, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	p = tea.NewProgram(m, tea.WithAltScreen())
	m.AttachTicker(scheduler.New(clock, time.Second, func(gen uint64) {
		// Send blocks until Update reads it; Update may be waiting in Stop.
		go p.Send(internal.MsgTick{Gen: gen})
	}))

	logger.Info("Starting timer", logfields.Path(g.Config.DatabasePath))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

type SessionsCmd struct{}

func (s *SessionsCmd) Run(g *Global) error {
	repo, err := openRepository(g.Config)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	configs, err := repo.GetAll(ctx)
	if err != nil {
		return err
	}
	active, err := repo.ActiveConfig(ctx)
	if err != nil {
		return err
	}

	fmt.Println(internal.SessionsTable(configs, active.ID))
	return nil
}

type HistoryCmd struct {
	Limit int `short:"n" help:"Number of records to show" default:"20"`
}

func (h *HistoryCmd) Run(g *Global) error {
	repo, err := openRepository(g.Config)
	if err != nil {
		return err
	}
	defer repo.Close()

	records, err := repo.GetRecords(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No completed sessions yet.")
		return nil
	}

	fmt.Println(internal.HistoryTable(records))
	return nil
}

type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(g *Global, cli *CLI) error {
	path, err := cli.configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !i.Force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, g.Config); err != nil {
		return err
	}
	fmt.Printf("Wrote configuration to %s\n", path)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pomodoro_tui"),
		kong.Description("A terminal pomodoro timer."),
	)

	g, err := cli.load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = ctx.Run(g, &cli)
	g.closer.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
