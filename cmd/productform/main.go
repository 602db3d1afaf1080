package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	apiserver "productform/internal/api"
	configapp "productform/internal/config/application"
	formdomain "productform/internal/form/domain"
	"productform/internal/infrastructure/database"
	"productform/internal/infrastructure/logger"
	"productform/internal/infrastructure/tracing"
	submissionapp "productform/internal/submission/application"
	"productform/internal/submission/domain"
	submissioninfra "productform/internal/submission/infrastructure"
)

// globalFlags leave values empty when unset so environment and defaults apply
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "env-file", Usage: "path to a .env file (default: ./.env)"},
		&cli.StringFlag{Name: "log-level", Usage: "DEBUG, INFO, WARN or ERROR"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		&cli.StringFlag{Name: "log-output", Usage: "stdout, stderr or a file path"},
		&cli.StringFlag{Name: "db", Usage: "submission history database"},
		&cli.StringFlag{Name: "collector-host", Usage: "OTLP collector host, tracing export is off when empty"},
		&cli.StringFlag{Name: "api-base", Usage: "base URL of the product API"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                      "productform",
		Usage:                     "create a product and attach its images",
		Flags:                     globalFlags(),
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "run one submission and print the result",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Usage: "fetch or client"},
					&cli.StringFlag{Name: formdomain.FieldName},
					&cli.StringFlag{Name: formdomain.FieldDescription},
					&cli.StringFlag{Name: formdomain.FieldPrice},
					&cli.StringFlag{Name: formdomain.FieldStock},
					&cli.StringFlag{Name: formdomain.FieldBrand},
					&cli.StringFlag{Name: formdomain.FieldCategory},
					&cli.StringSliceFlag{Name: "file", Usage: "image to upload, repeat for more"},
				},
				Action: submit,
			},
			{
				Name:  "serve",
				Usage: "run the web form until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Usage: "listen port"},
				},
				Action: serve,
			},
			{
				Name:  "history",
				Usage: "print recorded submissions as JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "orphaned", Usage: "only attempts that left a product without images"},
					&cli.IntFlag{Name: "limit", Usage: "maximum number of records"},
				},
				Action: history,
			},
		},
	}
}

// environment holds everything a command needs, built from flags and configuration
type environment struct {
	cfg            *configapp.RuntimeConfig
	logger         *logger.Logger
	tracerProvider *sdktrace.TracerProvider
	db             *sql.DB
	repo           *submissioninfra.Repository
}

func setup(c *cli.Context) (*environment, error) {
	bootLogger := logger.DefaultLogger()
	configapp.LoadEnvFile(bootLogger, c.String("env-file"))

	cfg := configapp.LoadRuntimeConfig(configapp.Flags{
		APIBase:       c.String("api-base"),
		Transport:     c.String("transport"),
		Port:          c.String("port"),
		LogLevel:      c.String("log-level"),
		LogFormat:     c.String("log-format"),
		LogOutput:     c.String("log-output"),
		DBPath:        c.String("db"),
		CollectorHost: c.String("collector-host"),
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appLogger := logger.NewLoggerWithOptions(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	logger.SetDefaultLogger(appLogger)

	tp, err := tracing.InitTracing(c.Context, cfg.CollectorHost)
	if err != nil {
		appLogger.Close()
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	appLogger.Debug("Opening submission history", "file", cfg.DBPath)
	db, err := database.OpenHistory(c.Context, cfg.DBPath)
	if err != nil {
		tp.Shutdown(context.Background())
		appLogger.Close()
		return nil, err
	}

	return &environment{
		cfg:            cfg,
		logger:         appLogger,
		tracerProvider: tp,
		db:             db,
		repo:           submissioninfra.NewRepository(db, db),
	}, nil
}

func (e *environment) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.tracerProvider.Shutdown(ctx); err != nil {
		e.logger.Warn("Tracer shutdown error", "err", err)
	}
	if err := e.db.Close(); err != nil {
		e.logger.Warn("Database close error", "err", err)
	}
	e.logger.Close()
}

func (e *environment) orchestrator(form *formdomain.Holder, opts ...submissionapp.Option) (*submissionapp.Orchestrator, error) {
	transports, err := submissioninfra.BuildTransports(e.cfg.APIBase, submissioninfra.NewHTTPClient())
	if err != nil {
		return nil, err
	}
	opts = append(opts, submissionapp.WithRepository(e.repo))
	return submissionapp.NewOrchestrator(e.logger, form, transports, opts...), nil
}

func submit(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	form := formdomain.NewHolder()
	for _, name := range formdomain.Fields {
		if c.IsSet(name) {
			form.SetField(name, c.String(name))
		}
	}

	files, err := readFiles(c.StringSlice("file"))
	if err != nil {
		return err
	}
	form.SetFiles(files)

	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	orch, err := env.orchestrator(form, submissionapp.WithStatusListener(func(status string) {
		fmt.Fprintln(errOut, status)
	}))
	if err != nil {
		return err
	}

	result, err := orch.Submit(c.Context, domain.Variant(env.cfg.Transport))
	if err != nil {
		return err
	}

	return writeJSON(c.App.Writer, result)
}

func readFiles(paths []string) ([]formdomain.File, error) {
	files := make([]formdomain.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		// content type is sniffed by the transport
		files = append(files, formdomain.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

func serve(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	form := formdomain.NewHolder()
	orch, err := env.orchestrator(form)
	if err != nil {
		return err
	}

	server := apiserver.NewServer(env.logger, env.cfg, form, orch, env.repo)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	env.logger.Info("Form available", "url", "http://localhost:"+env.cfg.Port, "api_base", env.cfg.APIBase)

	select {
	case <-c.Context.Done():
		env.logger.Info("Shutdown signal received, starting graceful shutdown")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErrChan:
		return err
	}
}

func history(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.Close()

	req := submissionapp.ListRecordsRequest{Limit: c.Int("limit")}
	if c.IsSet("orphaned") {
		orphaned := c.Bool("orphaned")
		req.Orphaned = &orphaned
	}

	records, err := submissionapp.NewHistoryService(env.repo).ListRecords(c.Context, req)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}

	return writeJSON(c.App.Writer, records)
}

func writeJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		// Use default logger for final error message if setup failed early
		logger := logger.DefaultLogger()
		logger.Error("Application error", "err", err)
		cancel()
		os.Exit(1)
	}
}
