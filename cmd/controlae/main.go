package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/controlae/internal/clients"
	"github.com/pribylovaa/controlae/internal/config"
	apierrors "github.com/pribylovaa/controlae/internal/errors"
	"github.com/pribylovaa/controlae/internal/guard"
	logctx "github.com/pribylovaa/controlae/internal/pkg/log"
	"github.com/pribylovaa/controlae/internal/session"
	"github.com/pribylovaa/controlae/internal/storage"
	"github.com/pribylovaa/controlae/internal/storage/file"
	"github.com/pribylovaa/controlae/internal/storage/memory"
	"github.com/pribylovaa/controlae/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// Коды завершения.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// app — зависимости команды.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	sess  *session.Session
	cl    *clients.Clients
	guard *guard.Guard
	out   io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("controlae", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	backend := fs.String("session", "", "session backend override: file|redis|memory")
	profile := fs.String("profile", "", "session profile override")
	quiet := fs.Bool("quiet", false, "disable logs")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		usage(stderr, fs)
		return exitUsage
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(stderr, fs)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err == nil && (*backend != "" || *profile != "") {
		if *backend != "" {
			cfg.Session.Backend = *backend
		}
		if *profile != "" {
			cfg.Session.Profile = *profile
		}
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitFailure
	}

	log := setupLogger(cfg.Env, stderr)
	if *quiet {
		log = logctx.Discard()
	}
	slog.SetDefault(log)

	kv, err := openStore(ctx, cfg.Session)
	if err != nil {
		log.Error("session_store_open_failed", slog.String("err", err.Error()))
		fmt.Fprintln(stderr, apierrors.Message(err, "não foi possível abrir a sessão"))
		return exitFailure
	}
	sess := session.New(kv)
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn("session_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	reg := prometheus.NewRegistry()
	cl, err := clients.New(*cfg, sess, log, clients.WithRegisterer(reg))
	if err != nil {
		log.Error("clients_init_failed", slog.String("err", err.Error()))
		return exitFailure
	}
	defer func() { _ = cl.Close() }()

	a := &app{cfg: cfg, log: log, sess: sess, cl: cl, guard: guard.New(sess), out: stdout}

	code := a.exec(ctx, name, cmd, rest, stderr)

	if path := cfg.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			log.Warn("metrics_textfile_failed", slog.String("path", path), slog.String("err", err.Error()))
		}
	}

	return code
}

func (a *app) exec(ctx context.Context, name string, cmd command, args []string, stderr io.Writer) int {
	if cmd.route != "" {
		if err := a.guard.Check(ctx, cmd.route); err != nil {
			var re *guard.RedirectError
			if errors.As(err, &re) {
				fmt.Fprintf(stderr, "Faça login para continuar: controlae login (depois: %s)\n", re.Location())
				return exitFailure
			}
			fmt.Fprintln(stderr, apierrors.Message(err, ""))
			return exitFailure
		}
	}

	err := cmd.run(ctx, a, args)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
		}
		return exitUsage
	default:
		a.log.Debug("command_failed", slog.String("command", name), slog.String("err", err.Error()))
		fmt.Fprintln(stderr, apierrors.Message(err, ""))
		return exitFailure
	}
}

func openStore(ctx context.Context, cfg config.SessionConfig) (storage.KV, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendRedis:
		kv, err := redis.New(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.Profile)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		path, err := cfg.FilePath()
		if err != nil {
			return nil, err
		}
		kv, err := file.New(path)
		if err != nil {
			return nil, err
		}
		return kv, nil
	}
}

// setupLogger — логи в stderr: stdout занят выводом команд.
func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
