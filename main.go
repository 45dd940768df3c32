package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/git-replica/git-replica/locator"
	"github.com/git-replica/git-replica/replicate"
)

var (
	loggerLevel = new(slog.LevelVar)
	logger      *slog.Logger

	levelStrings = map[string]slog.Level{
		"trace": slog.Level(-8),
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Sources: cli.EnvVars("GIT_REPLICA_CONFIG"),
			Usage:   "Absolute path to an optional config file.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
			Usage:   "Log level",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of repositories replicated in parallel.",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout applied to each repository's replication.",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "If set, serve prometheus metrics on this address for the duration of the run.",
		},
	}
)

func init() {
	loggerLevel.Set(slog.LevelInfo)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: loggerLevel,
	}))
}

func main() {
	cmd := &cli.Command{
		Name:  "git-replica",
		Usage: "git-replica discovers local git repositories and replicates them to a backup location.",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:      "backup",
				Usage:     "Mirror all repositories under the projects dir into local bare mirrors.",
				ArgsUsage: "[projects-dir] [backup-dir]",
				Action:    runBackup,
			},
			{
				Name:      "remote",
				Usage:     "Push-mirror all repositories under the projects dir to a remote git host.",
				ArgsUsage: "<host> <username> [projects-dir]",
				Action:    runRemote,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("failed to run app", "err", err)
		os.Exit(1)
	}
}

func runBackup(ctx context.Context, c *cli.Command) error {
	conf, fileConf, err := setup(ctx, c)
	if err != nil {
		logger.Error("unable to set up run", "err", err)
		os.Exit(1)
	}

	conf.Mode = replicate.ModeLocal
	conf.Root = firstOf(c.Args().Get(0), fileConf.Defaults.ProjectsDir, homePath("Projects"))
	conf.Destination = firstOf(c.Args().Get(1), fileConf.Defaults.BackupDir, homePath("backup", "git-repositories"))

	// diagnostics also go to a rotated log file next to the mirrors
	logFile := firstOf(fileConf.Defaults.LogFile, filepath.Join(conf.Destination, "backup.log"))
	closeLog := teeLogToFile(logFile)
	defer closeLog()

	return run(ctx, conf)
}

func runRemote(ctx context.Context, c *cli.Command) error {
	conf, fileConf, err := setup(ctx, c)
	if err != nil {
		logger.Error("unable to set up run", "err", err)
		os.Exit(1)
	}

	conf.Mode = replicate.ModeRemote
	conf.Host = c.Args().Get(0)
	conf.User = c.Args().Get(1)
	conf.Root = firstOf(c.Args().Get(2), fileConf.Defaults.ProjectsDir, homePath("Projects"))

	return run(ctx, conf)
}

// setup handles everything the two commands share: log level, config file,
// flag merging and the optional metrics endpoint.
func setup(ctx context.Context, c *cli.Command) (replicate.Config, *config, error) {
	if v, ok := levelStrings[strings.ToLower(c.String("log-level"))]; ok {
		loggerLevel.Set(v)
	}

	fileConf := &config{}
	if path := c.String("config"); path != "" {
		var err error
		if fileConf, err = parseConfigFile(path); err != nil {
			return replicate.Config{}, nil, fmt.Errorf("unable to parse config file err:%w", err)
		}
	}

	conf := replicate.Config{
		RemoteName:  fileConf.Defaults.RemoteName,
		Concurrency: fileConf.Defaults.Concurrency,
		Timeout:     fileConf.Defaults.Timeout,
		Excludes:    fileConf.Defaults.Excludes,
	}

	// flags beat the config file
	if v := c.Int("concurrency"); v != 0 {
		conf.Concurrency = v
	}
	if v := c.Duration("timeout"); v != 0 {
		conf.Timeout = v
	}

	if addr := firstOf(c.String("metrics-addr"), fileConf.Defaults.MetricsAddr); addr != "" {
		replicate.EnableMetrics("git_replica", prometheus.DefaultRegisterer)
		go serveMetrics(ctx, addr)
	}

	return conf, fileConf, nil
}

func run(ctx context.Context, conf replicate.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := conf.ValidateAndApplyDefaults(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// an unwritable destination is a precondition failure, not N per-repository
	// clone failures
	if conf.Mode == replicate.ModeLocal {
		if err := ensureWritableDir(conf.Destination); err != nil {
			logger.Error("destination is not writable", "path", conf.Destination, "err", err)
			os.Exit(1)
		}
	}

	loc, err := locator.New(conf.Root, conf.Destination, conf.Excludes, logger.With("logger", "locator"))
	if err != nil {
		logger.Error("invalid projects root", "err", err)
		os.Exit(1)
	}

	records, err := loc.Discover(ctx)
	if err != nil {
		logger.Error("unable to discover repositories", "root", conf.Root, "err", err)
		os.Exit(1)
	}

	// path to resolve git and ssh
	gitENV := []string{fmt.Sprintf("PATH=%s", os.Getenv("PATH")), fmt.Sprintf("HOME=%s", os.Getenv("HOME"))}
	if agent := os.Getenv("SSH_AUTH_SOCK"); agent != "" {
		gitENV = append(gitENV, fmt.Sprintf("SSH_AUTH_SOCK=%s", agent))
	}

	runner, err := replicate.NewRunner(conf, gitENV, reportOutcome, logger.With("logger", "replicate"))
	if err != nil {
		logger.Error("unable to create runner", "err", err)
		os.Exit(1)
	}

	summary, err := runner.Run(ctx, records)
	if err != nil {
		logger.Error("replication run aborted", "err", err)
		os.Exit(1)
	}

	reportSummary(summary)

	if !summary.Ok() {
		os.Exit(1)
	}
	return nil
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server stopped", "addr", addr, "err", err)
	}
}

// teeLogToFile re-points the package logger at stderr plus a rotated log
// file and returns a close func for the file.
func teeLogToFile(path string) func() {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     90, // days
		Compress:   true,
	}

	logger = slog.New(slog.NewTextHandler(io.MultiWriter(os.Stderr, lj), &slog.HandlerOptions{
		Level: loggerLevel,
	}))

	return func() { lj.Close() }
}

// ensureWritableDir creates the destination dir if needed and verifies it is
// writable by creating and removing a probe file.
func ensureWritableDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(path, ".git-replica-write-check-*")
	if err != nil {
		return err
	}
	f.Close()

	return os.Remove(f.Name())
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func homePath(elem ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		logger.Error("unable to resolve home dir", "err", err)
		os.Exit(1)
	}
	return filepath.Join(append([]string{home}, elem...)...)
}
