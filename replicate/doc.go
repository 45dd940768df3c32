// Package replicate resolves replication targets for discovered repositories
// and runs the create-or-update replication over them with bounded
// concurrency. Replication is stateless between runs, the filesystem
// (existing mirrors, existing remotes) is the only state and it is queried
// fresh on every run.
//
// Outcomes are immutable values produced per repository and folded into the
// run Summary by a single aggregation goroutine, workers never touch shared
// state.
//
// # Logging:
//
// package takes slog reference for logging and prints logs up to 'trace' level
//
// Example:
//
//	loggerLevel  = new(slog.LevelVar)
//	levelStrings = map[string]slog.Level{
//		"trace": slog.Level(-8),
//		"debug": slog.LevelDebug,
//		"info":  slog.LevelInfo,
//		"warn":  slog.LevelWarn,
//		"error": slog.LevelError,
//	}
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//		Level: loggerLevel,
//	}))
//	loggerLevel.Set(levelStrings["trace"])
//
//	runner, err := replicate.NewRunner(conf, nil, nil, logger.With("logger", "replicate"))
//	if err != nil {
//		panic(err)
//	}
package replicate
