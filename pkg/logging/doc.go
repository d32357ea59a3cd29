// Package logging provides structured logging configuration for mockstore.
//
// This package wraps log/slog so the store, the GraphQL gateway and the CLI
// share one logger setup.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "addr", ":4280")
//
// Components accept a *slog.Logger in their constructor or via an option.
// If no logger is provided, use logging.Nop().
package logging
