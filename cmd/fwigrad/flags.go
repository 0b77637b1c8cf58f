package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/seisgo/fwigrad/internal/logger"
)

var (
	logLevel  string
	logFormat string
	debug     bool

	order       int64
	workers     int64
	shotWorkers int64
	iterations  int64
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func computeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "order",
			Usage:       "boundary checkpoint strip thickness",
			Value:       2,
			Destination: &order,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Aliases:     []string{"w"},
			Usage:       "stencil sweep workers per shot (0 = all CPUs)",
			Destination: &workers,
		},
		&cli.Int64Flag{
			Name:        "shot-workers",
			Usage:       "shots processed concurrently",
			Value:       1,
			Destination: &shotWorkers,
		},
		&cli.Int64Flag{
			Name:        "iterations",
			Aliases:     []string{"n"},
			Usage:       "outer iterations",
			Value:       1,
			Destination: &iterations,
		},
	}
}

func buildLogger() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	if logFormat == "json" {
		return logger.JSON(os.Stderr, level)
	}
	return logger.Pretty(os.Stderr, level)
}
