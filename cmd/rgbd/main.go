// Package main is the rgbd command line tool. Its capture command runs a session against
// the synthetic device and writes the aligned frames of every cycle to disk.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"go.viam.com/rgbd/logging"
)

const (
	// Flags.
	flagDebug   = "debug"
	flagLogFile = "log-file"
	flagConfig  = "config"
	flagOut     = "out"
	flagFormat  = "format"
	flagFrames  = "frames"
	flagPeriod  = "period"
)

func main() {
	var (
		logger    logging.Logger
		logCloser io.Closer
	)

	app := &cli.App{
		Name:  "rgbd",
		Usage: "align depth and color frames",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated by size",
			},
		},
		Before: func(c *cli.Context) error {
			level := zapcore.InfoLevel
			if c.Bool(flagDebug) {
				level = zapcore.DebugLevel
			}
			switch {
			case c.String(flagLogFile) != "":
				logger, logCloser = logging.NewFileLogger("rgbd", c.String(flagLogFile), level)
			case level == zapcore.DebugLevel:
				logger = logging.NewDebugLogger("rgbd")
			default:
				logger = logging.NewLogger("rgbd")
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "capture",
				Usage: "cycle a session on the synthetic device and write aligned frames",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load session configuration from `FILE`",
					},
					&cli.StringFlag{
						Name:  flagOut,
						Value: "frames",
						Usage: "write frames to `DIR`",
					},
					&cli.StringFlag{
						Name:  flagFormat,
						Value: formatPNG,
						Usage: "image format: png, ppm or qoi",
					},
					&cli.IntFlag{
						Name:  flagFrames,
						Value: 10,
						Usage: "number of frame pairs to write",
					},
					&cli.DurationFlag{
						Name:  flagPeriod,
						Value: 33 * time.Millisecond,
						Usage: "frame period of the synthetic device",
					},
				},
				Action: func(c *cli.Context) error {
					stats, err := runCapture(c.Context, captureArgs{
						ConfigPath: c.String(flagConfig),
						OutDir:     c.String(flagOut),
						Format:     c.String(flagFormat),
						Frames:     c.Int(flagFrames),
						Period:     c.Duration(flagPeriod),
					}, logger)
					fmt.Fprintln(c.App.Writer, stats)
					return err
				},
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
