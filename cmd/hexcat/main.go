package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/seastrand/hexcat/internal/logger"
)

func main() {
	var logLevel string

	app := convertCmd()
	app.Name = "hexcat"
	app.Usage = "Manipulate hex and binary firmware image files"
	app.Flags = append(app.Flags, &cli.StringFlag{
		Name:        "log-level",
		Usage:       "log level (debug, info, warn, error)",
		Value:       "info",
		Destination: &logLevel,
	})
	app.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		log := logger.New(os.Stderr, logger.ParseLevel(logLevel))
		return logger.WithContext(ctx, log), nil
	}
	app.Commands = []*cli.Command{
		serveCmd(),
		inspectCmd(),
		versionCmd(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
