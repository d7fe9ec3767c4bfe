package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/parallel/fdlimit"
)

const (
	defaultRetryCount = 10

	appName = "s5transfer"

	configMetadataKey = "config"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "Concurrent multipart transfers between S3 and the local filesystem",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "read settings from a YAML configuration file",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "enable JSON formatted output",
			},
			&cli.GenericFlag{
				Name: "log",
				Value: &EnumValue{
					Enum:    []string{"debug", "info", "warning", "error"},
					Default: "info",
				},
				Usage: "log level: (debug, info, warning, error)",
			},
			&cli.IntFlag{
				Name:  "numworkers",
				Usage: "number of workers of the transfer pool",
			},
			&cli.StringFlag{
				Name:  "part-size",
				Usage: "size of each part of multipart uploads, e.g. 64MiB",
			},
			&cli.StringFlag{
				Name:  "multipart-threshold",
				Usage: "size above which uploads are split into parts, e.g. 16MiB",
			},
			&cli.GenericFlag{
				Name: "unknown-length",
				Value: &EnumValue{
					Enum:    []string{"buffer", "stream"},
					Default: "buffer",
				},
				Usage: "upload policy of streams of unknown length: (buffer, stream)",
			},
			&cli.GenericFlag{
				Name: "backend",
				Value: &EnumValue{
					Enum:    []string{backendS3, backendMinio},
					Default: backendS3,
				},
				Usage: "storage client implementation: (s3, minio)",
			},
			&cli.IntFlag{
				Name:    "retry-count",
				Aliases: []string{"r"},
				Usage:   "number of times that a request will be retried for failures",
			},
			&cli.StringFlag{
				Name:  "endpoint-url",
				Usage: "override default S3 host for custom services",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "region of the buckets",
			},
			&cli.BoolFlag{
				Name:  "no-verify-ssl",
				Usage: "disable SSL certificate verification",
			},
			&cli.BoolFlag{
				Name:  "skip-checksum",
				Usage: "do not verify the MD5 checksum of downloaded objects",
			},
			&cli.BoolFlag{
				Name:  "preserve-mtime",
				Usage: "set the modification time of downloaded files to the object's",
			},
			&cli.BoolFlag{
				Name:  "show-progress",
				Usage: "show a progress bar",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := configFromContext(c)
			if err != nil {
				log.Init("error", c.Bool("json"))
				return err
			}

			log.Init(cfg.LogLevel, cfg.JSON)

			if err := fdlimit.Raise(); err != nil {
				log.Debugf("could not raise the open file limit: %v", err)
			}

			c.App.Metadata = map[string]interface{}{configMetadataKey: cfg}
			return nil
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
		After: func(c *cli.Context) error {
			log.Close()
			return nil
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err != nil {
				printError(commandFromContext(c), operation(c), err)
			}
		},
		Commands: []*cli.Command{
			NewUploadCommand(),
			NewDownloadCommand(),
			NewAbortMultipartCommand(),
			NewVersionCommand(),
		},
	}
}

// Main runs the command line application.
func Main(ctx context.Context, args []string) error {
	return newApp().RunContext(ctx, args)
}

// appConfig returns the configuration loaded before the command runs.
func appConfig(c *cli.Context) (Config, error) {
	cfg, ok := c.App.Metadata[configMetadataKey].(Config)
	if !ok {
		return Config{}, fmt.Errorf("configuration is not loaded")
	}
	return cfg, nil
}

func operation(c *cli.Context) string {
	if c.Command == nil || c.Command.Name == "" {
		return appName
	}
	return c.Command.Name
}
