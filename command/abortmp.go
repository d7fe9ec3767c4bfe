package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/peak/s5transfer/storage/url"
)

var abortmpHelpTemplate = `Name:
	{{.HelpName}} - {{.Usage}}

Usage:
	{{.HelpName}} [options] s3://bucketname

Options:
	{{range .VisibleFlags}}{{.}}
	{{end}}
Examples:
	1. Abort multipart uploads initiated more than a day ago
		> s5transfer {{.HelpName}} s3://bucket

	2. Abort every multipart upload of a bucket
		> s5transfer {{.HelpName}} --older-than 0s s3://bucket
`

func NewAbortMultipartCommand() *cli.Command {
	return &cli.Command{
		Name:               "abortmp",
		HelpName:           "abortmp",
		Usage:              "abort incomplete multipart uploads",
		CustomHelpTemplate: abortmpHelpTemplate,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "older-than",
				Value: 24 * time.Hour,
				Usage: "abort the uploads initiated before this duration",
			},
		},
		Before: func(c *cli.Context) error {
			return validateAbortMultipartCommand(c)
		},
		Action: func(c *cli.Context) (err error) {
			cfg, err := appConfig(c)
			if err != nil {
				return err
			}

			bucket, err := url.New(c.Args().First())
			if err != nil {
				return err
			}

			manager, err := newManager(cfg)
			if err != nil {
				return err
			}
			defer manager.Close()

			before := time.Now().Add(-c.Duration("older-than"))
			return manager.AbortMultipartUploads(c.Context, bucket.Bucket, before)
		},
	}
}

func validateAbortMultipartCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected only one argument")
	}

	bucket, err := url.New(c.Args().First())
	if err != nil {
		return err
	}
	if !bucket.IsBucket() {
		return fmt.Errorf("invalid s3 bucket: %v", bucket)
	}

	if c.Duration("older-than") < 0 {
		return fmt.Errorf("older-than must not be negative")
	}
	return nil
}
