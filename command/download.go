package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
	"github.com/peak/s5transfer/transfer"
)

var downloadHelpTemplate = `Name:
	{{.HelpName}} - {{.Usage}}

Usage:
	{{.HelpName}} [options] source destination

Options:
	{{range .VisibleFlags}}{{.}}
	{{end}}
Examples:
	1. Download an object into the current directory
		 > s5transfer {{.HelpName}} s3://bucket/video.mp4 .

	2. Download an object into a file
		 > s5transfer {{.HelpName}} s3://bucket/video.mp4 /tmp/2021.mp4

	3. Download every object under a prefix into a directory
		 > s5transfer {{.HelpName}} s3://bucket/photos/ photos/

	4. Download the first kilobyte of an object
		 > s5transfer {{.HelpName}} --range 0-1023 s3://bucket/video.mp4 header.bin
`

func NewDownloadCommand() *cli.Command {
	return &cli.Command{
		Name:               "download",
		HelpName:           "download",
		Usage:              "download an object or every object under a prefix",
		CustomHelpTemplate: downloadHelpTemplate,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "range",
				Usage: "download the inclusive byte range start-end of the object",
			},
		},
		Before: func(c *cli.Context) error {
			return validateDownloadCommand(c)
		},
		Action: func(c *cli.Context) error {
			cfg, err := appConfig(c)
			if err != nil {
				return err
			}

			src, err := url.New(c.Args().Get(0))
			if err != nil {
				return err
			}

			var rng *storage.Range
			if c.IsSet("range") {
				r, err := parseRange(c.String("range"))
				if err != nil {
					return err
				}
				rng = &r
			}

			return Download{
				src: src,
				dst: c.Args().Get(1),
				rng: rng,
				cfg: cfg,
			}.Run(c.Context)
		},
	}
}

// Download is the download command.
type Download struct {
	src *url.URL
	dst string
	rng *storage.Range

	cfg Config
}

// Run downloads the source and waits for the download to end.
func (d Download) Run(ctx context.Context) error {
	manager, err := newManager(d.cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	bar := newProgressBar(d.cfg)
	bar.Start()
	defer bar.Finish()

	t, err := d.start(ctx, manager)
	if err != nil {
		return err
	}
	bar.Track(t)

	return t.Wait(ctx)
}

func (d Download) start(ctx context.Context, manager *transfer.Manager) (transfer.Transfer, error) {
	if d.src.IsBucket() || d.src.IsPrefix() {
		return manager.DownloadDirectory(ctx, d.src.Bucket, d.src.Path, d.dst)
	}

	path := downloadPath(d.src, d.dst)
	if d.rng != nil {
		return manager.DownloadRange(ctx, d.src.Bucket, d.src.Path, path, *d.rng)
	}
	return manager.Download(ctx, d.src.Bucket, d.src.Path, path)
}

// downloadPath returns the local file of a downloaded object. Destinations
// which are existing directories, or which end with a separator, get the
// name of the object appended.
func downloadPath(src *url.URL, dst string) string {
	if strings.HasSuffix(dst, string(filepath.Separator)) || strings.HasSuffix(dst, "/") {
		return filepath.Join(dst, src.Base())
	}
	if st, err := os.Stat(dst); err == nil && st.IsDir() {
		return filepath.Join(dst, src.Base())
	}
	return dst
}

// parseRange parses an inclusive byte range in the form of "start-end".
func parseRange(s string) (storage.Range, error) {
	start, end, ok := strings.Cut(s, "-")
	if !ok {
		return storage.Range{}, fmt.Errorf("range %q must be in the form of start-end", s)
	}

	var rng storage.Range
	var err error
	if rng.Start, err = strconv.ParseInt(strings.TrimSpace(start), 10, 64); err != nil {
		return storage.Range{}, fmt.Errorf("range %q: invalid start: %w", s, err)
	}
	if rng.End, err = strconv.ParseInt(strings.TrimSpace(end), 10, 64); err != nil {
		return storage.Range{}, fmt.Errorf("range %q: invalid end: %w", s, err)
	}
	if err := rng.Validate(); err != nil {
		return storage.Range{}, err
	}
	return rng, nil
}

func validateDownloadCommand(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected source and destination arguments")
	}

	src, err := url.New(c.Args().Get(0))
	if err != nil {
		return err
	}
	if !src.IsRemote() {
		return fmt.Errorf("source must be a remote object: %v", src)
	}

	dst, err := url.New(c.Args().Get(1))
	if err != nil {
		return err
	}
	if dst.IsRemote() {
		return fmt.Errorf("destination must be a local path: %v", dst)
	}

	if c.IsSet("range") {
		if src.IsBucket() || src.IsPrefix() {
			return fmt.Errorf("range can not be used with a prefix")
		}
		if _, err := parseRange(c.String("range")); err != nil {
			return err
		}
	}
	return nil
}
