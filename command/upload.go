package command

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/peak/s5transfer/progressbar"
	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
	"github.com/peak/s5transfer/transfer"
)

var uploadHelpTemplate = `Name:
	{{.HelpName}} - {{.Usage}}

Usage:
	{{.HelpName}} [options] source destination

Options:
	{{range .VisibleFlags}}{{.}}
	{{end}}
Examples:
	1. Upload a file to a bucket
		 > s5transfer {{.HelpName}} video.mp4 s3://bucket/

	2. Upload a file with a different key
		 > s5transfer {{.HelpName}} video.mp4 s3://bucket/videos/2021.mp4

	3. Upload a directory and its subdirectories under a prefix
		 > s5transfer {{.HelpName}} photos/ s3://bucket/backup/photos/

	4. Upload only the files at the top of a directory
		 > s5transfer {{.HelpName}} --no-recursive photos/ s3://bucket/photos/

	5. Upload the standard input in parts of 64MiB
		 > tar c dir | s5transfer --unknown-length stream --part-size 64MiB {{.HelpName}} - s3://bucket/dir.tar
`

func NewUploadCommand() *cli.Command {
	return &cli.Command{
		Name:               "upload",
		HelpName:           "upload",
		Usage:              "upload a file, a directory or the standard input",
		CustomHelpTemplate: uploadHelpTemplate,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-recursive",
				Usage: "do not upload the files of subdirectories",
			},
			&cli.StringFlag{
				Name:  "content-type",
				Usage: "set content type of an upload from the standard input",
			},
			&cli.StringFlag{
				Name:  "storage-class",
				Usage: "set storage class of an upload from the standard input",
			},
		},
		Before: func(c *cli.Context) error {
			return validateUploadCommand(c)
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
			dst, err := url.New(c.Args().Get(1))
			if err != nil {
				return err
			}

			return Upload{
				src:          src,
				dst:          dst,
				recursive:    !c.Bool("no-recursive"),
				contentType:  c.String("content-type"),
				storageClass: c.String("storage-class"),
				cfg:          cfg,
			}.Run(c.Context)
		},
	}
}

// Upload is the upload command.
type Upload struct {
	src *url.URL
	dst *url.URL

	recursive    bool
	contentType  string
	storageClass string

	cfg Config
}

// Run uploads the source and waits for the upload to end.
func (u Upload) Run(ctx context.Context) error {
	manager, err := newManager(u.cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	bar := newProgressBar(u.cfg)
	bar.Start()
	defer bar.Finish()

	t, err := u.start(ctx, manager)
	if err != nil {
		return err
	}
	bar.Track(t)

	return t.Wait(ctx)
}

func (u Upload) start(ctx context.Context, manager *transfer.Manager) (transfer.Transfer, error) {
	fs := storage.NewFilesystem()

	if u.src.Path == "-" {
		metadata := storage.Metadata{
			ContentType:  u.contentType,
			StorageClass: u.storageClass,
		}
		return manager.Upload(ctx, u.dst.Bucket, u.dst.Path, fs.ReadStdin(), -1, metadata)
	}

	if fs.IsDir(u.src.Path) {
		return manager.UploadDirectory(ctx, u.dst.Bucket, u.dst.Path, u.src.Path, u.recursive)
	}

	return manager.UploadFile(ctx, u.dst.Bucket, uploadKey(u.src, u.dst), u.src.Path)
}

// uploadKey returns the key of an uploaded file. Destinations which are a
// bucket or a prefix get the name of the file appended.
func uploadKey(src, dst *url.URL) string {
	if dst.IsBucket() || dst.IsPrefix() {
		return dst.Path + filepath.Base(src.Path)
	}
	return dst.Path
}

func validateUploadCommand(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected source and destination arguments")
	}

	src, err := url.New(c.Args().Get(0))
	if err != nil {
		return err
	}
	if src.IsRemote() {
		return fmt.Errorf("source must be a local path or \"-\": %v", src)
	}

	dst, err := url.New(c.Args().Get(1))
	if err != nil {
		return err
	}
	if !dst.IsRemote() {
		return fmt.Errorf("destination must be a remote object: %v", dst)
	}

	if src.Path == "-" && (dst.IsBucket() || strings.HasSuffix(dst.Path, "/")) {
		return fmt.Errorf("destination must be an object key when the source is the standard input")
	}
	return nil
}

func newProgressBar(cfg Config) progressbar.ProgressBar {
	if !cfg.ShowProgress || cfg.JSON {
		return &progressbar.NoOpProgressBar{}
	}
	return progressbar.NewCommandProgressBar()
}
