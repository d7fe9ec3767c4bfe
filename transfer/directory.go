package transfer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	errorpkg "github.com/peak/s5transfer/error"
	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

// UploadDirectory uploads the files of a local directory, including the
// files of its subdirectories if recursive is set. The key of each file is
// keyPrefix followed by the slash separated path of the file relative to
// dir. The directory is walked before UploadDirectory returns, and uploads
// start while the walk is in progress.
func (m *Manager) UploadDirectory(
	ctx context.Context,
	bucket, keyPrefix, dir string,
	recursive bool,
) (*MultipleFileUpload, error) {
	src, err := url.New(dir)
	if err != nil {
		return nil, err
	}
	prefix := keyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	dst := url.NewRemote(bucket, prefix)

	if bucket == "" {
		return nil, errorpkg.New("upload", src, dst, fmt.Errorf("bucket name cannot be empty"))
	}
	if !m.fs.IsDir(dir) {
		return nil, errorpkg.New("upload", src, dst, errorpkg.ErrNotDirectory)
	}
	if m.isClosed() {
		return nil, errorpkg.New("upload", src, dst, ErrShutdown)
	}

	mfu := &MultipleFileUpload{}
	mfu.initMultiple(fmt.Sprintf("Uploading %v to %v/%v", dir, bucket, prefix), bucket, prefix, dir)

	err = m.fs.Walk(ctx, dir, recursive, func(path string, obj *storage.Object) error {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		u, err := m.newFileUpload(ctx, bucket, prefix+filepath.ToSlash(rel), path, obj.Size)
		if err != nil {
			return err
		}
		mfu.add(u)
		return m.start(func() { m.runUpload(u) })
	})
	if err != nil {
		err = errorpkg.New("upload", src, dst, err)
		mfu.failQueuing(err)
		return nil, err
	}

	mfu.allQueued()
	return mfu, nil
}

// DownloadDirectory downloads every object under keyPrefix into dir. The
// prefix and its virtual subdirectories are listed depth-first before
// DownloadDirectory returns, and downloads start while the listing is in
// progress. Keys which equal a listed prefix, or which collide with a virtual
// subdirectory of the same name, are skipped.
func (m *Manager) DownloadDirectory(ctx context.Context, bucket, keyPrefix, dir string) (*MultipleFileDownload, error) {
	src := url.NewRemote(bucket, keyPrefix)
	dst, err := url.New(dir)
	if err != nil {
		return nil, err
	}

	if bucket == "" {
		return nil, errorpkg.New("download", src, dst, fmt.Errorf("bucket name cannot be empty"))
	}
	if m.isClosed() {
		return nil, errorpkg.New("download", src, dst, ErrShutdown)
	}
	if err := m.fs.MkdirAll(dir); err != nil {
		return nil, errorpkg.New("download", src, dst, err)
	}

	mfd := &MultipleFileDownload{}
	mfd.initMultiple(fmt.Sprintf("Downloading %v/%v to %v", bucket, keyPrefix, dir), bucket, keyPrefix, dir)

	err = m.walkPrefix(ctx, bucket, keyPrefix, func(obj *storage.Object) error {
		path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(obj.Key(), keyPrefix)))
		if !isWithin(dir, path) {
			log.Warning(log.WarningMessage{
				Operation: "download",
				Command:   fmt.Sprintf("download %v", obj.URL),
				Err:       "key resolves outside of the destination directory",
			})
			return nil
		}

		if err := m.fs.MkdirAll(filepath.Dir(path)); err != nil {
			return err
		}

		tctx, cancel, err := m.transferContext(ctx)
		if err != nil {
			return err
		}
		d := newDownload(tctx, cancel, bucket, obj.Key(), path, obj, nil)
		mfd.add(d)
		return m.start(func() { m.runDownload(d) })
	})
	if err != nil {
		err = errorpkg.New("download", src, dst, err)
		mfd.failQueuing(err)
		return nil, err
	}

	mfd.allQueued()
	return mfd, nil
}

// walkPrefix calls fn for every object under prefix. Common prefixes are
// visited depth-first, in the order they are listed. All pages of a prefix
// are listed before its objects are visited, so collisions with common
// prefixes on later pages are detected.
func (m *Manager) walkPrefix(ctx context.Context, bucket, prefix string, fn func(*storage.Object) error) error {
	delimiter := m.opts.Delimiter

	stack := []string{prefix}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var objects []*storage.Object
		var prefixes []string
		seen := map[string]struct{}{}

		marker := ""
		for {
			listing, err := m.client.ListObjects(ctx, &storage.ListObjectsInput{
				Bucket:    bucket,
				Prefix:    current,
				Delimiter: delimiter,
				Marker:    marker,
			})
			if err != nil {
				return err
			}

			objects = append(objects, listing.Objects...)
			for _, p := range listing.CommonPrefixes {
				if _, ok := seen[p]; ok || p == current {
					continue
				}
				seen[p] = struct{}{}
				prefixes = append(prefixes, p)
			}

			if !listing.IsTruncated || listing.NextMarker == "" || listing.NextMarker == marker {
				break
			}
			marker = listing.NextMarker
		}

		for _, obj := range objects {
			key := obj.Key()
			if key == current {
				log.Debugf("skipping %v: %v", obj.URL, errorpkg.ErrObjectIsVirtualDirectory)
				continue
			}
			if _, ok := seen[key+delimiter]; ok {
				log.Debugf("skipping %v: %v", obj.URL, errorpkg.ErrObjectIsVirtualDirectory)
				continue
			}
			if err := fn(obj); err != nil {
				return err
			}
		}

		for i := len(prefixes) - 1; i >= 0; i-- {
			stack = append(stack, prefixes[i])
		}
	}
	return nil
}

// isWithin reports whether path is inside dir.
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
