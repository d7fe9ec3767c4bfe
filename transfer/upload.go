package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	errorpkg "github.com/peak/s5transfer/error"
	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/parallel"
	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

// Upload is a single object upload.
type Upload struct {
	transfer

	bucket   string
	key      string
	size     int64
	metadata storage.Metadata

	// open returns the source. Sources which are opened by the manager are
	// closed once the upload ends.
	open       func() (io.Reader, error)
	ownsSource bool

	src *url.URL
	dst *url.URL

	ctx    context.Context
	cancel context.CancelFunc

	partsMu  sync.Mutex
	uploadID string
	parts    []storage.Part
}

func newUpload(
	ctx context.Context,
	cancel context.CancelFunc,
	bucket, key string,
	size int64,
	metadata storage.Metadata,
	src *url.URL,
	open func() (io.Reader, error),
) *Upload {
	u := &Upload{
		bucket:   bucket,
		key:      key,
		size:     size,
		metadata: metadata,
		open:     open,
		src:      src,
		dst:      url.NewRemote(bucket, key),
	}
	u.ctx, u.cancel = ctx, cancel
	u.init(fmt.Sprintf("Uploading to %v/%v", bucket, key), size)
	return u
}

// Bucket returns the destination bucket.
func (u *Upload) Bucket() string { return u.bucket }

// Key returns the destination key.
func (u *Upload) Key() string { return u.key }

// UploadID returns the id of the multipart upload. It is empty for uploads
// sent with a single request.
func (u *Upload) UploadID() string {
	u.partsMu.Lock()
	defer u.partsMu.Unlock()
	return u.uploadID
}

// CompletedParts returns the uploaded parts sorted by part number.
func (u *Upload) CompletedParts() []storage.Part {
	u.partsMu.Lock()
	defer u.partsMu.Unlock()

	parts := make([]storage.Part, len(u.parts))
	copy(parts, u.parts)
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	return parts
}

// Abort cancels the upload and ends it Canceled. The server side resources
// of a multipart upload are released in the background.
func (u *Upload) Abort() {
	u.cancel()
	u.setState(Canceled)
}

func (u *Upload) setUploadID(id string) {
	u.partsMu.Lock()
	u.uploadID = id
	u.partsMu.Unlock()
}

func (u *Upload) addPart(p storage.Part) {
	u.partsMu.Lock()
	u.parts = append(u.parts, p)
	u.partsMu.Unlock()
}

func (u *Upload) wrapError(err error) error {
	return errorpkg.New("upload", u.src, u.dst, err)
}

// runUpload is the coordinator of an upload. It runs on its own goroutine
// and holds a slot of the manager semaphore while the upload is in flight.
func (m *Manager) runUpload(u *Upload) {
	defer u.cancel()

	if err := m.sem.Acquire(u.ctx, 1); err != nil {
		u.finish(err, u.wrapError)
		return
	}
	defer m.sem.Release(1)

	m.track(u)
	defer m.untrack(u)

	u.setState(InProgress)

	obj, err := m.upload(u)
	if u.finish(err, u.wrapError) == Completed {
		log.Info(log.InfoMessage{
			Operation:   "upload",
			Source:      u.src,
			Destination: u.dst,
			Object:      obj,
		})
	}
}

func (m *Manager) upload(u *Upload) (*storage.Object, error) {
	r, err := u.open()
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok && u.ownsSource {
		defer c.Close()
	}

	size := u.size
	if size < 0 {
		if m.opts.UnknownLength == StreamParts {
			return m.uploadStream(u, r)
		}
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		u.progress.setTotal(int64(len(buf)))
		return m.putObject(u, bytes.NewReader(buf), int64(len(buf)))
	}

	section, err := sourceSection(r, size)
	if err != nil {
		return nil, err
	}

	switch {
	case size > m.opts.MultipartThreshold && section != nil:
		return m.uploadReaderAt(u, section, size)
	case size > m.opts.MultipartThreshold:
		return m.uploadStream(u, r)
	case section != nil:
		return m.putObject(u, section, size)
	default:
		buf, err := io.ReadAll(io.LimitReader(r, size))
		if err != nil {
			return nil, err
		}
		if int64(len(buf)) != size {
			return nil, truncatedSourceError(int64(len(buf)), size)
		}
		return m.putObject(u, bytes.NewReader(buf), size)
	}
}

// sourceSection returns a reader over the next size bytes of r when r
// supports random access. Offsets of the section start at the current
// position of r. A nil section means r must be read sequentially.
func sourceSection(r io.Reader, size int64) (*io.SectionReader, error) {
	ra, ok := r.(io.ReaderAt)
	if !ok {
		return nil, nil
	}
	seeker, ok := r.(io.Seeker)
	if !ok {
		return nil, nil
	}

	base, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := seeker.Seek(base, io.SeekStart); err != nil {
		return nil, err
	}

	if remaining := end - base; remaining < size {
		return nil, truncatedSourceError(remaining, size)
	}
	return io.NewSectionReader(ra, base, size), nil
}

func truncatedSourceError(read, size int64) error {
	return fmt.Errorf("source ended after %d of %d bytes: %w", read, size, io.ErrUnexpectedEOF)
}

// putObject uploads body with a single request on a pool worker.
func (m *Manager) putObject(u *Upload, body io.ReadSeeker, size int64) (*storage.Object, error) {
	var obj *storage.Object
	future := m.pool.Submit(u.ctx, func(ctx context.Context) error {
		var err error
		obj, err = m.client.PutObject(ctx, u.bucket, u.key, body, size, u.metadata)
		if err != nil {
			return err
		}
		u.listeners.BytesTransferred(size)
		return nil
	})

	if err := waitFuture(future); err != nil {
		return nil, err
	}
	return obj, nil
}

// waitFuture waits for a task which observes the cancelation of its own
// context, so it always returns.
func waitFuture(f *parallel.Future) error {
	return f.Wait(context.Background())
}
