package transfer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
	"sync"

	errorpkg "github.com/peak/s5transfer/error"
	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

// ErrChecksumMismatch is the failure of downloads whose content does not
// match the ETag of the object.
var ErrChecksumMismatch = errors.New("downloaded content does not match the object checksum")

// Download is a single object download into a local file.
type Download struct {
	transfer

	bucket string
	key    string
	path   string
	rng    *storage.Range
	object *storage.Object

	src *url.URL
	dst *url.URL

	ctx    context.Context
	cancel context.CancelFunc

	bodyMu  sync.Mutex
	body    io.ReadCloser
	aborted bool
}

func newDownload(
	ctx context.Context,
	cancel context.CancelFunc,
	bucket, key, path string,
	object *storage.Object,
	rng *storage.Range,
) *Download {
	total := object.Size
	if rng != nil {
		total = rng.Size()
	}

	dst, _ := url.New(path)
	d := &Download{
		bucket: bucket,
		key:    key,
		path:   path,
		rng:    rng,
		object: object,
		src:    url.NewRemote(bucket, key),
		dst:    dst,
	}
	d.ctx, d.cancel = ctx, cancel
	d.init(fmt.Sprintf("Downloading from %v/%v", bucket, key), total)
	return d
}

// Bucket returns the source bucket.
func (d *Download) Bucket() string { return d.bucket }

// Key returns the source key.
func (d *Download) Key() string { return d.key }

// Path returns the destination file.
func (d *Download) Path() string { return d.path }

// ObjectMetadata returns the metadata of the source object.
func (d *Download) ObjectMetadata() *storage.Object { return d.object }

// Abort cancels the download, closes the object stream if it is open and
// ends the download Canceled. A failure caused by the abort never overwrites
// the Canceled state.
func (d *Download) Abort() error {
	d.cancel()
	d.setState(Canceled)

	d.bodyMu.Lock()
	defer d.bodyMu.Unlock()

	d.aborted = true
	if d.body == nil {
		return nil
	}
	err := d.body.Close()
	d.body = nil
	return err
}

// setBody stores the open object stream. It returns false if the download
// was aborted meanwhile, in which case body is closed.
func (d *Download) setBody(body io.ReadCloser) bool {
	d.bodyMu.Lock()
	defer d.bodyMu.Unlock()

	if d.aborted {
		body.Close()
		return false
	}
	d.body = body
	return true
}

func (d *Download) closeBody() {
	d.bodyMu.Lock()
	defer d.bodyMu.Unlock()

	if d.body != nil {
		d.body.Close()
		d.body = nil
	}
}

func (d *Download) wrapError(err error) error {
	return errorpkg.New("download", d.src, d.dst, err)
}

// runDownload is the coordinator of a download.
func (m *Manager) runDownload(d *Download) {
	defer d.cancel()

	if err := m.sem.Acquire(d.ctx, 1); err != nil {
		d.finish(err, d.wrapError)
		return
	}
	defer m.sem.Release(1)

	m.track(d)
	defer m.untrack(d)

	d.setState(InProgress)

	future := m.pool.Submit(d.ctx, func(ctx context.Context) error {
		return m.fetch(ctx, d)
	})
	err := waitFuture(future)

	if d.finish(err, d.wrapError) == Completed {
		log.Info(log.InfoMessage{
			Operation:   "download",
			Source:      d.src,
			Destination: d.dst,
			Object:      d.object,
		})
	}
}

// fetch streams the object into the destination file. The file is removed
// if the download does not complete.
func (m *Manager) fetch(ctx context.Context, d *Download) (err error) {
	body, obj, err := m.client.GetObject(ctx, d.bucket, d.key, d.rng)
	if err != nil {
		return err
	}
	if !d.setBody(body) {
		return context.Canceled
	}
	defer d.closeBody()

	etag := d.object.Etag
	if etag == "" && obj != nil {
		etag = obj.Etag
	}
	encryption := d.object.Encryption
	if obj != nil && obj.Encryption != "" {
		encryption = obj.Encryption
	}

	f, err := m.fs.Create(d.path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			m.fs.Delete(d.path)
		}
	}()

	var w io.Writer = f
	var hasher hash.Hash
	if !m.opts.SkipChecksum && d.rng == nil && isMD5Etag(etag, encryption) {
		hasher = md5.New()
		w = io.MultiWriter(f, hasher)
	}

	_, err = io.Copy(w, &progressReader{r: body, listener: &d.listeners})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if hasher != nil && hex.EncodeToString(hasher.Sum(nil)) != etag {
		return ErrChecksumMismatch
	}

	if m.opts.PreserveModTime && d.object.ModTime != nil {
		if err := m.fs.SetModTime(d.path, *d.object.ModTime); err != nil {
			log.Debugf("could not set modification time of %v: %v", d.path, err)
		}
	}
	return nil
}

// isMD5Etag reports whether etag is the MD5 sum of the object content.
// ETags of multipart uploads contain a dash and are not. Objects encrypted
// with KMS or customer provided keys have opaque ETags.
func isMD5Etag(etag, encryption string) bool {
	if encryption == storage.EncryptionSSEC || strings.HasPrefix(encryption, storage.EncryptionKMS) {
		return false
	}
	if len(etag) != md5.Size*2 {
		return false
	}
	_, err := hex.DecodeString(etag)
	return err == nil
}

// progressReader reports every successful read to the listener.
type progressReader struct {
	r        io.Reader
	listener ProgressListener
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.listener.BytesTransferred(int64(n))
	}
	return n, err
}
