// Package transfer implements a concurrent transfer manager for object
// storage. Large uploads are split into parts which are uploaded in parallel,
// directory transfers are composed of one transfer per file, and every
// transfer reports its state and progress while it runs on a shared worker
// pool.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/semaphore"

	errorpkg "github.com/peak/s5transfer/error"
	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/parallel"
	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

// Manager runs uploads and downloads against a storage client. All
// transfers of a manager share its worker pool.
type Manager struct {
	client storage.Storage
	fs     *storage.Filesystem
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	pool *parallel.Pool
	sem  *semaphore.Weighted

	// partBuffers bounds the number of in-memory parts of streaming
	// uploads.
	partBuffers *semaphore.Weighted

	// coordinators tracks the goroutines which drive transfers.
	coordinators sync.WaitGroup

	mu     sync.Mutex
	closed bool
	active map[string]Transfer

	tickerStop chan struct{}
	tickerDone chan struct{}
}

// New creates a manager which transfers objects with client.
func New(client storage.Storage, opts Options) *Manager {
	opts = opts.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		client: client,
		fs:     storage.NewFilesystem(),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		pool:   parallel.New(ctx, opts.Concurrency),
		sem:    semaphore.NewWeighted(int64(opts.Concurrency)),
		active: make(map[string]Transfer),

		partBuffers: semaphore.NewWeighted(int64(opts.Concurrency)),
	}

	if opts.ProgressInterval > 0 {
		m.tickerStop = make(chan struct{})
		m.tickerDone = make(chan struct{})
		go m.logProgress(opts.ProgressInterval)
	}
	return m
}

// Options returns the effective options of the manager.
func (m *Manager) Options() Options {
	return m.opts
}

// Upload uploads the content of r. size is the length of the content, or a
// negative value if it is unknown. r is not closed by the manager.
func (m *Manager) Upload(
	ctx context.Context,
	bucket, key string,
	r io.Reader,
	size int64,
	metadata storage.Metadata,
) (*Upload, error) {
	dst := url.NewRemote(bucket, key)
	if err := validateRemote(bucket, key); err != nil {
		return nil, errorpkg.New("upload", nil, dst, err)
	}
	if r == nil {
		return nil, errorpkg.New("upload", nil, dst, errors.New("nil reader"))
	}

	tctx, cancel, err := m.transferContext(ctx)
	if err != nil {
		return nil, errorpkg.New("upload", nil, dst, err)
	}

	u := newUpload(tctx, cancel, bucket, key, size, metadata, nil, func() (io.Reader, error) {
		return r, nil
	})
	if err := m.start(func() { m.runUpload(u) }); err != nil {
		cancel()
		return nil, u.wrapError(err)
	}
	return u, nil
}

// UploadFile uploads a local file. The file is stat'ed before UploadFile
// returns and opened once a worker picks the upload. The content type is
// detected from the content of the file.
func (m *Manager) UploadFile(ctx context.Context, bucket, key, path string) (*Upload, error) {
	src, err := url.New(path)
	if err != nil {
		return nil, err
	}
	dst := url.NewRemote(bucket, key)

	if err := validateRemote(bucket, key); err != nil {
		return nil, errorpkg.New("upload", src, dst, err)
	}

	obj, err := m.fs.Stat(path)
	if err != nil {
		return nil, errorpkg.New("upload", src, dst, err)
	}
	if m.fs.IsDir(path) {
		return nil, errorpkg.New("upload", src, dst, fmt.Errorf("%v is a directory", path))
	}

	u, err := m.newFileUpload(ctx, bucket, key, path, obj.Size)
	if err != nil {
		return nil, errorpkg.New("upload", src, dst, err)
	}
	if err := m.start(func() { m.runUpload(u) }); err != nil {
		u.cancel()
		return nil, u.wrapError(err)
	}
	return u, nil
}

// newFileUpload creates an upload of a local file which is not started yet.
func (m *Manager) newFileUpload(ctx context.Context, bucket, key, path string, size int64) (*Upload, error) {
	src, err := url.New(path)
	if err != nil {
		return nil, err
	}

	tctx, cancel, err := m.transferContext(ctx)
	if err != nil {
		return nil, err
	}

	var u *Upload
	u = newUpload(tctx, cancel, bucket, key, size, storage.Metadata{}, src, func() (io.Reader, error) {
		f, err := m.fs.Open(path)
		if err != nil {
			return nil, err
		}

		mtype, err := mimetype.DetectReader(f)
		if err == nil {
			u.metadata.ContentType = mtype.String()
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	})
	u.ownsSource = true
	return u, nil
}

// Download downloads an object into a local file. The object metadata is
// fetched before Download returns.
func (m *Manager) Download(ctx context.Context, bucket, key, path string) (*Download, error) {
	return m.download(ctx, bucket, key, path, nil)
}

// DownloadRange downloads the inclusive byte range of an object into a local
// file. The end of the range is capped at the end of the object.
func (m *Manager) DownloadRange(ctx context.Context, bucket, key, path string, rng storage.Range) (*Download, error) {
	return m.download(ctx, bucket, key, path, &rng)
}

func (m *Manager) download(ctx context.Context, bucket, key, path string, rng *storage.Range) (*Download, error) {
	src := url.NewRemote(bucket, key)
	dst, err := url.New(path)
	if err != nil {
		return nil, err
	}

	if err := validateRemote(bucket, key); err != nil {
		return nil, errorpkg.New("download", src, dst, err)
	}
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, errorpkg.New("download", src, dst, err)
		}
	}
	if m.isClosed() {
		return nil, errorpkg.New("download", src, dst, ErrShutdown)
	}

	obj, err := m.client.HeadObject(ctx, bucket, key)
	if err != nil {
		return nil, errorpkg.New("download", src, dst, err)
	}

	if rng != nil {
		if rng.Start >= obj.Size {
			err := fmt.Errorf("range start %d is beyond the object size %d", rng.Start, obj.Size)
			return nil, errorpkg.New("download", src, dst, err)
		}
		if rng.End >= obj.Size {
			rng.End = obj.Size - 1
		}
	}

	tctx, cancel, err := m.transferContext(ctx)
	if err != nil {
		return nil, errorpkg.New("download", src, dst, err)
	}

	d := newDownload(tctx, cancel, bucket, key, path, obj, rng)
	if err := m.start(func() { m.runDownload(d) }); err != nil {
		cancel()
		return nil, d.wrapError(err)
	}
	return d, nil
}

// Close waits for the running and the queued transfers, then stops the
// workers. Transfers can not be started after Close.
func (m *Manager) Close() {
	if !m.markClosed() {
		return
	}

	m.coordinators.Wait()
	m.pool.Close()
	m.stopTicker()
	m.cancel()
}

// ShutdownNow stops the manager without waiting for the running transfers.
// They end Canceled. Transfers can not be started after ShutdownNow.
func (m *Manager) ShutdownNow() {
	m.markClosed()

	m.cancel()
	go m.pool.Shutdown()
	m.stopTicker()
}

func (m *Manager) markClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.closed = true
	return true
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// transferContext returns the context of a new transfer. It is canceled when
// ctx is done, when the manager shuts down or when cancel is called.
func (m *Manager) transferContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if m.isClosed() {
		return nil, nil, ErrShutdown
	}

	tctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)
	return tctx, func() {
		stop()
		cancel()
	}, nil
}

// start runs a transfer coordinator on its own goroutine.
func (m *Manager) start(fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrShutdown
	}

	m.coordinators.Add(1)
	go func() {
		defer m.coordinators.Done()
		fn()
	}()
	return nil
}

func (m *Manager) track(t Transfer) {
	m.mu.Lock()
	m.active[t.ID()] = t
	m.mu.Unlock()
}

func (m *Manager) untrack(t Transfer) {
	m.mu.Lock()
	delete(m.active, t.ID())
	m.mu.Unlock()
}

// logProgress periodically logs the progress of the running transfers.
func (m *Manager) logProgress(interval time.Duration) {
	defer close(m.tickerDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.tickerStop:
			return
		case <-ticker.C:
			m.mu.Lock()
			active := make([]Transfer, 0, len(m.active))
			for _, t := range m.active {
				active = append(active, t)
			}
			m.mu.Unlock()

			for _, t := range active {
				log.Debug(progressMessage(t))
			}
		}
	}
}

func (m *Manager) stopTicker() {
	if m.tickerStop == nil {
		return
	}

	m.mu.Lock()
	select {
	case <-m.tickerStop:
	default:
		close(m.tickerStop)
	}
	m.mu.Unlock()

	<-m.tickerDone
}

func progressMessage(t Transfer) log.ProgressMessage {
	p := t.Progress()
	return log.ProgressMessage{
		Transfer:         t.Description(),
		State:            t.State().String(),
		BytesTransferred: p.BytesTransferred(),
		TotalBytes:       p.TotalBytes(),
		Percent:          p.Percent(),
	}
}

func validateRemote(bucket, key string) error {
	if bucket == "" {
		return errors.New("bucket name cannot be empty")
	}
	if key == "" {
		return errors.New("key cannot be empty")
	}
	return nil
}
