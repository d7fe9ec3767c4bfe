package transfer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	errorpkg "github.com/peak/s5transfer/error"
	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/parallel"
	"github.com/peak/s5transfer/storage"
)

// abortTimeout bounds the best-effort abort of a failed multipart upload.
const abortTimeout = time.Minute

// errTooManyParts is returned for streams which do not fit in MaxUploadParts
// parts of the configured size.
var errTooManyParts = fmt.Errorf("stream exceeds %d parts", MaxUploadParts)

// multipartUpload coordinates the parts of a single multipart upload.
type multipartUpload struct {
	m        *Manager
	u        *Upload
	uploadID string

	// ctx is canceled on the first part failure, which stops the sibling
	// parts.
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	futures []*parallel.Future
}

func (m *Manager) initiateMultipart(u *Upload) (*multipartUpload, error) {
	var uploadID string
	future := m.pool.Submit(u.ctx, func(ctx context.Context) error {
		var err error
		uploadID, err = m.client.InitiateMultipartUpload(ctx, u.bucket, u.key, u.metadata)
		return err
	})
	if err := waitFuture(future); err != nil {
		return nil, err
	}
	u.setUploadID(uploadID)

	ctx, cancel := context.WithCancel(u.ctx)
	return &multipartUpload{
		m:        m,
		u:        u,
		uploadID: uploadID,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// fail records the first failure and cancels the remaining parts.
// Cancelations are not recorded since they are the result of an earlier
// failure or of an abort.
func (mp *multipartUpload) fail(err error) {
	mp.mu.Lock()
	if mp.err == nil && !errorpkg.IsCancelation(err) {
		mp.err = err
	}
	mp.mu.Unlock()
	mp.cancel()
}

// submitPart queues the upload of a single part. release, if not nil, is
// called once the part is done.
func (mp *multipartUpload) submitPart(number int, body io.ReadSeeker, size int64, release func()) {
	u := mp.u
	future := mp.m.pool.Submit(mp.ctx, func(ctx context.Context) error {
		part, err := mp.m.client.UploadPart(ctx, &storage.UploadPartInput{
			Bucket:     u.bucket,
			Key:        u.key,
			UploadID:   mp.uploadID,
			PartNumber: number,
			Body:       body,
			Size:       size,
		})
		if err != nil {
			mp.fail(err)
			return err
		}

		part.PartNumber = number
		u.addPart(*part)
		u.listeners.BytesTransferred(size)
		return nil
	})
	mp.futures = append(mp.futures, future)

	if release != nil {
		go func() {
			<-future.Done()
			release()
		}()
	}
}

// wait joins every submitted part and returns the first failure.
func (mp *multipartUpload) wait() error {
	var futureErr error
	for _, f := range mp.futures {
		if err := waitFuture(f); err != nil && futureErr == nil {
			futureErr = err
		}
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.err != nil {
		return mp.err
	}
	if err := mp.u.ctx.Err(); err != nil {
		return err
	}
	return futureErr
}

// finish completes the upload if err is nil. Otherwise, or if completing
// fails, the upload is aborted once.
func (mp *multipartUpload) finish(err error) (*storage.Object, error) {
	defer mp.cancel()

	if err == nil {
		parts := mp.u.CompletedParts()

		var obj *storage.Object
		future := mp.m.pool.Submit(mp.u.ctx, func(ctx context.Context) error {
			var err error
			obj, err = mp.m.client.CompleteMultipartUpload(ctx, mp.u.bucket, mp.u.key, mp.uploadID, parts)
			return err
		})
		if err = waitFuture(future); err == nil {
			return obj, nil
		}
	}

	mp.abort()
	return nil, err
}

// abort releases the server side resources of the upload. It runs on the
// coordinator even when the upload is canceled or the pool is shut down.
func (mp *multipartUpload) abort() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(mp.u.ctx), abortTimeout)
	defer cancel()

	err := mp.m.client.AbortMultipartUpload(ctx, mp.u.bucket, mp.u.key, mp.uploadID)
	if err != nil {
		log.Warning(log.WarningMessage{
			Operation: "abort",
			Command:   fmt.Sprintf("abort %v %v", mp.u.dst, mp.uploadID),
			Err:       err.Error(),
		})
		return
	}
	log.Debugf("aborted multipart upload %v of %v", mp.uploadID, mp.u.dst)
}

// uploadReaderAt uploads a source of known size which supports random
// access. Parts are section readers over the source, so nothing is buffered.
func (m *Manager) uploadReaderAt(u *Upload, r io.ReaderAt, size int64) (*storage.Object, error) {
	partSize := m.opts.partSize(size)

	mp, err := m.initiateMultipart(u)
	if err != nil {
		return nil, err
	}

	n := partCount(size, partSize)
	for i := 0; i < n; i++ {
		if mp.ctx.Err() != nil {
			break
		}

		offset := int64(i) * partSize
		length := partSize
		if remaining := size - offset; remaining < length {
			length = remaining
		}
		mp.submitPart(i+1, io.NewSectionReader(r, offset, length), length, nil)
	}

	return mp.finish(mp.wait())
}

// uploadStream uploads a sequential source. Sources of known size are read
// up to their size and fail if they end early. A stream of unknown length
// which fits in a single part is sent with a single request.
func (m *Manager) uploadStream(u *Upload, r io.Reader) (*storage.Object, error) {
	known := u.size >= 0

	partSize := m.opts.PartSize
	if known {
		partSize = m.opts.partSize(u.size)
		r = io.LimitReader(r, u.size)
	}
	br := bufio.NewReader(r)

	if err := m.partBuffers.Acquire(u.ctx, 1); err != nil {
		return nil, err
	}
	release := func() { m.partBuffers.Release(1) }

	buf, last, err := readPart(br, partSize)
	if err != nil {
		release()
		return nil, err
	}

	if last && !known {
		defer release()
		size := int64(len(buf))
		u.progress.setTotal(size)
		return m.putObject(u, bytes.NewReader(buf), size)
	}

	mp, err := m.initiateMultipart(u)
	if err != nil {
		release()
		return nil, err
	}

	var total int64
	for number := 1; ; number++ {
		size := int64(len(buf))
		mp.submitPart(number, bytes.NewReader(buf), size, release)
		total += size

		if last {
			break
		}
		if number == MaxUploadParts {
			mp.fail(errTooManyParts)
			break
		}

		if err := m.partBuffers.Acquire(mp.ctx, 1); err != nil {
			break
		}
		buf, last, err = readPart(br, partSize)
		if err != nil {
			release()
			mp.fail(err)
			break
		}
	}

	switch {
	case !last:
	case known && total != u.size:
		mp.fail(truncatedSourceError(total, u.size))
	case !known:
		u.progress.setTotal(total)
	}
	return mp.finish(mp.wait())
}

// readPart reads the next part of the stream. last is set if the stream has
// no data after the returned part.
func readPart(r *bufio.Reader, partSize int64) (buf []byte, last bool, err error) {
	buf = make([]byte, partSize)
	n, err := io.ReadFull(r, buf)
	switch err {
	case nil:
		if _, err := r.Peek(1); err != nil {
			if err == io.EOF {
				return buf, true, nil
			}
			return nil, false, err
		}
		return buf, false, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return buf[:n], true, nil
	default:
		return nil, false, err
	}
}
