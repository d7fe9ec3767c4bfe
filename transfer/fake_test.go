package transfer

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

type fakeObject struct {
	data        []byte
	size        int64
	etag        string
	contentType string
	encryption  string
	modTime     time.Time
}

// fakeStorage is an in-memory storage.Storage with failure injection.
// Multipart uploads only record part sizes, so large uploads do not allocate.
type fakeStorage struct {
	mu sync.Mutex

	objects map[string]*fakeObject
	uploads map[string]map[int]int64
	nextID  int

	putCalls       int
	partCalls      int
	completeCalls  int
	abortCalls     int
	completedParts []storage.Part

	// pageSize limits the number of entries of a listing page.
	pageSize int

	// failPart makes the upload of the part with this number fail.
	failPart int
	// blockParts makes part uploads block until their context is done.
	blockParts bool
	// failGet makes downloads of these keys fail.
	failGet map[string]error
	// blockGet makes object streams block until they are closed.
	blockGet bool
	// getStarted receives a value when GetObject returns a stream.
	getStarted chan struct{}
	// keepParts makes part uploads keep their content in partData.
	keepParts bool
	partData  map[int][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:    map[string]*fakeObject{},
		uploads:    map[string]map[int]int64{},
		failGet:    map[string]error{},
		getStarted: make(chan struct{}, 16),
		partData:   map[int][]byte{},
	}
}

func md5hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (f *fakeStorage) addObject(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key] = &fakeObject{
		data:    data,
		size:    int64(len(data)),
		etag:    md5hex(data),
		modTime: time.Date(2020, time.January, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fakeStorage) object(bucket, key string) (*fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket+"/"+key]
	return obj, ok
}

func (f *fakeStorage) calls() (put, part, complete, abort int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCalls, f.partCalls, f.completeCalls, f.abortCalls
}

func (f *fakeStorage) toObject(bucket, key string, obj *fakeObject) *storage.Object {
	mod := obj.modTime
	return &storage.Object{
		URL:        url.NewRemote(bucket, key),
		Etag:       obj.etag,
		ModTime:    &mod,
		Size:       obj.size,
		Encryption: obj.encryption,
	}
}

func (f *fakeStorage) PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, metadata storage.Metadata) (*storage.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("content length mismatch: %d != %d", len(data), size)
	}

	f.addObject(bucket, key, data)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+key].contentType = metadata.ContentType
	f.putCalls++
	return &storage.Object{URL: url.NewRemote(bucket, key), Etag: md5hex(data), Size: size, ContentType: metadata.ContentType}, nil
}

func (f *fakeStorage) HeadObject(ctx context.Context, bucket, key string) (*storage.Object, error) {
	obj, ok := f.object(bucket, key)
	if !ok {
		return nil, storage.ErrGivenObjectNotFound
	}
	return f.toObject(bucket, key, obj), nil
}

func (f *fakeStorage) GetObject(ctx context.Context, bucket, key string, rng *storage.Range) (io.ReadCloser, *storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	failErr := f.failGet[key]
	block := f.blockGet
	f.mu.Unlock()

	if failErr != nil {
		return nil, nil, failErr
	}

	obj, ok := f.object(bucket, key)
	if !ok {
		return nil, nil, storage.ErrGivenObjectNotFound
	}

	data := obj.data
	if rng != nil {
		data = data[rng.Start : rng.End+1]
	}

	var body io.ReadCloser = io.NopCloser(bytes.NewReader(data))
	if block {
		body = newBlockingBody()
	}

	select {
	case f.getStarted <- struct{}{}:
	default:
	}
	return body, f.toObject(bucket, key, obj), nil
}

func (f *fakeStorage) InitiateMultipartUpload(ctx context.Context, bucket, key string, metadata storage.Metadata) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.uploads[id] = map[int]int64{}
	return id, nil
}

func (f *fakeStorage) UploadPart(ctx context.Context, input *storage.UploadPartInput) (*storage.Part, error) {
	f.mu.Lock()
	f.partCalls++
	failPart, block := f.failPart, f.blockParts
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if input.PartNumber == failPart {
		return nil, fmt.Errorf("part %d: internal error", input.PartNumber)
	}

	f.mu.Lock()
	keep := f.keepParts
	f.mu.Unlock()

	var data bytes.Buffer
	var w io.Writer = io.Discard
	if keep {
		w = &data
	}
	n, err := io.Copy(w, input.Body)
	if err != nil {
		return nil, err
	}
	if n != input.Size {
		return nil, fmt.Errorf("part %d: read %d bytes, expected %d", input.PartNumber, n, input.Size)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	parts, ok := f.uploads[input.UploadID]
	if !ok {
		return nil, errors.New("no such upload")
	}
	parts[input.PartNumber] = n
	if keep {
		f.partData[input.PartNumber] = data.Bytes()
	}
	return &storage.Part{
		PartNumber: input.PartNumber,
		Etag:       fmt.Sprintf("etag-%d", input.PartNumber),
		Size:       n,
	}, nil
}

func (f *fakeStorage) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []storage.Part) (*storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.completeCalls++
	f.completedParts = append([]storage.Part(nil), parts...)

	uploaded, ok := f.uploads[uploadID]
	if !ok {
		return nil, errors.New("no such upload")
	}

	var size int64
	for _, p := range parts {
		n, ok := uploaded[p.PartNumber]
		if !ok {
			return nil, fmt.Errorf("part %d is not uploaded", p.PartNumber)
		}
		size += n
	}
	delete(f.uploads, uploadID)

	f.objects[bucket+"/"+key] = &fakeObject{size: size, etag: fmt.Sprintf("multipart-%d", len(parts))}
	return &storage.Object{URL: url.NewRemote(bucket, key), Size: size}, nil
}

func (f *fakeStorage) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.abortCalls++
	delete(f.uploads, uploadID)
	return nil
}

// ListObjects lists the objects of a bucket the way S3 does: keys which
// contain the delimiter after the prefix are rolled up into common prefixes,
// and entries are returned in lexical order after the marker.
func (f *fakeStorage) ListObjects(ctx context.Context, input *storage.ListObjectsInput) (*storage.ObjectListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type entry struct {
		name   string
		prefix bool
	}

	seen := map[string]bool{}
	var entries []entry
	for fullkey := range f.objects {
		bucket, key, _ := strings.Cut(fullkey, "/")
		if bucket != input.Bucket || !strings.HasPrefix(key, input.Prefix) {
			continue
		}

		rest := key[len(input.Prefix):]
		if input.Delimiter != "" {
			if i := strings.Index(rest, input.Delimiter); i >= 0 {
				p := input.Prefix + rest[:i+len(input.Delimiter)]
				if !seen[p] {
					seen[p] = true
					entries = append(entries, entry{name: p, prefix: true})
				}
				continue
			}
		}
		entries = append(entries, entry{name: key})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	listing := &storage.ObjectListing{}
	count := 0
	for _, e := range entries {
		if e.name <= input.Marker {
			continue
		}
		if f.pageSize > 0 && count == f.pageSize {
			listing.IsTruncated = true
			break
		}
		count++
		listing.NextMarker = e.name

		if e.prefix {
			listing.CommonPrefixes = append(listing.CommonPrefixes, e.name)
			continue
		}
		listing.Objects = append(listing.Objects, f.toObject(input.Bucket, e.name, f.objects[input.Bucket+"/"+e.name]))
	}
	if !listing.IsTruncated {
		listing.NextMarker = ""
	}
	return listing, nil
}

func (f *fakeStorage) ListMultipartUploads(ctx context.Context, bucket, keyMarker, uploadIDMarker string) (*storage.MultipartUploadListing, error) {
	return &storage.MultipartUploadListing{}, nil
}

// blockingBody is an object stream whose reads block until it is closed.
type blockingBody struct {
	closed chan struct{}
	once   sync.Once
}

func newBlockingBody() *blockingBody {
	return &blockingBody{closed: make(chan struct{})}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.closed
	return 0, errors.New("read on closed body")
}

func (b *blockingBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

// patternReader generates size bytes of deterministic content without
// allocating them.
type patternReader struct {
	size   int64
	offset int64
}

func (p *patternReader) ReadAt(b []byte, off int64) (int, error) {
	if off >= p.size {
		return 0, io.EOF
	}
	n := len(b)
	if remaining := p.size - off; int64(n) > remaining {
		n = int(remaining)
	}
	for i := 0; i < n; i++ {
		b[i] = byte((off + int64(i)) % 251)
	}
	if n < len(b) {
		return n, io.EOF
	}
	return n, nil
}

func (p *patternReader) Read(b []byte) (int, error) {
	n, err := p.ReadAt(b, p.offset)
	p.offset += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (p *patternReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekCurrent:
		offset += p.offset
	case io.SeekEnd:
		offset += p.size
	}
	if offset < 0 {
		return 0, errors.New("negative position")
	}
	p.offset = offset
	return offset, nil
}

// streamOnly hides every method of the reader but Read.
type streamOnly struct {
	io.Reader
}

// newTestManager returns a manager without progress ticks which is closed
// when the test ends.
func newTestManager(t *testing.T, client storage.Storage, opts Options) *Manager {
	t.Helper()

	opts.ProgressInterval = -1
	m := New(client, opts)
	t.Cleanup(m.ShutdownNow)
	return m
}

// waitTransfer waits for tr to end, failing the test if it takes too long.
func waitTransfer(t *testing.T, tr Transfer) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := tr.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) && !tr.IsDone() {
		t.Fatalf("%v did not end, state is %v", tr.Description(), tr.State())
	}
	return err
}

func partNumbers(parts []storage.Part) []int {
	numbers := make([]int, 0, len(parts))
	for _, p := range parts {
		numbers = append(numbers, p.PartNumber)
	}
	return numbers
}

func partSizes(parts []storage.Part) []int64 {
	sizes := make([]int64, 0, len(parts))
	for _, p := range parts {
		sizes = append(sizes, p.Size)
	}
	return sizes
}
