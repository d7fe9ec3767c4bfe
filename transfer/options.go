package transfer

import (
	"fmt"
	"time"
)

const (
	// DefaultConcurrency is the default number of workers.
	DefaultConcurrency = 10

	// DefaultMultipartThreshold is the size above which uploads are split
	// into parts.
	DefaultMultipartThreshold = 16 * 1024 * 1024

	// DefaultPartSize is the default size of a part.
	DefaultPartSize = 5 * 1024 * 1024

	// MinPartSize is the smallest part size accepted by S3 for all but the
	// last part of an upload.
	MinPartSize = 5 * 1024 * 1024

	// MaxUploadParts is the maximum number of parts of a multipart upload.
	MaxUploadParts = 10000

	// DefaultDelimiter is the virtual directory delimiter of listings.
	DefaultDelimiter = "/"

	// DefaultProgressInterval is the period of progress log ticks.
	DefaultProgressInterval = 5 * time.Second
)

// UnknownLengthPolicy decides how uploads of unknown length are sent.
type UnknownLengthPolicy int

const (
	// BufferInMemory reads the whole stream into memory and uploads it with
	// a single request.
	BufferInMemory UnknownLengthPolicy = iota

	// StreamParts reads the stream part by part and uploads it as a
	// multipart upload. Streams which fit in a single part are uploaded with
	// a single request. At most Concurrency parts are buffered at once
	// across all streaming uploads of a manager.
	StreamParts
)

// String returns the string representation of UnknownLengthPolicy.
func (p UnknownLengthPolicy) String() string {
	switch p {
	case BufferInMemory:
		return "buffer"
	case StreamParts:
		return "stream"
	default:
		return "unknown"
	}
}

// ParseUnknownLengthPolicy parses the string representation of a policy.
func ParseUnknownLengthPolicy(s string) (UnknownLengthPolicy, error) {
	switch s {
	case "", "buffer":
		return BufferInMemory, nil
	case "stream":
		return StreamParts, nil
	default:
		return 0, fmt.Errorf("unknown length policy %q must be one of buffer, stream", s)
	}
}

// Options configures a Manager. Zero values are replaced with defaults.
type Options struct {
	// Concurrency is the number of workers of the shared pool. It also
	// bounds the number of transfers which are coordinated at once.
	Concurrency int

	// MultipartThreshold is the size above which uploads of known length
	// are split into parts.
	MultipartThreshold int64

	// PartSize is the size of each part. It is grown for large uploads so
	// that no upload exceeds MaxUploadParts parts.
	PartSize int64

	// UnknownLength is the policy of uploads of unknown length.
	UnknownLength UnknownLengthPolicy

	// Delimiter is the virtual directory delimiter of remote listings.
	Delimiter string

	// ProgressInterval is the period of progress log ticks. Negative values
	// disable the ticks.
	ProgressInterval time.Duration

	// SkipChecksum disables the MD5 verification of downloads. Ranged
	// downloads, multipart objects and objects encrypted with KMS or
	// customer provided keys are never verified.
	SkipChecksum bool

	// PreserveModTime sets the modification time of downloaded files to the
	// modification time of the remote object.
	PreserveModTime bool
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MultipartThreshold <= 0 {
		o.MultipartThreshold = DefaultMultipartThreshold
	}
	if o.PartSize <= 0 {
		o.PartSize = DefaultPartSize
	}
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	return o
}

// partSize returns the part size of an upload of the given size. The
// configured part size is grown until the upload fits in MaxUploadParts
// parts.
func (o Options) partSize(size int64) int64 {
	partSize := o.PartSize
	if size > partSize*MaxUploadParts {
		partSize = (size + MaxUploadParts - 1) / MaxUploadParts
	}
	return partSize
}

// partCount returns the number of parts of an upload of the given size.
func partCount(size, partSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + partSize - 1) / partSize)
}
