// Package storage defines the object storage operations the transfer manager
// is built on, and implements them for S3 compatible services.
package storage

//go:generate mockgen -destination=mock_storage.go -package=storage github.com/peak/s5transfer/storage Storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/peak/s5transfer/storage/url"
)

const dateFormat = "2006/01/02 15:04:05"

var (
	// ErrGivenObjectNotFound indicates a specified object is not found.
	ErrGivenObjectNotFound = fmt.Errorf("given object not found")

	// ErrNoObjectFound indicates there are no objects found from a given directory.
	ErrNoObjectFound = fmt.Errorf("no object found")

	// ErrNotDirectory indicates the given local path is not an existing
	// directory.
	ErrNotDirectory = fmt.Errorf("must provide a directory")
)

// Storage is the narrow object storage interface consumed by the transfer
// manager. Implementations must be safe for concurrent use.
type Storage interface {
	// PutObject uploads the object in a single request.
	PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, metadata Metadata) (*Object, error)

	// HeadObject retrieves the metadata of an object without its content.
	HeadObject(ctx context.Context, bucket, key string) (*Object, error)

	// GetObject opens the content of an object. If rng is not nil, only the
	// given byte range is returned. Callers must close the returned reader.
	GetObject(ctx context.Context, bucket, key string, rng *Range) (io.ReadCloser, *Object, error)

	// InitiateMultipartUpload starts a multipart upload and returns its id.
	InitiateMultipartUpload(ctx context.Context, bucket, key string, metadata Metadata) (string, error)

	// UploadPart uploads a single part of a multipart upload.
	UploadPart(ctx context.Context, input *UploadPartInput) (*Part, error)

	// CompleteMultipartUpload assembles the previously uploaded parts. Parts
	// must be sorted by their part numbers.
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []Part) (*Object, error)

	// AbortMultipartUpload aborts a multipart upload and frees the storage
	// consumed by its parts.
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error

	// ListObjects returns a single page of objects.
	ListObjects(ctx context.Context, input *ListObjectsInput) (*ObjectListing, error)

	// ListMultipartUploads returns a single page of in-progress multipart
	// uploads, starting after the given markers.
	ListMultipartUploads(ctx context.Context, bucket, keyMarker, uploadIDMarker string) (*MultipartUploadListing, error)
}

// Metadata holds the attributes set on uploaded objects.
type Metadata struct {
	ContentType  string
	StorageClass string
	UserDefined  map[string]string
}

// Object is a generic type which contains metadata for storage items.
type Object struct {
	URL          *url.URL     `json:"key,omitempty"`
	Etag         string       `json:"etag,omitempty"`
	ModTime      *time.Time   `json:"last_modified,omitempty"`
	Size         int64        `json:"size,omitempty"`
	StorageClass StorageClass `json:"storage_class,omitempty"`
	ContentType  string       `json:"content_type,omitempty"`
	Encryption   string       `json:"encryption,omitempty"`
}

// Server side encryption modes reported in Object.Encryption.
const (
	EncryptionAES256 = "AES256"
	EncryptionKMS    = "aws:kms"
	EncryptionSSEC   = "SSE-C"
)

// String returns the string representation of Object.
func (o *Object) String() string {
	return o.URL.String()
}

// Key returns the key of the object.
func (o *Object) Key() string {
	if o.URL == nil {
		return ""
	}
	return o.URL.Path
}

// Range is an inclusive byte range of an object, as used by HTTP range
// requests.
type Range struct {
	Start int64
	End   int64
}

// Size returns the number of bytes covered by the range.
func (r Range) Size() int64 {
	return r.End - r.Start + 1
}

// String returns the HTTP Range header value of r.
func (r Range) String() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Validate checks that r describes a non-empty range.
func (r Range) Validate() error {
	if r.Start < 0 || r.End < r.Start {
		return fmt.Errorf("invalid byte range %d-%d", r.Start, r.End)
	}
	return nil
}

// UploadPartInput is the input of a single part upload.
type UploadPartInput struct {
	Bucket     string
	Key        string
	UploadID   string
	PartNumber int
	Body       io.ReadSeeker
	Size       int64
}

// Part is an uploaded part of a multipart upload.
type Part struct {
	PartNumber int
	Etag       string
	Size       int64
}

// ListObjectsInput is the input of a single listing request.
type ListObjectsInput struct {
	Bucket    string
	Prefix    string
	Delimiter string
	Marker    string
	MaxKeys   int64
}

// ObjectListing is a single page of a listing.
type ObjectListing struct {
	Objects        []*Object
	CommonPrefixes []string
	IsTruncated    bool
	NextMarker     string
}

// MultipartUpload is an in-progress multipart upload.
type MultipartUpload struct {
	URL       *url.URL  `json:"key"`
	UploadID  string    `json:"upload_id"`
	Initiated time.Time `json:"initiated"`
}

// String returns the string representation of MultipartUpload.
func (m MultipartUpload) String() string {
	return fmt.Sprintf("%s  %s %s", m.Initiated.Format(dateFormat), m.URL, m.UploadID)
}

// MultipartUploadListing is a single page of in-progress multipart uploads.
type MultipartUploadListing struct {
	Uploads            []MultipartUpload
	IsTruncated        bool
	NextKeyMarker      string
	NextUploadIDMarker string
}

// StorageClass represents the storage used to store an object.
type StorageClass string

// IsGlacier checks if the storage class is glacier.
func (s StorageClass) IsGlacier() bool {
	return s == StorageClassGlacier
}

const (
	// StorageClassStandard is a standard storage class type.
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy is a reduced redundancy storage class type.
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassGlacier is a glacier storage class type.
	StorageClassGlacier StorageClass = "GLACIER"
)

// IsCancelationError reports whether err is a request cancelation returned by
// one of the storage implementations.
func IsCancelationError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return errHasCode(err, requestCanceledCode)
}
