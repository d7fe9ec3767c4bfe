package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/peak/s5transfer/storage/url"
)

var _ Storage = (*Minio)(nil)

const defaultMinioEndpoint = "https://s3.amazonaws.com"

// Minio is a storage type which talks to S3 compatible services through the
// low level minio-go Core API.
type Minio struct {
	core *minio.Core
}

// NewMinioStorage creates a new minio-go backed storage.
func NewMinioStorage(opts Options) (*Minio, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultMinioEndpoint
	}

	u, err := neturl.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	secure := u.Scheme == "https"

	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	creds := credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, "")
	if opts.AccessKeyID == "" {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.FileAWSCredentials{},
		})
	}

	minioOpts := &minio.Options{
		Creds:        creds,
		Secure:       secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	}

	if opts.NoVerifySSL {
		transport, err := minio.DefaultTransport(secure)
		if err != nil {
			return nil, err
		}
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
		minioOpts.Transport = transport
	}

	core, err := minio.NewCore(u.Host, minioOpts)
	if err != nil {
		return nil, err
	}
	return &Minio{core: core}, nil
}

func putOptions(metadata Metadata) minio.PutObjectOptions {
	return minio.PutObjectOptions{
		ContentType:  contentTypeOf(metadata),
		StorageClass: metadata.StorageClass,
		UserMetadata: metadata.UserDefined,
	}
}

// PutObject uploads the object in a single request.
func (m *Minio) PutObject(
	ctx context.Context,
	bucket, key string,
	body io.ReadSeeker,
	size int64,
	metadata Metadata,
) (*Object, error) {
	info, err := m.core.PutObject(ctx, bucket, key, body, size, "", "", putOptions(metadata))
	if err != nil {
		return nil, err
	}
	return &Object{
		URL:  url.NewRemote(bucket, key),
		Etag: cleanEtag(info.ETag),
		Size: size,
	}, nil
}

// HeadObject retrieves the metadata of an object.
func (m *Minio) HeadObject(ctx context.Context, bucket, key string) (*Object, error) {
	info, err := m.core.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinioNotFound(err) {
			return nil, ErrGivenObjectNotFound
		}
		return nil, err
	}
	return objectFromInfo(bucket, info), nil
}

// GetObject opens the content of an object, optionally limited to the given
// byte range.
func (m *Minio) GetObject(ctx context.Context, bucket, key string, rng *Range) (io.ReadCloser, *Object, error) {
	var getOpts minio.GetObjectOptions
	if rng != nil {
		if err := getOpts.SetRange(rng.Start, rng.End); err != nil {
			return nil, nil, err
		}
	}

	body, info, _, err := m.core.GetObject(ctx, bucket, key, getOpts)
	if err != nil {
		if isMinioNotFound(err) {
			return nil, nil, ErrGivenObjectNotFound
		}
		return nil, nil, err
	}
	return body, objectFromInfo(bucket, info), nil
}

// InitiateMultipartUpload starts a multipart upload and returns its id.
func (m *Minio) InitiateMultipartUpload(ctx context.Context, bucket, key string, metadata Metadata) (string, error) {
	return m.core.NewMultipartUpload(ctx, bucket, key, putOptions(metadata))
}

// UploadPart uploads a single part of a multipart upload.
func (m *Minio) UploadPart(ctx context.Context, input *UploadPartInput) (*Part, error) {
	part, err := m.core.PutObjectPart(
		ctx,
		input.Bucket,
		input.Key,
		input.UploadID,
		input.PartNumber,
		input.Body,
		input.Size,
		minio.PutObjectPartOptions{},
	)
	if err != nil {
		return nil, err
	}
	return &Part{
		PartNumber: input.PartNumber,
		Etag:       cleanEtag(part.ETag),
		Size:       input.Size,
	}, nil
}

// CompleteMultipartUpload assembles previously uploaded parts.
func (m *Minio) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []Part) (*Object, error) {
	completed := make([]minio.CompletePart, 0, len(parts))
	var size int64
	for _, p := range parts {
		completed = append(completed, minio.CompletePart{
			PartNumber: p.PartNumber,
			ETag:       strconv.Quote(p.Etag),
		})
		size += p.Size
	}

	info, err := m.core.CompleteMultipartUpload(ctx, bucket, key, uploadID, completed, minio.PutObjectOptions{})
	if err != nil {
		return nil, err
	}
	return &Object{
		URL:  url.NewRemote(bucket, key),
		Etag: cleanEtag(info.ETag),
		Size: size,
	}, nil
}

// AbortMultipartUpload aborts a multipart upload.
func (m *Minio) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	return m.core.AbortMultipartUpload(ctx, bucket, key, uploadID)
}

// ListObjects returns a single page of objects and common prefixes. The
// underlying call does not take a context, so cancelation is only checked
// before the request is sent.
func (m *Minio) ListObjects(ctx context.Context, input *ListObjectsInput) (*ObjectListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := m.core.ListObjects(input.Bucket, input.Prefix, input.Marker, input.Delimiter, int(input.MaxKeys))
	if err != nil {
		return nil, err
	}

	listing := &ObjectListing{
		IsTruncated: result.IsTruncated,
		NextMarker:  result.NextMarker,
	}
	for _, p := range result.CommonPrefixes {
		listing.CommonPrefixes = append(listing.CommonPrefixes, p.Prefix)
	}
	for _, info := range result.Contents {
		listing.Objects = append(listing.Objects, objectFromInfo(input.Bucket, info))
	}

	if listing.IsTruncated && listing.NextMarker == "" {
		listing.NextMarker = lastMarker(listing)
	}
	return listing, nil
}

// ListMultipartUploads returns a single page of in-progress multipart uploads.
func (m *Minio) ListMultipartUploads(ctx context.Context, bucket, keyMarker, uploadIDMarker string) (*MultipartUploadListing, error) {
	result, err := m.core.ListMultipartUploads(ctx, bucket, "", keyMarker, uploadIDMarker, "", 0)
	if err != nil {
		return nil, err
	}

	listing := &MultipartUploadListing{
		IsTruncated:        result.IsTruncated,
		NextKeyMarker:      result.NextKeyMarker,
		NextUploadIDMarker: result.NextUploadIDMarker,
	}
	for _, u := range result.Uploads {
		listing.Uploads = append(listing.Uploads, MultipartUpload{
			URL:       url.NewRemote(bucket, u.Key),
			UploadID:  u.UploadID,
			Initiated: u.Initiated,
		})
	}
	return listing, nil
}

func objectFromInfo(bucket string, info minio.ObjectInfo) *Object {
	var modTime *time.Time
	if !info.LastModified.IsZero() {
		mod := info.LastModified
		modTime = &mod
	}
	return &Object{
		URL:          url.NewRemote(bucket, info.Key),
		Etag:         cleanEtag(info.ETag),
		ModTime:      modTime,
		Size:         info.Size,
		StorageClass: StorageClass(info.StorageClass),
		ContentType:  info.ContentType,
		Encryption:   minioEncryption(info.Metadata),
	}
}

func minioEncryption(h http.Header) string {
	if h.Get("X-Amz-Server-Side-Encryption-Customer-Algorithm") != "" {
		return EncryptionSSEC
	}
	return h.Get("X-Amz-Server-Side-Encryption")
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
