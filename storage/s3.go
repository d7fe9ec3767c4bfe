package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/endpoints"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/peak/s5transfer/storage/url"
)

var _ Storage = (*S3)(nil)

const (
	requestCanceledCode = request.CanceledErrorCode

	// notFoundCode is returned by HEAD requests of missing objects.
	notFoundCode = "NotFound"
)

// Options stores configuration for remote storage clients.
type Options struct {
	MaxRetries      int
	Endpoint        string
	Region          string
	NoVerifySSL     bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3 is a storage type which interacts with S3API.
type S3 struct {
	api s3iface.S3API
}

// NewS3Storage creates new S3 session.
func NewS3Storage(opts Options) (*S3, error) {
	awsSession, err := newAWSSession(opts)
	if err != nil {
		return nil, err
	}

	return &S3{
		api: s3.New(awsSession),
	}, nil
}

// PutObject uploads the object in a single request.
func (s *S3) PutObject(
	ctx context.Context,
	bucket, key string,
	body io.ReadSeeker,
	size int64,
	metadata Metadata,
) (*Object, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentTypeOf(metadata)),
	}
	if metadata.StorageClass != "" {
		input.StorageClass = aws.String(metadata.StorageClass)
	}
	if len(metadata.UserDefined) > 0 {
		input.Metadata = aws.StringMap(metadata.UserDefined)
	}

	output, err := s.api.PutObjectWithContext(ctx, input)
	if err != nil {
		return nil, err
	}

	return &Object{
		URL:  url.NewRemote(bucket, key),
		Etag: cleanEtag(aws.StringValue(output.ETag)),
		Size: size,
	}, nil
}

// HeadObject retrieves metadata from S3 object without returning the object
// itself.
func (s *S3) HeadObject(ctx context.Context, bucket, key string) (*Object, error) {
	output, err := s.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if errHasCode(err, notFoundCode) {
			return nil, ErrGivenObjectNotFound
		}
		return nil, err
	}

	return &Object{
		URL:          url.NewRemote(bucket, key),
		Etag:         cleanEtag(aws.StringValue(output.ETag)),
		ModTime:      output.LastModified,
		Size:         aws.Int64Value(output.ContentLength),
		StorageClass: StorageClass(aws.StringValue(output.StorageClass)),
		ContentType:  aws.StringValue(output.ContentType),
		Encryption:   encryptionOf(output.ServerSideEncryption, output.SSECustomerAlgorithm),
	}, nil
}

// GetObject opens the content of an S3 object, optionally limited to the
// given byte range.
func (s *S3) GetObject(ctx context.Context, bucket, key string, rng *Range) (io.ReadCloser, *Object, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if rng != nil {
		input.Range = aws.String(rng.String())
	}

	output, err := s.api.GetObjectWithContext(ctx, input)
	if err != nil {
		if errHasCode(err, s3.ErrCodeNoSuchKey) {
			return nil, nil, ErrGivenObjectNotFound
		}
		return nil, nil, err
	}

	return output.Body, &Object{
		URL:          url.NewRemote(bucket, key),
		Etag:         cleanEtag(aws.StringValue(output.ETag)),
		ModTime:      output.LastModified,
		Size:         aws.Int64Value(output.ContentLength),
		StorageClass: StorageClass(aws.StringValue(output.StorageClass)),
		ContentType:  aws.StringValue(output.ContentType),
		Encryption:   encryptionOf(output.ServerSideEncryption, output.SSECustomerAlgorithm),
	}, nil
}

// encryptionOf returns the encryption mode of an object from its response
// headers. Customer provided keys take precedence.
func encryptionOf(sse, customerAlgorithm *string) string {
	if aws.StringValue(customerAlgorithm) != "" {
		return EncryptionSSEC
	}
	return aws.StringValue(sse)
}

// InitiateMultipartUpload starts a multipart upload and returns its id.
func (s *S3) InitiateMultipartUpload(ctx context.Context, bucket, key string, metadata Metadata) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentTypeOf(metadata)),
	}
	if metadata.StorageClass != "" {
		input.StorageClass = aws.String(metadata.StorageClass)
	}
	if len(metadata.UserDefined) > 0 {
		input.Metadata = aws.StringMap(metadata.UserDefined)
	}

	output, err := s.api.CreateMultipartUploadWithContext(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.StringValue(output.UploadId), nil
}

// UploadPart uploads a single part of a multipart upload.
func (s *S3) UploadPart(ctx context.Context, input *UploadPartInput) (*Part, error) {
	output, err := s.api.UploadPartWithContext(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(input.Bucket),
		Key:           aws.String(input.Key),
		UploadId:      aws.String(input.UploadID),
		PartNumber:    aws.Int64(int64(input.PartNumber)),
		Body:          input.Body,
		ContentLength: aws.Int64(input.Size),
	})
	if err != nil {
		return nil, err
	}

	return &Part{
		PartNumber: input.PartNumber,
		Etag:       cleanEtag(aws.StringValue(output.ETag)),
		Size:       input.Size,
	}, nil
}

// CompleteMultipartUpload assembles previously uploaded parts.
func (s *S3) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []Part) (*Object, error) {
	completed := make([]*s3.CompletedPart, 0, len(parts))
	var size int64
	for _, p := range parts {
		completed = append(completed, &s3.CompletedPart{
			ETag:       aws.String(strconv.Quote(p.Etag)),
			PartNumber: aws.Int64(int64(p.PartNumber)),
		})
		size += p.Size
	}

	output, err := s.api.CompleteMultipartUploadWithContext(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &s3.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Object{
		URL:  url.NewRemote(bucket, key),
		Etag: cleanEtag(aws.StringValue(output.ETag)),
		Size: size,
	}, nil
}

// AbortMultipartUpload aborts a multipart upload.
func (s *S3) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := s.api.AbortMultipartUploadWithContext(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return err
}

// ListObjects returns a single page of objects and common prefixes.
func (s *S3) ListObjects(ctx context.Context, input *ListObjectsInput) (*ObjectListing, error) {
	listInput := &s3.ListObjectsInput{
		Bucket: aws.String(input.Bucket),
		Prefix: aws.String(input.Prefix),
	}
	if input.Delimiter != "" {
		listInput.SetDelimiter(input.Delimiter)
	}
	if input.Marker != "" {
		listInput.SetMarker(input.Marker)
	}
	if input.MaxKeys > 0 {
		listInput.SetMaxKeys(input.MaxKeys)
	}

	output, err := s.api.ListObjectsWithContext(ctx, listInput)
	if err != nil {
		return nil, err
	}

	listing := &ObjectListing{
		IsTruncated: aws.BoolValue(output.IsTruncated),
		NextMarker:  aws.StringValue(output.NextMarker),
	}

	for _, c := range output.CommonPrefixes {
		listing.CommonPrefixes = append(listing.CommonPrefixes, aws.StringValue(c.Prefix))
	}

	for _, c := range output.Contents {
		listing.Objects = append(listing.Objects, &Object{
			URL:          url.NewRemote(input.Bucket, aws.StringValue(c.Key)),
			Etag:         cleanEtag(aws.StringValue(c.ETag)),
			ModTime:      c.LastModified,
			Size:         aws.Int64Value(c.Size),
			StorageClass: StorageClass(aws.StringValue(c.StorageClass)),
		})
	}

	// NextMarker is only returned when a delimiter is given. Otherwise the
	// last key of the page is the marker of the next page.
	if listing.IsTruncated && listing.NextMarker == "" {
		listing.NextMarker = lastMarker(listing)
	}

	return listing, nil
}

// ListMultipartUploads returns a single page of in-progress multipart uploads.
func (s *S3) ListMultipartUploads(ctx context.Context, bucket, keyMarker, uploadIDMarker string) (*MultipartUploadListing, error) {
	input := &s3.ListMultipartUploadsInput{
		Bucket: aws.String(bucket),
	}
	if keyMarker != "" {
		input.SetKeyMarker(keyMarker)
	}
	if uploadIDMarker != "" {
		input.SetUploadIdMarker(uploadIDMarker)
	}

	output, err := s.api.ListMultipartUploadsWithContext(ctx, input)
	if err != nil {
		return nil, err
	}

	listing := &MultipartUploadListing{
		IsTruncated:        aws.BoolValue(output.IsTruncated),
		NextKeyMarker:      aws.StringValue(output.NextKeyMarker),
		NextUploadIDMarker: aws.StringValue(output.NextUploadIdMarker),
	}
	for _, u := range output.Uploads {
		listing.Uploads = append(listing.Uploads, MultipartUpload{
			URL:       url.NewRemote(bucket, aws.StringValue(u.Key)),
			UploadID:  aws.StringValue(u.UploadId),
			Initiated: aws.TimeValue(u.Initiated),
		})
	}
	return listing, nil
}

// newAWSSession initializes a new AWS session with region fallback and custom
// options.
func newAWSSession(opts Options) (*session.Session, error) {
	newSession := func(c *aws.Config) (*session.Session, error) {
		useSharedConfig := session.SharedConfigEnable

		// Reverse of what the SDK does: if AWS_SDK_LOAD_CONFIG is 0 (or a falsy value) disable shared configs
		loadCfg := os.Getenv("AWS_SDK_LOAD_CONFIG")
		if loadCfg != "" {
			if enable, _ := strconv.ParseBool(loadCfg); !enable {
				useSharedConfig = session.SharedConfigDisable
			}
		}
		return session.NewSessionWithOptions(session.Options{Config: *c, SharedConfigState: useSharedConfig})
	}

	awsCfg := aws.NewConfig().WithMaxRetries(opts.MaxRetries)

	if opts.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(opts.Endpoint).WithS3ForcePathStyle(true)
	}

	if opts.AccessKeyID != "" {
		awsCfg = awsCfg.WithCredentials(
			credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretAccessKey, ""),
		)
	}

	if opts.NoVerifySSL {
		awsCfg = awsCfg.WithHTTPClient(&http.Client{Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}})
	}

	if opts.Region != "" {
		awsCfg = awsCfg.WithRegion(opts.Region)
		return newSession(awsCfg)
	}

	ses, err := newSession(awsCfg)
	if err != nil {
		return nil, err
	}
	if (*ses).Config.Region == nil || *(*ses).Config.Region == "" {
		// No region specified in env or config, fallback to us-east-1
		awsCfg = awsCfg.WithRegion(endpoints.UsEast1RegionID)
		ses, err = newSession(awsCfg)
	}

	return ses, err
}

func contentTypeOf(metadata Metadata) string {
	if metadata.ContentType == "" {
		return "application/octet-stream"
	}
	return metadata.ContentType
}

// cleanEtag removes the quotes S3 wraps ETags with.
func cleanEtag(etag string) string {
	return strings.Trim(etag, `"`)
}

// lastMarker returns the lexically greatest key or common prefix of the page.
func lastMarker(listing *ObjectListing) string {
	var marker string
	if n := len(listing.Objects); n > 0 {
		marker = listing.Objects[n-1].Key()
	}
	if n := len(listing.CommonPrefixes); n > 0 && listing.CommonPrefixes[n-1] > marker {
		marker = listing.CommonPrefixes[n-1]
	}
	return marker
}

func errHasCode(err error, code string) bool {
	if code == "" || err == nil {
		return false
	}

	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		if awsErr.Code() == code {
			return true
		}
	}
	return false
}
