package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	errorpkg "github.com/peak/s5transfer/error"
	"github.com/peak/s5transfer/log"
	"github.com/peak/s5transfer/storage/url"
)

// AbortMultipartUploads aborts the in-progress multipart uploads of bucket
// which are initiated before the given time. Every page of the listing is
// processed. Abort failures do not stop the listing and are returned
// together.
func (m *Manager) AbortMultipartUploads(ctx context.Context, bucket string, before time.Time) error {
	src := url.NewRemote(bucket, "")
	if bucket == "" {
		return errorpkg.New("abortmp", src, nil, fmt.Errorf("bucket name cannot be empty"))
	}

	var merr error
	var keyMarker, uploadIDMarker string
	for {
		listing, err := m.client.ListMultipartUploads(ctx, bucket, keyMarker, uploadIDMarker)
		if err != nil {
			merr = multierror.Append(merr, errorpkg.New("abortmp", src, nil, err))
			return merr
		}

		for _, upload := range listing.Uploads {
			if !upload.Initiated.Before(before) {
				continue
			}

			err := m.client.AbortMultipartUpload(ctx, bucket, upload.URL.Path, upload.UploadID)
			if err != nil {
				merr = multierror.Append(merr, errorpkg.New("abortmp", upload.URL, nil, err))
				continue
			}
			log.Info(log.InfoMessage{
				Operation: "abortmp",
				Source:    upload.URL,
			})
		}

		if !listing.IsTruncated {
			break
		}
		if listing.NextKeyMarker == keyMarker && listing.NextUploadIDMarker == uploadIDMarker {
			// the listing would repeat itself
			break
		}
		keyMarker, uploadIDMarker = listing.NextKeyMarker, listing.NextUploadIDMarker
	}
	return merr
}
