package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/hashicorp/go-multierror"
	"gotest.tools/v3/assert"

	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/storage/url"
)

func TestAbortMultipartUploads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := storage.NewMockStorage(ctrl)
	m := newTestManager(t, client, Options{})

	now := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	before := now.Add(-24 * time.Hour)

	upload := func(key, id string, initiated time.Time) storage.MultipartUpload {
		return storage.MultipartUpload{
			URL:       url.NewRemote("bucket", key),
			UploadID:  id,
			Initiated: initiated,
		}
	}

	gomock.InOrder(
		client.EXPECT().
			ListMultipartUploads(gomock.Any(), "bucket", "", "").
			Return(&storage.MultipartUploadListing{
				Uploads: []storage.MultipartUpload{
					upload("a", "1", now.Add(-48*time.Hour)),
					upload("b", "2", now),
				},
				IsTruncated:        true,
				NextKeyMarker:      "b",
				NextUploadIDMarker: "2",
			}, nil),
		client.EXPECT().
			AbortMultipartUpload(gomock.Any(), "bucket", "a", "1").
			Return(nil),
		client.EXPECT().
			ListMultipartUploads(gomock.Any(), "bucket", "b", "2").
			Return(&storage.MultipartUploadListing{
				Uploads: []storage.MultipartUpload{
					upload("c", "3", now.Add(-72*time.Hour)),
					upload("d", "4", now.Add(-30*time.Hour)),
				},
			}, nil),
		client.EXPECT().
			AbortMultipartUpload(gomock.Any(), "bucket", "c", "3").
			Return(errors.New("access denied")),
		client.EXPECT().
			AbortMultipartUpload(gomock.Any(), "bucket", "d", "4").
			Return(nil),
	)

	err := m.AbortMultipartUploads(context.Background(), "bucket", before)
	assert.ErrorContains(t, err, "access denied")

	var merr *multierror.Error
	assert.Assert(t, errors.As(err, &merr))
	assert.Equal(t, len(merr.Errors), 1)
}

func TestAbortMultipartUploadsRepeatedMarker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := storage.NewMockStorage(ctrl)
	m := newTestManager(t, client, Options{})

	client.EXPECT().
		ListMultipartUploads(gomock.Any(), "bucket", "", "").
		Return(&storage.MultipartUploadListing{IsTruncated: true}, nil).
		Times(1)

	assert.NilError(t, m.AbortMultipartUploads(context.Background(), "bucket", time.Now()))
}

func TestAbortMultipartUploadsListingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := storage.NewMockStorage(ctrl)
	m := newTestManager(t, client, Options{})

	client.EXPECT().
		ListMultipartUploads(gomock.Any(), "bucket", "", "").
		Return(nil, errors.New("no such bucket"))

	err := m.AbortMultipartUploads(context.Background(), "bucket", time.Now())
	assert.ErrorContains(t, err, "no such bucket")

	err = m.AbortMultipartUploads(context.Background(), "", time.Now())
	assert.ErrorContains(t, err, "bucket name cannot be empty")
}
