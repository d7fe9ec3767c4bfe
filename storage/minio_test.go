package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/peak/s5transfer/storage/url"
)

func TestMinioImplementsStorageInterface(t *testing.T) {
	var i interface{} = new(Minio)
	if _, ok := i.(Storage); !ok {
		t.Errorf("expected %t to implement Storage interface", i)
	}
}

func TestNewMinioStorageEndpoint(t *testing.T) {
	testcases := []struct {
		name      string
		endpoint  string
		expectErr bool
	}{
		{name: "default endpoint"},
		{name: "custom endpoint", endpoint: "http://127.0.0.1:9000"},
		{name: "missing host", endpoint: "127.0.0.1", expectErr: true},
		{name: "malformed", endpoint: "http://[::1", expectErr: true},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMinioStorage(Options{
				Endpoint:        tc.endpoint,
				AccessKeyID:     "key",
				SecretAccessKey: "secret",
			})
			if tc.expectErr {
				assert.Assert(t, err != nil)
				return
			}
			assert.NilError(t, err)
		})
	}
}

func newMinioWithHandler(t *testing.T, handler http.HandlerFunc) *Minio {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewMinioStorage(Options{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	assert.NilError(t, err)
	return client
}

func TestMinioHeadObjectNotFound(t *testing.T) {
	client := newMinioWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.HeadObject(context.Background(), "bucket", "missing")
	assert.Equal(t, err, ErrGivenObjectNotFound)
}

func TestMinioListMultipartUploads(t *testing.T) {
	const response = `<?xml version="1.0" encoding="UTF-8"?>
<ListMultipartUploadsResult>
  <Bucket>bucket</Bucket>
  <KeyMarker>k1</KeyMarker>
  <UploadIdMarker>u1</UploadIdMarker>
  <NextKeyMarker>k2</NextKeyMarker>
  <NextUploadIdMarker>u2</NextUploadIdMarker>
  <MaxUploads>1000</MaxUploads>
  <IsTruncated>true</IsTruncated>
  <Upload>
    <Key>k2</Key>
    <UploadId>u2</UploadId>
    <Initiated>2020-01-01T00:00:00.000Z</Initiated>
  </Upload>
</ListMultipartUploadsResult>`

	client := newMinioWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if _, ok := query["uploads"]; !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, query.Get("key-marker"), "k1")
		assert.Equal(t, query.Get("upload-id-marker"), "u1")

		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(response))
	})

	got, err := client.ListMultipartUploads(context.Background(), "bucket", "k1", "u1")
	assert.NilError(t, err)

	want := &MultipartUploadListing{
		Uploads: []MultipartUpload{
			{
				URL:       url.NewRemote("bucket", "k2"),
				UploadID:  "u2",
				Initiated: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		IsTruncated:        true,
		NextKeyMarker:      "k2",
		NextUploadIDMarker: "u2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%v", diff)
	}
}

func TestMinioListObjectsCanceledContext(t *testing.T) {
	client := newMinioWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListObjects(ctx, &ListObjectsInput{Bucket: "bucket"})
	assert.Assert(t, IsCancelationError(err))
}
