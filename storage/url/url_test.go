package url

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		object  string
		want    *URL
		wantErr bool
	}{
		{
			name:    "error_if_does_not_have_bucket",
			object:  "s3://",
			wantErr: true,
		},
		{
			name:    "error_if_unknown_scheme",
			object:  "gs://bucket/key",
			wantErr: true,
		},
		{
			name:   "remote_object",
			object: "s3://bucket/key",
			want: &URL{
				Type:   remoteObject,
				Scheme: "s3",
				Bucket: "bucket",
				Path:   "key",
			},
		},
		{
			name:   "remote_prefix_with_leading_slashes",
			object: "s3://bucket//a/b/",
			want: &URL{
				Type:   remoteObject,
				Scheme: "s3",
				Bucket: "bucket",
				Path:   "a/b/",
			},
		},
		{
			name:   "bucket_only",
			object: "s3://bucket",
			want: &URL{
				Type:   remoteObject,
				Scheme: "s3",
				Bucket: "bucket",
			},
		},
		{
			name:   "local_path",
			object: "dir/file.txt",
			want: &URL{
				Type: localObject,
				Path: "dir/file.txt",
			},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := New(tc.object)
			if (err != nil) != tc.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%v", diff)
			}
		})
	}
}

func TestURLPredicates(t *testing.T) {
	tests := []struct {
		name       string
		object     string
		wantRemote bool
		wantPrefix bool
		wantBucket bool
	}{
		{name: "object", object: "s3://bucket/key", wantRemote: true},
		{name: "prefix", object: "s3://bucket/dir/", wantRemote: true, wantPrefix: true},
		{name: "bucket", object: "s3://bucket", wantRemote: true, wantBucket: true},
		{name: "local", object: "/tmp/dir/"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			u, err := New(tc.object)
			if err != nil {
				t.Fatal(err)
			}
			if got := u.IsRemote(); got != tc.wantRemote {
				t.Errorf("IsRemote() = %v, want %v", got, tc.wantRemote)
			}
			if got := u.IsPrefix(); got != tc.wantPrefix {
				t.Errorf("IsPrefix() = %v, want %v", got, tc.wantPrefix)
			}
			if got := u.IsBucket(); got != tc.wantBucket {
				t.Errorf("IsBucket() = %v, want %v", got, tc.wantBucket)
			}
		})
	}
}

func TestURLJoinAndString(t *testing.T) {
	u := NewRemote("bucket", "prefix/")

	joined := u.Join("a/b.txt")
	if got, want := joined.String(), "s3://bucket/prefix/a/b.txt"; got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}
	if got, want := joined.Base(), "b.txt"; got != want {
		t.Errorf("Base() = %v, want %v", got, want)
	}
	if got, want := joined.Dir(), "prefix/a"; got != want {
		t.Errorf("Dir() = %v, want %v", got, want)
	}
	// the receiver is not modified
	if got, want := u.String(), "s3://bucket/prefix/"; got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}

	b, err := joined.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(b), `"s3://bucket/prefix/a/b.txt"`; got != want {
		t.Errorf("MarshalJSON() = %v, want %v", got, want)
	}
}
