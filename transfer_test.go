package transfer

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store/memstore"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	testBucket = "transfer-test"
	mib        = 1024 * 1024
)

func newTestClient(t *testing.T, files map[string][]byte, opts ...xfertypes.Option) (*Client, *memstore.Store) {
	t.Helper()
	fs := memfs.New()
	for path, data := range files {
		require.NoError(t, util.WriteFile(fs, path, data, 0o644))
	}

	st := memstore.New()
	client, err := NewWithStore(st, append([]xfertypes.Option{WithFilesystem(fs)}, opts...)...)
	require.NoError(t, err)
	return client, st
}

func TestClient_UploadFile(t *testing.T) {
	small := []byte(`{"name":"catalyst","version":3}`)
	large := testutil.NewTestDataGenerator(1).Bytes(24 * mib)

	client, st := newTestClient(t, map[string][]byte{
		"/data/config.json": small,
		"/data/large.bin":   large,
	})
	ctx := context.Background()

	t.Run("small file detects content type", func(t *testing.T) {
		res, err := client.UploadFile(ctx, testBucket, "config.json", "/data/config.json")
		require.NoError(t, err)
		assert.False(t, res.Multipart())

		opts, ok := st.ObjectOptions(testBucket, "config.json")
		require.True(t, ok)
		assert.Equal(t, "application/json", opts.ContentType)
	})

	t.Run("explicit content type wins", func(t *testing.T) {
		_, err := client.UploadFile(ctx, testBucket, "config.txt", "/data/config.json", WithContentType("text/plain"))
		require.NoError(t, err)
		opts, _ := st.ObjectOptions(testBucket, "config.txt")
		assert.Equal(t, "text/plain", opts.ContentType)
	})

	t.Run("large file uses multipart", func(t *testing.T) {
		tracker := &testutil.MockProgressTracker{}
		res, err := client.UploadFile(ctx, testBucket, "large.bin", "/data/large.bin",
			WithTransferPartSize(4*mib),
			WithProgress(tracker),
			WithMetadata(map[string]string{"origin": "test"}))
		require.NoError(t, err)

		assert.True(t, res.Multipart())
		assert.Equal(t, 6, res.Parts)
		got, _ := st.Object(testBucket, "large.bin")
		assert.True(t, bytes.Equal(large, got))

		opts, _ := st.ObjectOptions(testBucket, "large.bin")
		assert.Equal(t, "test", opts.Metadata["origin"])

		transferred, _ := tracker.Snapshot()
		assert.Equal(t, int64(len(large)), transferred)
		assert.True(t, tracker.CompleteCalled)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := client.UploadFile(ctx, testBucket, "nope", "/data/missing.bin")
		require.Error(t, err)
		assert.True(t, errors.IsPrecondition(err))
	})

	t.Run("directory", func(t *testing.T) {
		_, err := client.UploadFile(ctx, testBucket, "dir", "/data")
		require.Error(t, err)
		assert.True(t, errors.IsPrecondition(err))
	})

	t.Run("invalid target", func(t *testing.T) {
		_, err := client.UploadFile(ctx, "Bad_Bucket", "k", "/data/config.json")
		assert.ErrorIs(t, err, errors.ErrInvalidBucketName)

		_, err = client.UploadFile(ctx, testBucket, "../escape", "/data/config.json")
		assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)

		_, err = client.UploadFile(ctx, testBucket, "k", "/data/config.json", WithTransferConcurrency(-1))
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestClient_UploadFile_RelativePath(t *testing.T) {
	data := []byte("relative to the working directory")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.bin"), data, 0o600))
	t.Chdir(dir)

	tests := []struct {
		name string
		path string
	}{
		{name: "bare name", path: "data.bin"},
		{name: "dot prefix", path: "./data.bin"},
		{name: "absolute", path: filepath.Join(dir, "data.bin")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memstore.New()
			client, err := NewWithStore(st)
			require.NoError(t, err)

			res, err := client.UploadFile(context.Background(), testBucket, "data.bin", tt.path)
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), res.Size)

			got, ok := st.Object(testBucket, "data.bin")
			require.True(t, ok)
			assert.Equal(t, data, got)
		})
	}
}

func TestClient_UploadFile_ResumesInterruptedUpload(t *testing.T) {
	data := testutil.NewTestDataGenerator(2).Bytes(25 * mib)
	client, st := newTestClient(t, map[string][]byte{"/backup.tar": data})
	ctx := context.Background()

	st.OnUploadPart = func(n int) error {
		if n > 10 {
			return stderrors.New("network unreachable")
		}
		return nil
	}

	// A failed attempt aborts its session, so seed what a crashed one leaves behind.
	_, err := client.UploadFile(ctx, testBucket, "backup.tar", "/backup.tar", WithTransferPartSize(mib))
	require.Error(t, err)
	assert.True(t, errors.IsPartsIncomplete(err))
	assert.Empty(t, st.OpenSessions())

	id := st.StartSession(testBucket, "backup.tar")
	for n := 1; n <= 10; n++ {
		off := (n - 1) * mib
		require.NoError(t, st.SeedPart(id, n, data[off:off+mib]))
	}
	st.OnUploadPart = nil

	res, err := client.UploadFile(ctx, testBucket, "backup.tar", "/backup.tar", WithTransferPartSize(mib))
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, id, res.SessionID)
	assert.Equal(t, 10, res.SkippedParts)

	got, _ := st.Object(testBucket, "backup.tar")
	assert.True(t, bytes.Equal(data, got))
}

func TestClient_UploadStream(t *testing.T) {
	client, st := newTestClient(t, nil)
	data := testutil.NewTestDataGenerator(3).Bytes(3*mib + 1)

	res, err := client.UploadStream(context.Background(), testBucket, "stream.bin", bytes.NewReader(data),
		WithTransferPartSize(mib), WithMaxBufferSize(2*mib))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Parts)

	got, _ := st.Object(testBucket, "stream.bin")
	assert.True(t, bytes.Equal(data, got))

	_, err = client.UploadStream(context.Background(), testBucket, "stream.bin", nil)
	assert.True(t, errors.IsPrecondition(err))
}

func TestClient_Copy(t *testing.T) {
	client, st := newTestClient(t, nil, WithRegion("us-east-1"))
	data := testutil.NewTestDataGenerator(4).Bytes(2 * mib)
	st.PutObject("source-bucket", "in/object.bin", data)
	ctx := context.Background()

	res, err := client.Copy(ctx, testBucket, "out/object.bin",
		xfertypes.CopySource{Bucket: "source-bucket", Key: "in/object.bin", Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.False(t, res.Multipart())

	got, _ := st.Object(testBucket, "out/object.bin")
	assert.True(t, bytes.Equal(data, got))

	_, err = client.Copy(ctx, testBucket, "out/missing.bin",
		xfertypes.CopySource{Bucket: "source-bucket", Key: "missing.bin", Region: "eu-west-1"})
	assert.True(t, errors.IsObjectNotFound(err))

	_, err = client.Copy(ctx, testBucket, "out/x", xfertypes.CopySource{Bucket: "x", Key: "y"})
	assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
}

func TestClient_PutCopyExists(t *testing.T) {
	client, st := newTestClient(t, nil)
	ctx := context.Background()

	exists, err := client.Exists(ctx, testBucket, "hello.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	put, err := client.PutObject(ctx, testBucket, "hello.txt", []byte("hello"), WithContentType("text/plain"))
	require.NoError(t, err)
	assert.Equal(t, memstore.ETag([]byte("hello")), put.ETag)

	exists, err = client.Exists(ctx, testBucket, "hello.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	cp, err := client.CopyObject(ctx, testBucket, "hello-copy.txt",
		xfertypes.CopySource{Bucket: testBucket, Key: "hello.txt"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), cp.Size)

	got, _ := st.Object(testBucket, "hello-copy.txt")
	assert.Equal(t, "hello", string(got))
}

func TestClient_AbortIncomplete(t *testing.T) {
	client, st := newTestClient(t, nil)
	ctx := context.Background()

	a := st.StartSession(testBucket, "video.mp4")
	b := st.StartSession(testBucket, "video.mp4")
	other := st.StartSession(testBucket, "video.mp4.part")

	n, err := client.AbortIncomplete(ctx, testBucket, "video.mp4")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	open := st.OpenSessions()
	assert.NotContains(t, open, a)
	assert.NotContains(t, open, b)
	assert.Contains(t, open, other)
}

func TestClient_ConcurrentUploadsOfSameKey(t *testing.T) {
	data := testutil.NewTestDataGenerator(5).Bytes(21 * mib)
	client, st := newTestClient(t, map[string][]byte{"/f.bin": data})

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.UploadFile(context.Background(), testBucket, "same.bin", "/f.bin",
				WithTransferPartSize(mib))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Empty(t, st.OpenSessions())
	got, _ := st.Object(testBucket, "same.bin")
	assert.True(t, bytes.Equal(data, got))
	assert.Equal(t, int64(3), st.Stats().Finalizes)
}

func TestClient_Logging(t *testing.T) {
	var buf strings.Builder
	logger := testLogger(&buf)
	data := testutil.NewTestDataGenerator(6).Bytes(21 * mib)
	client, _ := newTestClient(t, map[string][]byte{"/f.bin": data}, WithLogger(logger))

	_, err := client.UploadFile(context.Background(), testBucket, "logged.bin", "/f.bin", WithTransferPartSize(mib))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "session created")
	assert.Contains(t, out, "session finalized")
	assert.Contains(t, out, "op_id=")
}

func testLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
