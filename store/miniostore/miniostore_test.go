package miniostore

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// fakeCore serves a single object and records part traffic.
type fakeCore struct {
	API

	parts       map[int][]byte
	uploads     []minio.ObjectMultipartInfo
	pageSize    int
	abortErr    error
	copyHeaders map[string]string
	completed   []minio.CompletePart
}

func (f *fakeCore) PutObjectPart(
	_ context.Context,
	_, _, _ string,
	partID int,
	data io.Reader,
	size int64,
	_ minio.PutObjectPartOptions,
) (minio.ObjectPart, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return minio.ObjectPart{}, err
	}
	if f.parts == nil {
		f.parts = map[int][]byte{}
	}
	f.parts[partID] = b
	return minio.ObjectPart{PartNumber: partID, ETag: testutil.CalculateETag(b), Size: size}, nil
}

func (f *fakeCore) ListObjectParts(
	_ context.Context,
	_, _, _ string,
	marker, maxParts int,
) (minio.ListObjectPartsResult, error) {
	var res minio.ListObjectPartsResult
	for n := marker + 1; n <= len(f.parts); n++ {
		if len(res.ObjectParts) == maxParts {
			res.IsTruncated = true
			res.NextPartNumberMarker = n - 1
			break
		}
		res.ObjectParts = append(res.ObjectParts, minio.ObjectPart{
			PartNumber: n,
			ETag:       testutil.CalculateETag(f.parts[n]),
			Size:       int64(len(f.parts[n])),
		})
	}
	return res, nil
}

func (f *fakeCore) ListMultipartUploads(
	_ context.Context,
	_, _, keyMarker, _, _ string,
	_ int,
) (minio.ListMultipartUploadsResult, error) {
	start := 0
	if keyMarker != "" {
		for i, u := range f.uploads {
			if u.Key == keyMarker {
				start = i + 1
			}
		}
	}
	end := start + f.pageSize
	if end >= len(f.uploads) {
		return minio.ListMultipartUploadsResult{Uploads: f.uploads[start:]}, nil
	}
	return minio.ListMultipartUploadsResult{
		Uploads:            f.uploads[start:end],
		IsTruncated:        true,
		NextKeyMarker:      f.uploads[end-1].Key,
		NextUploadIDMarker: f.uploads[end-1].UploadID,
	}, nil
}

func (f *fakeCore) CopyObjectPart(
	_ context.Context,
	_, _, _, _, _ string,
	partID int,
	startOffset, length int64,
	metadata map[string]string,
) (minio.CompletePart, error) {
	f.copyHeaders = metadata
	return minio.CompletePart{PartNumber: partID, ETag: `"copy"`}, nil
}

func (f *fakeCore) CompleteMultipartUpload(
	_ context.Context,
	bucket, object, _ string,
	parts []minio.CompletePart,
	_ minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	f.completed = parts
	return minio.UploadInfo{Bucket: bucket, Key: object, ETag: "final-2"}, nil
}

func (f *fakeCore) AbortMultipartUpload(context.Context, string, string, string) error {
	return f.abortErr
}

func TestStore_PartsRoundTrip(t *testing.T) {
	ctx := context.Background()
	core := &fakeCore{}
	st := New(core)

	data := testutil.NewTestDataGenerator(3).Bytes(30)
	for n := 1; n <= 3; n++ {
		chunk := data[(n-1)*10 : n*10]
		etag, err := st.UploadPart(ctx, "b", "k", "u", n, bytes.NewReader(chunk), 10, xfertypes.ObjectOptions{})
		require.NoError(t, err)
		assert.Equal(t, testutil.CalculateETag(chunk), etag)
	}

	page, err := st.ListParts(ctx, "b", "k", "u", 0, 2)
	require.NoError(t, err)
	assert.True(t, page.Truncated)
	assert.Equal(t, 2, page.NextMarker)
	require.Len(t, page.Parts, 2)

	page, err = st.ListParts(ctx, "b", "k", "u", page.NextMarker, 2)
	require.NoError(t, err)
	assert.False(t, page.Truncated)
	require.Len(t, page.Parts, 1)
	assert.Equal(t, 3, page.Parts[0].PartNumber)

	info, err := st.Finalize(ctx, "b", "k", "u", []store.CompletedPart{{PartNumber: 1, ETag: "a"}, {PartNumber: 2, ETag: "b"}})
	require.NoError(t, err)
	assert.Equal(t, "final-2", info.ETag)
	assert.Equal(t, []minio.CompletePart{{PartNumber: 1, ETag: "a"}, {PartNumber: 2, ETag: "b"}}, core.completed)
}

func TestStore_ListSessions(t *testing.T) {
	core := &fakeCore{pageSize: 2}
	for _, k := range []string{"a", "a", "ab", "b", "c"} {
		core.uploads = append(core.uploads, minio.ObjectMultipartInfo{Key: k, UploadID: "id-" + k})
	}

	sessions, err := New(core).ListSessions(context.Background(), "bucket", "")
	require.NoError(t, err)
	assert.Len(t, sessions, 5)
	assert.Equal(t, store.Session{Key: "c", SessionID: "id-c"}, sessions[4])
}

func TestStore_CopyPartRange(t *testing.T) {
	core := &fakeCore{}
	st := New(core)

	_, err := st.CopyPartRange(context.Background(), "dst", "k", "u", 1,
		xfertypes.CopySource{Bucket: "src", Key: "a b"}, store.ByteRange{First: 0, Last: 9}, xfertypes.ObjectOptions{})
	require.NoError(t, err)
	assert.Nil(t, core.copyHeaders)

	_, err = st.CopyPartRange(context.Background(), "dst", "k", "u", 1,
		xfertypes.CopySource{Bucket: "src", Key: "obj", VersionID: "v9"}, store.ByteRange{First: 0, Last: 9}, xfertypes.ObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "src/obj?versionId=v9", core.copyHeaders["x-amz-copy-source"])
}

func TestStore_ErrorMapping(t *testing.T) {
	core := &fakeCore{abortErr: minio.ErrorResponse{Code: "NoSuchUpload", StatusCode: 404}}

	err := New(core).Abort(context.Background(), "b", "k", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSessionNotFound)

	var xerr *errors.Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, "u", xerr.SessionID)
}

func TestPutOptions(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	opts, err := putOptions(xfertypes.ObjectOptions{
		ContentType: "text/plain",
		ACL:         xfertypes.ACLPublicRead,
		Metadata:    map[string]string{"owner": "ops"},
		Headers:     map[string]string{"x-amz-tagging": "a=b"},
		SSE:         &xfertypes.SSEConfig{Type: xfertypes.SSEC, CustomerKey: key},
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", opts.ContentType)
	assert.Equal(t, "public-read", opts.UserMetadata["x-amz-acl"])
	assert.Equal(t, "ops", opts.UserMetadata["owner"])
	assert.Equal(t, "a=b", opts.UserMetadata["x-amz-tagging"])
	require.NotNil(t, opts.ServerSideEncryption)

	_, err = putOptions(xfertypes.ObjectOptions{
		SSE: &xfertypes.SSEConfig{Type: xfertypes.SSEC, CustomerKey: "not base64!"},
	})
	assert.Error(t, err)

	empty, err := putOptions(xfertypes.ObjectOptions{})
	require.NoError(t, err)
	assert.Nil(t, empty.UserMetadata)
}
