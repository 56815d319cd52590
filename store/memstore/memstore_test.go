package memstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func TestStore_MultipartLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreateSession(ctx, "b", "k", xfertypes.ObjectOptions{ContentType: "text/plain"})
	require.NoError(t, err)

	e1, err := s.UploadPart(ctx, "b", "k", id, 1, bytes.NewReader([]byte("hello ")), 6, xfertypes.ObjectOptions{})
	require.NoError(t, err)
	e2, err := s.UploadPart(ctx, "b", "k", id, 2, bytes.NewReader([]byte("world")), 5, xfertypes.ObjectOptions{})
	require.NoError(t, err)

	page, err := s.ListParts(ctx, "b", "k", id, 0, 1)
	require.NoError(t, err)
	assert.True(t, page.Truncated)
	assert.Equal(t, 1, page.NextMarker)
	require.Len(t, page.Parts, 1)
	assert.Equal(t, e1, page.Parts[0].ETag)

	page, err = s.ListParts(ctx, "b", "k", id, page.NextMarker, 1)
	require.NoError(t, err)
	assert.False(t, page.Truncated)
	assert.Equal(t, 2, page.Parts[0].PartNumber)

	info, err := s.Finalize(ctx, "b", "k", id, []store.CompletedPart{{PartNumber: 1, ETag: e1}, {PartNumber: 2, ETag: e2}})
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Size)
	assert.Contains(t, info.ETag, "-2")

	got, ok := s.Object("b", "k")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(got))
	opts, _ := s.ObjectOptions("b", "k")
	assert.Equal(t, "text/plain", opts.ContentType)
	assert.Empty(t, s.OpenSessions())
}

func TestStore_FinalizeRejectsBadParts(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := s.StartSession("b", "k")
	require.NoError(t, s.SeedPart(id, 1, []byte("one")))
	require.NoError(t, s.SeedPart(id, 2, []byte("two")))

	tests := []struct {
		name  string
		parts []store.CompletedPart
	}{
		{"empty", nil},
		{"out of order", []store.CompletedPart{{PartNumber: 2, ETag: ETag([]byte("two"))}, {PartNumber: 1, ETag: ETag([]byte("one"))}}},
		{"missing", []store.CompletedPart{{PartNumber: 1, ETag: ETag([]byte("one"))}, {PartNumber: 3, ETag: ETag([]byte("x"))}}},
		{"etag mismatch", []store.CompletedPart{{PartNumber: 1, ETag: ETag([]byte("uno"))}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Finalize(ctx, "b", "k", id, tt.parts)
			assert.Error(t, err)
		})
	}
	assert.Equal(t, []string{id}, s.OpenSessions())
}

func TestStore_UnknownSession(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := s.StartSession("b", "k")

	_, err := s.UploadPart(ctx, "b", "other", id, 1, bytes.NewReader([]byte("x")), 1, xfertypes.ObjectOptions{})
	assert.ErrorIs(t, err, xerrors.ErrSessionNotFound)
	assert.ErrorIs(t, s.Abort(ctx, "b", "k", "nope"), xerrors.ErrSessionNotFound)
	assert.ErrorIs(t, s.SeedPart("nope", 1, nil), xerrors.ErrSessionNotFound)
}

func TestStore_CopyAndSourceSize(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.PutObject("src", "obj", []byte("0123456789"))

	size, err := s.SourceSize(ctx, xfertypes.CopySource{Bucket: "src", Key: "obj"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	_, err = s.SourceSize(ctx, xfertypes.CopySource{Bucket: "src", Key: "missing"})
	assert.ErrorIs(t, err, xerrors.ErrObjectNotFound)

	id := s.StartSession("dst", "obj")
	_, err = s.CopyPartRange(ctx, "dst", "obj", id, 1,
		xfertypes.CopySource{Bucket: "src", Key: "obj"}, store.ByteRange{First: 2, Last: 4}, xfertypes.ObjectOptions{})
	require.NoError(t, err)
	_, err = s.CopyPartRange(ctx, "dst", "obj", id, 2,
		xfertypes.CopySource{Bucket: "src", Key: "obj"}, store.ByteRange{First: 8, Last: 10}, xfertypes.ObjectOptions{})
	assert.Error(t, err, "range past the end")

	page, err := s.ListParts(ctx, "dst", "obj", id, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Parts, 1)
	assert.Equal(t, int64(3), page.Parts[0].Size)

	info, err := s.Copy(ctx, "dst", "whole", xfertypes.CopySource{Bucket: "src", Key: "obj"}, xfertypes.ObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size)
	assert.Equal(t, int64(1), s.Stats().Copies)
	assert.Equal(t, int64(2), s.Stats().PartCopy)
}

func TestStore_ListSessionsByPrefix(t *testing.T) {
	s := New()
	a := s.StartSession("b", "logs/a")
	s.StartSession("b", "data/x")
	c := s.StartSession("b", "logs/c")
	s.StartSession("other", "logs/a")

	sessions, err := s.ListSessions(context.Background(), "b", "logs/")
	require.NoError(t, err)
	assert.Equal(t, []store.Session{{Key: "logs/a", SessionID: a}, {Key: "logs/c", SessionID: c}}, sessions)
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	_, err := s.CreateSession(ctx, "b", "k", xfertypes.ObjectOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Put(ctx, "b", "k", bytes.NewReader(nil), 0, xfertypes.ObjectOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Stats().Creates)
}
