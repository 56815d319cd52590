// Package memstore provides an in-memory store.Store.
// It mirrors the multipart semantics of S3-compatible stores closely enough to
// exercise the transfer orchestrator without a network, and exposes hooks for
// injecting part and finalize failures.
package memstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	xerrors "github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

type session struct {
	bucket string
	key    string
	id     string
	opts   xfertypes.ObjectOptions
	parts  map[int][]byte
}

type object struct {
	data []byte
	opts xfertypes.ObjectOptions
}

// Stats counts calls made against the store.
type Stats struct {
	Creates   int64
	Parts     int64
	PartCopy  int64
	ListParts int64
	Finalizes int64
	Aborts    int64
	Puts      int64
	Copies    int64
}

// Store is an in-memory store.Store. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	objects  map[string]*object
	sessions map[string]*session
	order    []string

	// OnUploadPart, when set, runs before a part is stored. A non-nil error fails the call.
	OnUploadPart func(partNumber int) error

	// OnCopyPart, when set, runs before a part range is copied. A non-nil error fails the call.
	OnCopyPart func(partNumber int) error

	// FinalizeErr, when set, is returned by Finalize instead of assembling the object.
	FinalizeErr error

	creates   atomic.Int64
	parts     atomic.Int64
	partCopy  atomic.Int64
	listParts atomic.Int64
	finalizes atomic.Int64
	aborts    atomic.Int64
	puts      atomic.Int64
	copies    atomic.Int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objects:  make(map[string]*object),
		sessions: make(map[string]*session),
	}
}

// ETag computes the quoted MD5 integrity tag the store assigns to data.
func ETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

// PutObject seeds an object directly, bypassing call accounting.
func (s *Store) PutObject(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey(bucket, key)] = &object{data: bytes.Clone(data)}
}

// Object returns a copy of a stored object.
func (s *Store) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectKey(bucket, key)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}

// ObjectOptions returns the options an object was written with.
func (s *Store) ObjectOptions(bucket, key string) (xfertypes.ObjectOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectKey(bucket, key)]
	if !ok {
		return xfertypes.ObjectOptions{}, false
	}
	return obj.opts, true
}

// StartSession seeds an in-progress session and returns its id.
func (s *Store) StartSession(bucket, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newSessionLocked(bucket, key, xfertypes.ObjectOptions{})
}

// SeedPart stores a part for an existing session, bypassing call accounting.
func (s *Store) SeedPart(sessionID string, partNumber int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return xerrors.ErrSessionNotFound
	}
	sess.parts[partNumber] = bytes.Clone(data)
	return nil
}

// OpenSessions returns the ids of sessions that are neither finalized nor aborted.
func (s *Store) OpenSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if _, ok := s.sessions[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Stats returns a snapshot of call counts.
func (s *Store) Stats() Stats {
	return Stats{
		Creates:   s.creates.Load(),
		Parts:     s.parts.Load(),
		PartCopy:  s.partCopy.Load(),
		ListParts: s.listParts.Load(),
		Finalizes: s.finalizes.Load(),
		Aborts:    s.aborts.Load(),
		Puts:      s.puts.Load(),
		Copies:    s.copies.Load(),
	}
}

func (s *Store) newSessionLocked(bucket, key string, opts xfertypes.ObjectOptions) string {
	id := uuid.NewString()
	s.sessions[id] = &session{
		bucket: bucket,
		key:    key,
		id:     id,
		opts:   opts,
		parts:  make(map[int][]byte),
	}
	s.order = append(s.order, id)
	return id
}

func (s *Store) sessionLocked(bucket, key, sessionID string) (*session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok || sess.bucket != bucket || sess.key != key {
		return nil, xerrors.ErrSessionNotFound
	}
	return sess, nil
}

// CreateSession implements store.Store.
func (s *Store) CreateSession(
	ctx context.Context,
	bucket, key string,
	opts xfertypes.ObjectOptions,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.creates.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newSessionLocked(bucket, key, opts), nil
}

// UploadPart implements store.Store.
func (s *Store) UploadPart(
	ctx context.Context,
	bucket, key, sessionID string,
	partNumber int,
	body io.ReadSeeker,
	size int64,
	_ xfertypes.ObjectOptions,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.parts.Add(1)
	if s.OnUploadPart != nil {
		if err := s.OnUploadPart(partNumber); err != nil {
			return "", err
		}
	}

	data, err := io.ReadAll(io.LimitReader(body, size+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("part %d: read %d bytes, declared %d", partNumber, len(data), size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(bucket, key, sessionID)
	if err != nil {
		return "", err
	}
	sess.parts[partNumber] = data
	return ETag(data), nil
}

// CopyPartRange implements store.Store.
func (s *Store) CopyPartRange(
	ctx context.Context,
	bucket, key, sessionID string,
	partNumber int,
	src xfertypes.CopySource,
	rng store.ByteRange,
	_ xfertypes.ObjectOptions,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.partCopy.Add(1)
	if s.OnCopyPart != nil {
		if err := s.OnCopyPart(partNumber); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectKey(src.Bucket, src.Key)]
	if !ok {
		return "", xerrors.ErrObjectNotFound
	}
	if rng.First < 0 || rng.Last >= int64(len(obj.data)) || rng.First > rng.Last {
		return "", fmt.Errorf("range %s outside object of %d bytes", rng, len(obj.data))
	}
	sess, err := s.sessionLocked(bucket, key, sessionID)
	if err != nil {
		return "", err
	}
	data := bytes.Clone(obj.data[rng.First : rng.Last+1])
	sess.parts[partNumber] = data
	return ETag(data), nil
}

// ListParts implements store.Store.
func (s *Store) ListParts(
	ctx context.Context,
	bucket, key, sessionID string,
	marker, maxParts int,
) (store.PartsPage, error) {
	if err := ctx.Err(); err != nil {
		return store.PartsPage{}, err
	}
	s.listParts.Add(1)
	if maxParts <= 0 {
		maxParts = store.DefaultListPartsPageSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(bucket, key, sessionID)
	if err != nil {
		return store.PartsPage{}, err
	}

	numbers := make([]int, 0, len(sess.parts))
	for n := range sess.parts {
		if n > marker {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	page := store.PartsPage{}
	if len(numbers) > maxParts {
		numbers = numbers[:maxParts]
		page.Truncated = true
	}
	for _, n := range numbers {
		data := sess.parts[n]
		page.Parts = append(page.Parts, store.PartInfo{
			PartNumber: n,
			Size:       int64(len(data)),
			ETag:       ETag(data),
		})
	}
	if page.Truncated {
		page.NextMarker = numbers[len(numbers)-1]
	}
	return page, nil
}

// ListSessions implements store.Store.
func (s *Store) ListSessions(ctx context.Context, bucket, prefix string) ([]store.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.Session
	for _, id := range s.order {
		sess, ok := s.sessions[id]
		if !ok || sess.bucket != bucket || !strings.HasPrefix(sess.key, prefix) {
			continue
		}
		out = append(out, store.Session{Key: sess.key, SessionID: id})
	}
	return out, nil
}

// Finalize implements store.Store.
func (s *Store) Finalize(
	ctx context.Context,
	bucket, key, sessionID string,
	parts []store.CompletedPart,
) (store.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return store.ObjectInfo{}, err
	}
	s.finalizes.Add(1)
	if s.FinalizeErr != nil {
		return store.ObjectInfo{}, s.FinalizeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(bucket, key, sessionID)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	if len(parts) == 0 {
		return store.ObjectInfo{}, fmt.Errorf("finalize with no parts")
	}

	var buf bytes.Buffer
	prev := 0
	for _, p := range parts {
		if p.PartNumber <= prev {
			return store.ObjectInfo{}, fmt.Errorf("part %d listed out of order", p.PartNumber)
		}
		prev = p.PartNumber
		data, ok := sess.parts[p.PartNumber]
		if !ok {
			return store.ObjectInfo{}, fmt.Errorf("part %d was never uploaded", p.PartNumber)
		}
		if store.TrimETag(p.ETag) != store.TrimETag(ETag(data)) {
			return store.ObjectInfo{}, fmt.Errorf("part %d etag mismatch", p.PartNumber)
		}
		buf.Write(data)
	}

	data := buf.Bytes()
	s.objects[objectKey(bucket, key)] = &object{data: data, opts: sess.opts}
	delete(s.sessions, sessionID)

	return store.ObjectInfo{
		ETag:     fmt.Sprintf(`"%s-%d"`, store.TrimETag(ETag(data)), len(parts)),
		Location: "mem://" + objectKey(bucket, key),
		Size:     int64(len(data)),
	}, nil
}

// Abort implements store.Store.
func (s *Store) Abort(ctx context.Context, bucket, key, sessionID string) error {
	s.aborts.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sessionLocked(bucket, key, sessionID); err != nil {
		return err
	}
	delete(s.sessions, sessionID)
	return nil
}

// SourceSize implements store.Store.
func (s *Store) SourceSize(ctx context.Context, src xfertypes.CopySource) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectKey(src.Bucket, src.Key)]
	if !ok {
		return 0, xerrors.ErrObjectNotFound
	}
	return int64(len(obj.data)), nil
}

// Put implements store.Store.
func (s *Store) Put(
	ctx context.Context,
	bucket, key string,
	body io.ReadSeeker,
	size int64,
	opts xfertypes.ObjectOptions,
) (store.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return store.ObjectInfo{}, err
	}
	s.puts.Add(1)
	data, err := io.ReadAll(body)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	if int64(len(data)) != size {
		return store.ObjectInfo{}, fmt.Errorf("read %d bytes, declared %d", len(data), size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectKey(bucket, key)] = &object{data: data, opts: opts}
	return store.ObjectInfo{ETag: ETag(data), Size: size}, nil
}

// Copy implements store.Store.
func (s *Store) Copy(
	ctx context.Context,
	bucket, key string,
	src xfertypes.CopySource,
	opts xfertypes.ObjectOptions,
) (store.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return store.ObjectInfo{}, err
	}
	s.copies.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectKey(src.Bucket, src.Key)]
	if !ok {
		return store.ObjectInfo{}, xerrors.ErrObjectNotFound
	}
	data := bytes.Clone(obj.data)
	s.objects[objectKey(bucket, key)] = &object{data: data, opts: opts}
	return store.ObjectInfo{ETag: ETag(data), Size: int64(len(data))}, nil
}

var _ store.Store = (*Store)(nil)
