package cmd

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store/memstore"
)

type harness struct {
	st      *memstore.Store
	factory ClientFactory
	cfg     *config.Config
}

func newHarness(t *testing.T, files map[string][]byte) *harness {
	t.Helper()
	t.Chdir(t.TempDir())

	fs := memfs.New()
	for path, data := range files {
		require.NoError(t, util.WriteFile(fs, path, data, 0o644))
	}

	h := &harness{st: memstore.New()}
	h.factory = func(cfg *config.Config, logger *slog.Logger) (*transfer.Client, error) {
		h.cfg = cfg
		return transfer.NewWithStore(h.st,
			transfer.WithFilesystem(fs),
			transfer.WithLogger(logger),
			transfer.WithPartSize(cfg.Transfer.PartSize),
			transfer.WithConcurrency(cfg.Transfer.Concurrency),
		)
	}
	return h
}

func (h *harness) run(t *testing.T, stdin []byte, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(h.factory)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(bytes.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestUploadCommand(t *testing.T) {
	data := testutil.NewTestDataGenerator(21).Bytes(21 << 20)
	h := newHarness(t, map[string][]byte{"/srv/db.tar": data})

	out, err := h.run(t, nil, "upload", "/srv/db.tar", "s3://backups/nightly/",
		"--part-size", "4mb", "--concurrency", "3", "--no-progress",
		"--metadata", "owner=ops", "--content-type", "application/x-tar")
	require.NoError(t, err)
	assert.Contains(t, out, "uploaded s3://backups/nightly/db.tar")
	assert.Contains(t, out, "6 parts")

	assert.Equal(t, int64(4<<20), h.cfg.Transfer.PartSize)
	assert.Equal(t, 3, h.cfg.Transfer.Concurrency)

	got, ok := h.st.Object("backups", "nightly/db.tar")
	require.True(t, ok)
	assert.True(t, bytes.Equal(data, got))

	opts, _ := h.st.ObjectOptions("backups", "nightly/db.tar")
	assert.Equal(t, "application/x-tar", opts.ContentType)
	assert.Equal(t, "ops", opts.Metadata["owner"])
}

func TestUploadCommand_Resumes(t *testing.T) {
	data := testutil.NewTestDataGenerator(22).Bytes(24 << 20)
	h := newHarness(t, map[string][]byte{"/srv/video.mp4": data})

	id := h.st.StartSession("media", "video.mp4")
	require.NoError(t, h.st.SeedPart(id, 1, data[:8<<20]))

	out, err := h.run(t, nil, "upload", "/srv/video.mp4", "media/video.mp4", "--part-size", "8mb", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "resumed session "+id+" skipping 1 parts")
}

func TestStreamCommand(t *testing.T) {
	h := newHarness(t, nil)
	data := testutil.NewTestDataGenerator(23).Bytes(3<<20 + 5)

	out, err := h.run(t, data, "stream", "s3://logs/app.log", "--part-size", "1mb", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "4 parts")

	got, _ := h.st.Object("logs", "app.log")
	assert.True(t, bytes.Equal(data, got))
}

func TestCopyCommand(t *testing.T) {
	h := newHarness(t, nil)
	h.st.PutObject("source", "reports/q1.csv", []byte("a,b,c\n"))

	out, err := h.run(t, nil, "copy", "s3://source/reports/q1.csv", "s3://archive/2024/", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "copied s3://archive/2024/q1.csv (6 bytes")

	got, _ := h.st.Object("archive", "2024/q1.csv")
	assert.Equal(t, "a,b,c\n", string(got))
}

func TestAbortAndExistsCommands(t *testing.T) {
	h := newHarness(t, nil)
	h.st.StartSession("media", "clip.mov")
	h.st.PutObject("media", "present.txt", []byte("x"))

	out, err := h.run(t, nil, "abort", "s3://media/clip.mov")
	require.NoError(t, err)
	assert.Equal(t, "aborted 1 sessions of s3://media/clip.mov\n", out)
	assert.Empty(t, h.st.OpenSessions())

	out, err = h.run(t, nil, "exists", "s3://media/present.txt")
	require.NoError(t, err)
	assert.Equal(t, "s3://media/present.txt\n", out)

	_, err = h.run(t, nil, "exists", "s3://media/absent.txt")
	assert.ErrorContains(t, err, "does not exist")
}

func TestCommandErrors(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing bucket", []string{"exists", "s3://"}, "invalid target"},
		{"unknown backend", []string{"exists", "s3://b/k", "--backend", "ftp"}, "unknown backend"},
		{"bad concurrency", []string{"exists", "s3://b/k", "--concurrency", "9999"}, "transfer.concurrency"},
		{"missing file", []string{"upload", "/nope.bin", "s3://bucket/k", "--no-progress"}, "precondition"},
		{"wrong arg count", []string{"upload", "/only-one"}, "accepts 2 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, nil, tt.args...)
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), tt.want)
		})
	}
}

func TestRootCommand_BoundFlags(t *testing.T) {
	var root *cobra.Command
	require.NotPanics(t, func() { root = NewRootCommand(DefaultClientFactory) })

	for name, key := range boundFlags {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, root.PersistentFlags().Lookup(name), "flag for %s", key)
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		arg, bucket, key string
		wantErr          bool
	}{
		{arg: "s3://bucket/a/b.txt", bucket: "bucket", key: "a/b.txt"},
		{arg: "bucket/a/", bucket: "bucket", key: "a/"},
		{arg: "s3://bucket", bucket: "bucket"},
		{arg: "s3:///key", wantErr: true},
		{arg: "", wantErr: true},
	}
	for _, tt := range tests {
		bucket, key, err := parseTarget(tt.arg)
		if tt.wantErr {
			assert.Error(t, err, tt.arg)
			continue
		}
		require.NoError(t, err, tt.arg)
		assert.Equal(t, tt.bucket, bucket)
		assert.Equal(t, tt.key, key)
	}

	assert.Equal(t, "dir/file.bin", objectKey("dir/", "file.bin"))
	assert.Equal(t, "file.bin", objectKey("", "file.bin"))
	assert.Equal(t, "explicit", objectKey("explicit", "file.bin"))
}

func TestBarTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := newBarTracker(&buf, "test")
	tracker.Update(10, 100)
	tracker.Update(5, 100)
	assert.Equal(t, int64(10), tracker.seen)
	assert.Equal(t, int64(100), tracker.max)
	tracker.Complete()
}
