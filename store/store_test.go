package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func TestByteRange(t *testing.T) {
	r := ByteRange{First: 5 << 20, Last: 10<<20 - 1}
	assert.Equal(t, "bytes=5242880-10485759", r.String())
	assert.Equal(t, int64(5<<20), r.Length())
	assert.Equal(t, int64(1), ByteRange{First: 7, Last: 7}.Length())
}

func TestCopySourceString(t *testing.T) {
	tests := []struct {
		name string
		src  xfertypes.CopySource
		want string
	}{
		{"plain", xfertypes.CopySource{Bucket: "src", Key: "a/b.bin"}, "src/a/b.bin"},
		{"leading slash", xfertypes.CopySource{Bucket: "src", Key: "/a/b.bin"}, "src/a/b.bin"},
		{"version", xfertypes.CopySource{Bucket: "src", Key: "k", VersionID: "v42"}, "src/k?versionId=v42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CopySourceString(tt.src))
		})
	}
}

func TestTrimETag(t *testing.T) {
	assert.Equal(t, "abc", TrimETag(`"abc"`))
	assert.Equal(t, "abc", TrimETag("abc"))
	assert.Equal(t, "abc-3", TrimETag(`"abc-3"`))
}
