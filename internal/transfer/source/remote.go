package source

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Remote is an object the store copies from server-side.
type Remote struct {
	xfertypes.CopySource
}

// NewRemote wraps a copy source.
func NewRemote(src xfertypes.CopySource) Remote {
	return Remote{CopySource: src}
}

// Range returns the source byte range covered by part p.
func (r Remote) Range(p planner.Part) store.ByteRange {
	return store.ByteRange{First: p.Offset, Last: p.End()}
}

// CoLocated reports whether the source lives on the store addressed by region
// and endpoint. A source that names neither is on the destination's store.
func (r Remote) CoLocated(region, endpoint string) bool {
	src := Endpoint(r.Region, r.Endpoint)
	if src == "" {
		return true
	}
	return src == Endpoint(region, endpoint)
}

// Endpoint normalizes an endpoint for comparison, deriving the regional AWS
// endpoint when only a region is known.
func Endpoint(region, endpoint string) string {
	if endpoint != "" {
		endpoint = strings.ToLower(endpoint)
		endpoint = strings.TrimPrefix(endpoint, "https://")
		endpoint = strings.TrimPrefix(endpoint, "http://")
		return strings.TrimSuffix(endpoint, "/")
	}
	if region != "" {
		return "s3." + strings.ToLower(region) + ".amazonaws.com"
	}
	return ""
}
