package cmd

import (
	"fmt"
	"path"
	"strings"
)

const scheme = "s3://"

// parseTarget splits "s3://bucket/key" or "bucket/key" into its parts.
// The key may be empty.
func parseTarget(arg string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(arg, scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid target %q: expected s3://bucket/key", arg)
	}
	return bucket, key, nil
}

// objectKey returns key, or key joined with name when key is empty or names
// a prefix.
func objectKey(key, name string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return path.Join(key, name)
	}
	return key
}

func formatTarget(bucket, key string) string {
	return scheme + bucket + "/" + key
}
