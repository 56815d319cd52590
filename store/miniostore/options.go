package miniostore

import (
	"encoding/base64"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func staticCreds(accessKey, secretKey string) *credentials.Credentials {
	if accessKey == "" && secretKey == "" {
		return credentials.NewEnvAWS()
	}
	return credentials.NewStaticV4(accessKey, secretKey, "")
}

// serverSide converts an encryption configuration into minio's representation.
// Customer keys are base64 encoded, as the S3 API transmits them.
func serverSide(cfg *xfertypes.SSEConfig) (encrypt.ServerSide, error) {
	switch cfg.Type {
	case xfertypes.SSES3:
		return encrypt.NewSSE(), nil
	case xfertypes.SSEKMS:
		return encrypt.NewSSEKMS(cfg.KMSKeyID, nil)
	case xfertypes.SSEC:
		key, err := base64.StdEncoding.DecodeString(cfg.CustomerKey)
		if err != nil {
			return nil, fmt.Errorf("decode customer key: %w", err)
		}
		return encrypt.NewSSEC(key)
	default:
		return nil, fmt.Errorf("unsupported encryption type %q", cfg.Type)
	}
}

// putOptions maps object attributes onto minio's put options. Canned ACLs and
// free-form headers travel as user metadata; minio-go sends amz and standard
// header names verbatim instead of prefixing them.
func putOptions(opts xfertypes.ObjectOptions) (minio.PutObjectOptions, error) {
	out := minio.PutObjectOptions{
		CacheControl:       opts.CacheControl,
		ContentType:        opts.ContentType,
		ContentDisposition: opts.ContentDisposition,
		ContentEncoding:    opts.ContentEncoding,
		ContentLanguage:    opts.ContentLanguage,
		Expires:            opts.Expires,
		StorageClass:       string(opts.StorageClass),
	}

	if n := len(opts.Metadata) + len(opts.Headers); n > 0 || opts.ACL != "" {
		out.UserMetadata = make(map[string]string, n+1)
		for k, v := range opts.Metadata {
			out.UserMetadata[k] = v
		}
		for k, v := range opts.Headers {
			out.UserMetadata[k] = v
		}
		if opts.ACL != "" {
			out.UserMetadata["x-amz-acl"] = string(opts.ACL)
		}
	}

	if opts.SSE != nil {
		sse, err := serverSide(opts.SSE)
		if err != nil {
			return minio.PutObjectOptions{}, err
		}
		out.ServerSideEncryption = sse
	}
	return out, nil
}
