package transfer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store/miniostore"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/store/s3store"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// defaultRegion is used when neither the options nor the environment name one.
const defaultRegion = "us-east-1"

// Client runs resumable multipart transfers against one object store.
// It is safe for concurrent use. Transfers of the same bucket/key through one
// Client run one at a time so two of them never continue the same session.
type Client struct {
	store  store.Store
	xfer   *multipart.Transfer
	fs     billy.Filesystem
	logger *slog.Logger
	cfg    xfertypes.ClientConfig
	locks  *keyLocks
}

func defaultConfig() xfertypes.ClientConfig {
	return xfertypes.ClientConfig{
		MaxRetries:  3,
		Concurrency: multipart.DefaultConcurrency,
	}
}

// New creates a Client for an S3-compatible store reached through the AWS SDK.
// Credentials come from the options or, failing that, the default AWS
// credential chain.
//
// Example:
//
//	client, err := transfer.New(
//	    transfer.WithRegion("eu-central-1"),
//	    transfer.WithConcurrency(8),
//	)
func New(opts ...xfertypes.Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	awsCfg, err := loadAWSConfig(context.Background(), &cfg)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if hc := httpClient(&cfg); hc != nil {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = hc
		})
	}

	return newClient(s3store.NewFromConfig(awsCfg, s3Opts...), cfg)
}

// NewMinIO creates a Client for a MinIO or other S3-compatible endpoint
// reached through the minio-go client. An empty accessKey reads credentials
// from the AWS environment variables.
func NewMinIO(endpoint, accessKey, secretKey string, secure bool, opts ...xfertypes.Option) (*Client, error) {
	cfg := defaultConfig()
	cfg.Endpoint = endpoint
	for _, opt := range opts {
		opt(&cfg)
	}

	var transport http.RoundTripper
	if hc := httpClient(&cfg); hc != nil {
		transport = hc.Transport
	}
	st, err := miniostore.Dial(endpoint, accessKey, secretKey, cfg.Region, secure, transport)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}
	return newClient(st, cfg)
}

// NewWithStore creates a Client on top of an existing store.
// This is primarily used for testing and for custom store implementations.
func NewWithStore(st store.Store, opts ...xfertypes.Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newClient(st, cfg)
}

func newClient(st store.Store, cfg xfertypes.ClientConfig) (*Client, error) {
	rec, err := metrics.New(cfg.Registerer)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}

	fs := cfg.Filesystem
	if fs == nil {
		fs = osfs.New("/")
	}

	return &Client{
		store:  st,
		fs:     fs,
		logger: cfg.Logger,
		cfg:    cfg,
		locks:  newKeyLocks(),
		xfer: multipart.New(st,
			multipart.WithLogger(cfg.Logger),
			multipart.WithMetrics(rec),
			multipart.WithPartRetries(cfg.PartRetries),
			multipart.WithConcurrency(cfg.Concurrency),
			multipart.WithDestination(cfg.Region, cfg.Endpoint),
		),
	}, nil
}

func loadAWSConfig(ctx context.Context, cfg *xfertypes.ClientConfig) (aws.Config, error) {
	if cfg.CustomAWSConfig != nil {
		awsCfg := cfg.CustomAWSConfig.Copy()
		if cfg.Region != "" {
			awsCfg.Region = cfg.Region
		} else {
			cfg.Region = awsCfg.Region
		}
		return awsCfg, nil
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	if cfg.MaxRetries > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(cfg.MaxRetries))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, err
	}
	if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}
	cfg.Region = awsCfg.Region
	return awsCfg, nil
}

func httpClient(cfg *xfertypes.ClientConfig) *http.Client {
	switch {
	case cfg.HTTPClient != nil:
		return cfg.HTTPClient
	case cfg.Timeout > 0:
		return &http.Client{Timeout: cfg.Timeout}
	default:
		return nil
	}
}

// Store returns the store the client transfers to.
func (c *Client) Store() store.Store {
	return c.store
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}
