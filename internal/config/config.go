// Package config loads the xfer command configuration from a YAML file,
// XFER_ environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "XFER"

// Configuration keys. Nested keys map to environment variables by replacing
// dots with underscores, e.g. XFER_STORE_ENDPOINT.
const (
	KeyBackend         = "store.backend"
	KeyRegion          = "store.region"
	KeyEndpoint        = "store.endpoint"
	KeyAccessKeyID     = "store.access_key_id"
	KeySecretAccessKey = "store.secret_access_key"
	KeySessionToken    = "store.session_token"
	KeyForcePathStyle  = "store.force_path_style"
	KeySecure          = "store.secure"
	KeyMaxRetries      = "store.max_retries"
	KeyTimeout         = "store.timeout"
	KeyPartSize        = "transfer.part_size"
	KeyConcurrency     = "transfer.concurrency"
	KeyPartRetries     = "transfer.part_retries"
	KeyMaxBuffer       = "transfer.max_buffer"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

// Supported store backends.
const (
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Config is the complete xfer configuration.
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Log      LogConfig      `mapstructure:"log"`
}

// StoreConfig selects and addresses the object store.
type StoreConfig struct {
	// Backend is "s3" (AWS SDK) or "minio" (minio-go).
	Backend         string        `mapstructure:"backend"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	SessionToken    string        `mapstructure:"session_token"`
	ForcePathStyle  bool          `mapstructure:"force_path_style"`
	// Secure selects https for the minio backend.
	Secure     bool          `mapstructure:"secure"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// TransferConfig holds transfer defaults. Sizes accept viper size strings
// such as "8mb".
type TransferConfig struct {
	PartSize    int64 `mapstructure:"-"`
	Concurrency int   `mapstructure:"concurrency"`
	PartRetries int   `mapstructure:"part_retries"`
	MaxBuffer   int64 `mapstructure:"-"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, BackendS3)
	v.SetDefault(KeyRegion, "")
	v.SetDefault(KeyEndpoint, "")
	v.SetDefault(KeyAccessKeyID, "")
	v.SetDefault(KeySecretAccessKey, "")
	v.SetDefault(KeySessionToken, "")
	v.SetDefault(KeyForcePathStyle, false)
	v.SetDefault(KeySecure, true)
	v.SetDefault(KeyMaxRetries, 3)
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyPartSize, "0")
	v.SetDefault(KeyConcurrency, 0)
	v.SetDefault(KeyPartRetries, 0)
	v.SetDefault(KeyMaxBuffer, "0")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// Load reads the configuration into v and decodes it.
//
// When file is empty, xfer.yaml is looked up in the working directory and the
// user config directory; a missing file is not an error. Environment
// variables override the file and flags bound to v override both.
func Load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("xfer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "xfer"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Transfer.PartSize = int64(v.GetSizeInBytes(KeyPartSize))
	cfg.Transfer.MaxBuffer = int64(v.GetSizeInBytes(KeyMaxBuffer))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the decoded configuration.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendS3:
	case BackendMinIO:
		if c.Store.Endpoint == "" {
			return fmt.Errorf("%s: endpoint is required for the minio backend", KeyEndpoint)
		}
	default:
		return fmt.Errorf("%s: unknown backend %q", KeyBackend, c.Store.Backend)
	}

	if err := validation.ValidatePartSize(c.Transfer.PartSize); err != nil {
		return fmt.Errorf("%s: %w", KeyPartSize, err)
	}
	if err := validation.ValidateConcurrency(c.Transfer.Concurrency); err != nil {
		return fmt.Errorf("%s: %w", KeyConcurrency, err)
	}
	if c.Transfer.PartRetries < 0 {
		return fmt.Errorf("%s: must not be negative", KeyPartRetries)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%s: unknown format %q", KeyLogFormat, c.Log.Format)
	}
	return nil
}

// ClientOptions converts the configuration into client options.
func (c *Config) ClientOptions() []xfertypes.Option {
	opts := []xfertypes.Option{
		transfer.WithMaxRetries(c.Store.MaxRetries),
		transfer.WithForcePathStyle(c.Store.ForcePathStyle),
		transfer.WithConcurrency(c.Transfer.Concurrency),
		transfer.WithPartSize(c.Transfer.PartSize),
		transfer.WithPartRetries(c.Transfer.PartRetries),
	}
	if c.Store.Region != "" {
		opts = append(opts, transfer.WithRegion(c.Store.Region))
	}
	if c.Store.Endpoint != "" {
		opts = append(opts, transfer.WithEndpoint(c.Store.Endpoint))
	}
	if c.Store.AccessKeyID != "" {
		opts = append(opts, transfer.WithCredentials(
			c.Store.AccessKeyID, c.Store.SecretAccessKey, c.Store.SessionToken))
	}
	if c.Store.Timeout > 0 {
		opts = append(opts, transfer.WithTimeout(c.Store.Timeout))
	}
	return opts
}

// TransferOptions returns the per-transfer options the configuration sets.
func (c *Config) TransferOptions() []xfertypes.TransferOption {
	var opts []xfertypes.TransferOption
	if c.Transfer.MaxBuffer > 0 {
		opts = append(opts, transfer.WithMaxBufferSize(c.Transfer.MaxBuffer))
	}
	return opts
}

// NewClient creates a client for the configured backend.
func (c *Config) NewClient(extra ...xfertypes.Option) (*transfer.Client, error) {
	opts := append(c.ClientOptions(), extra...)
	switch c.Store.Backend {
	case BackendMinIO:
		return transfer.NewMinIO(c.Store.Endpoint, c.Store.AccessKeyID, c.Store.SecretAccessKey, c.Store.Secure, opts...)
	default:
		return transfer.New(opts...)
	}
}
