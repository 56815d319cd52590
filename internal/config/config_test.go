package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xfer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, BackendS3, cfg.Store.Backend)
				assert.Equal(t, 3, cfg.Store.MaxRetries)
				assert.True(t, cfg.Store.Secure)
				assert.Zero(t, cfg.Transfer.PartSize)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
			},
		},
		{
			name: "yaml file",
			file: `
store:
  region: eu-west-1
  endpoint: http://localhost:4566
  force_path_style: true
  timeout: 45s
transfer:
  part_size: 16mb
  concurrency: 8
  part_retries: 2
  max_buffer: 64mb
log:
  level: debug
  format: json
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "eu-west-1", cfg.Store.Region)
				assert.Equal(t, "http://localhost:4566", cfg.Store.Endpoint)
				assert.True(t, cfg.Store.ForcePathStyle)
				assert.Equal(t, 45*time.Second, cfg.Store.Timeout)
				assert.Equal(t, int64(16<<20), cfg.Transfer.PartSize)
				assert.Equal(t, int64(64<<20), cfg.Transfer.MaxBuffer)
				assert.Equal(t, 8, cfg.Transfer.Concurrency)
				assert.Equal(t, 2, cfg.Transfer.PartRetries)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		{
			name: "environment overrides file",
			file: "store:\n  region: eu-west-1\n",
			env: map[string]string{
				"XFER_STORE_REGION":         "ap-south-1",
				"XFER_TRANSFER_CONCURRENCY": "12",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "ap-south-1", cfg.Store.Region)
				assert.Equal(t, 12, cfg.Transfer.Concurrency)
			},
		},
		{
			name:    "minio requires endpoint",
			file:    "store:\n  backend: minio\n",
			wantErr: "endpoint is required",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"XFER_STORE_BACKEND": "ftp"},
			wantErr: "unknown backend",
		},
		{
			name:    "concurrency out of range",
			file:    "transfer:\n  concurrency: 1000\n",
			wantErr: KeyConcurrency,
		},
		{
			name:    "unknown log format",
			file:    "log:\n  format: xml\n",
			wantErr: "unknown format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			t.Chdir(t.TempDir())

			var file string
			if tt.file != "" {
				file = writeConfig(t, tt.file)
			}

			cfg, err := Load(viper.New(), file)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_Options(t *testing.T) {
	cfg := &Config{
		Store: StoreConfig{
			Backend:         BackendS3,
			Region:          "us-west-2",
			Endpoint:        "http://localhost:4566",
			AccessKeyID:     "AKID",
			SecretAccessKey: "SECRET",
			Timeout:         time.Second,
		},
		Transfer: TransferConfig{MaxBuffer: 32 << 20},
	}

	assert.Len(t, cfg.ClientOptions(), 9)
	assert.Len(t, cfg.TransferOptions(), 1)

	client, err := cfg.NewClient()
	require.NoError(t, err)
	assert.NotNil(t, client.Store())
}

func TestConfig_NewClientMinIO(t *testing.T) {
	cfg := &Config{Store: StoreConfig{
		Backend:         BackendMinIO,
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	}}
	client, err := cfg.NewClient()
	require.NoError(t, err)
	assert.NotNil(t, client.Store())
}
