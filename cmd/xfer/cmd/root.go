// Package cmd implements the xfer command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/logging"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// ClientFactory creates the client a command runs against.
type ClientFactory func(cfg *config.Config, logger *slog.Logger) (*transfer.Client, error)

// DefaultClientFactory creates a client for the configured backend.
func DefaultClientFactory(cfg *config.Config, logger *slog.Logger) (*transfer.Client, error) {
	return cfg.NewClient(transfer.WithLogger(logger))
}

type app struct {
	v       *viper.Viper
	cfgFile string
	factory ClientFactory

	cfg    *config.Config
	logger *slog.Logger
}

// persistent flag name -> configuration key
var boundFlags = map[string]string{
	"backend":      config.KeyBackend,
	"region":       config.KeyRegion,
	"endpoint":     config.KeyEndpoint,
	"path-style":   config.KeyForcePathStyle,
	"part-size":    config.KeyPartSize,
	"concurrency":  config.KeyConcurrency,
	"part-retries": config.KeyPartRetries,
	"log-level":    config.KeyLogLevel,
	"log-format":   config.KeyLogFormat,
}

// NewRootCommand builds the xfer command tree.
func NewRootCommand(factory ClientFactory) *cobra.Command {
	a := &app{v: viper.New(), factory: factory}

	root := &cobra.Command{
		Use:   "xfer",
		Short: "Resumable multipart transfers to S3-compatible stores",
		Long: `xfer uploads files and streams and copies objects between S3-compatible stores.
Large uploads are sent as multipart sessions; an interrupted file upload is
continued on the next run when the parts already stored match the file.

Configuration is read from xfer.yaml, XFER_* environment variables and flags,
in increasing order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./xfer.yaml or <user config dir>/xfer/xfer.yaml)")
	pf.String("backend", "", "store backend: s3 or minio")
	pf.String("region", "", "store region")
	pf.String("endpoint", "", "store endpoint; host:port for the minio backend")
	pf.Bool("path-style", false, "use path-style bucket addressing")
	pf.String("part-size", "", "part size, e.g. 8mb")
	pf.Int("concurrency", 0, "parts in flight per transfer")
	pf.Int("part-retries", 0, "retries of a failed part request")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")

	for name, key := range boundFlags {
		if err := a.v.BindPFlag(key, pf.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %q to %s: %v", name, key, err))
		}
	}

	root.AddCommand(
		a.uploadCommand(),
		a.streamCommand(),
		a.copyCommand(),
		a.abortCommand(),
		a.existsCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return nil
}

func (a *app) client() (*transfer.Client, error) {
	client, err := a.factory(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// objectFlags are the per-object flags shared by the transfer commands.
type objectFlags struct {
	contentType  string
	cacheControl string
	storageClass string
	acl          string
	sse          string
	kmsKeyID     string
	metadata     map[string]string
	noProgress   bool
}

func (f *objectFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.contentType, "content-type", "", "content type of the object")
	fl.StringVar(&f.cacheControl, "cache-control", "", "Cache-Control header of the object")
	fl.StringVar(&f.storageClass, "storage-class", "", "storage class of the object")
	fl.StringVar(&f.acl, "acl", "", "canned ACL of the object")
	fl.StringVar(&f.sse, "sse", "", "server-side encryption: AES256 or aws:kms")
	fl.StringVar(&f.kmsKeyID, "kms-key-id", "", "KMS key for aws:kms encryption")
	fl.StringToStringVar(&f.metadata, "metadata", nil, "user metadata as key=value pairs")
	fl.BoolVar(&f.noProgress, "no-progress", false, "do not draw a progress bar")
}

func (a *app) transferOptions(cmd *cobra.Command, f *objectFlags, description string) []xfertypes.TransferOption {
	opts := a.cfg.TransferOptions()
	if f.contentType != "" {
		opts = append(opts, transfer.WithContentType(f.contentType))
	}
	if f.cacheControl != "" {
		opts = append(opts, transfer.WithCacheControl(f.cacheControl))
	}
	if f.storageClass != "" {
		opts = append(opts, transfer.WithStorageClass(xfertypes.StorageClass(f.storageClass)))
	}
	if f.acl != "" {
		opts = append(opts, transfer.WithACL(xfertypes.ObjectACL(f.acl)))
	}
	if f.sse != "" {
		opts = append(opts, transfer.WithServerSideEncryption(&xfertypes.SSEConfig{
			Type:     xfertypes.SSEType(f.sse),
			KMSKeyID: f.kmsKeyID,
		}))
	}
	if len(f.metadata) > 0 {
		opts = append(opts, transfer.WithMetadata(f.metadata))
	}
	if !f.noProgress {
		opts = append(opts, transfer.WithProgress(newBarTracker(cmd.ErrOrStderr(), description)))
	}
	return opts
}

func report(cmd *cobra.Command, verb string, res *xfertypes.UploadResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%d bytes", verb, formatTarget(res.Bucket, res.Key), res.Size)
	if res.Multipart() {
		fmt.Fprintf(out, ", %d parts", res.Parts)
	}
	if res.Resumed {
		fmt.Fprintf(out, ", resumed session %s skipping %d parts", res.SessionID, res.SkippedParts)
	}
	fmt.Fprintf(out, ", %s)\n", res.Duration.Round(time.Millisecond))
}
