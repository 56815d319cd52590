package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func (a *app) uploadCommand() *cobra.Command {
	var (
		flags    objectFlags
		noResume bool
	)
	cmd := &cobra.Command{
		Use:   "upload FILE s3://BUCKET/KEY",
		Short: "Upload a file, resuming an interrupted upload of the same key",
		Long: `Upload a local file. Files over 20 MiB are sent as a multipart session.
When KEY is empty or ends in "/", the file name is appended.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, err := parseTarget(args[1])
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			key = objectKey(key, filepath.Base(path))

			opts := a.transferOptions(cmd, &flags, filepath.Base(path))
			if noResume {
				opts = append(opts, transfer.WithoutResume())
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.UploadFile(cmd.Context(), bucket, key, path, opts...)
			if err != nil {
				return err
			}
			report(cmd, "uploaded", res)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "always start a new multipart session")
	return cmd
}

func (a *app) streamCommand() *cobra.Command {
	var flags objectFlags
	cmd := &cobra.Command{
		Use:   "stream s3://BUCKET/KEY",
		Short: "Upload standard input",
		Long: `Upload everything read from standard input. Parts are read in order and
sent concurrently; at most transfer.max_buffer bytes wait in memory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, err := parseTarget(args[0])
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.UploadStream(cmd.Context(), bucket, key, cmd.InOrStdin(),
				a.transferOptions(cmd, &flags, "stdin")...)
			if err != nil {
				return err
			}
			report(cmd, "uploaded", res)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) copyCommand() *cobra.Command {
	var (
		flags objectFlags
		src   xfertypes.CopySource
	)
	cmd := &cobra.Command{
		Use:   "copy s3://SRC_BUCKET/SRC_KEY s3://BUCKET/KEY",
		Short: "Copy an object server-side",
		Long: `Copy an object without downloading it. A source in another region or on
another endpoint that is larger than 5 GiB is copied as byte ranges.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if src.Bucket, src.Key, err = parseTarget(args[0]); err != nil {
				return err
			}
			bucket, key, err := parseTarget(args[1])
			if err != nil {
				return err
			}
			key = objectKey(key, filepath.Base(src.Key))

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Copy(cmd.Context(), bucket, key, src,
				a.transferOptions(cmd, &flags, src.Key)...)
			if err != nil {
				return err
			}
			report(cmd, "copied", res)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&src.Region, "source-region", "", "region of the source; defaults to the destination's")
	cmd.Flags().StringVar(&src.Endpoint, "source-endpoint", "", "endpoint of the source; defaults to the destination's")
	cmd.Flags().StringVar(&src.VersionID, "source-version", "", "version of the source object")
	return cmd
}

func (a *app) abortCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "abort s3://BUCKET/KEY",
		Short: "Abort incomplete multipart sessions of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, err := parseTarget(args[0])
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := client.AbortIncomplete(cmd.Context(), bucket, key)
			fmt.Fprintf(cmd.OutOrStdout(), "aborted %d sessions of %s\n", n, formatTarget(bucket, key))
			return err
		},
	}
}

func (a *app) existsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists s3://BUCKET/KEY",
		Short: "Report whether an object exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, key, err := parseTarget(args[0])
			if err != nil {
				return err
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer client.Close()

			ok, err := client.Exists(cmd.Context(), bucket, key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s does not exist", formatTarget(bucket, key))
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTarget(bucket, key))
			return nil
		},
	}
}
