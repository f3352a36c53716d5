// cmd/bidctl/tender.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bidbuddy-workers/internal/common/config"
	"bidbuddy-workers/internal/common/storage"
)

func newTenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tender",
		Short: "Stage tender documents",
	}

	var key string
	upload := &cobra.Command{
		Use:   "upload <file.pdf>",
		Short: "Upload a tender PDF to object storage",
		Long: `Uploads a tender PDF so extract-tender-structure can fetch it by objectKey.

Example:
  bidctl tender upload nh48.pdf --key tenders/t-1.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if key == "" {
				key = "tenders/" + filepath.Base(args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			client, err := storage.NewMinIO(cfg.Storage.MinIO)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := client.EnsureBucket(ctx); err != nil {
				return err
			}
			if err := client.PutObjectBytes(ctx, key, data, "application/pdf"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to %s/%s (%d bytes)\n", args[0], client.Bucket(), key, len(data))
			return nil
		},
	}
	upload.Flags().StringVar(&key, "key", "", "object key (default tenders/<file name>)")

	cmd.AddCommand(upload)
	return cmd
}
