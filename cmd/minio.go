package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"WaveFM/config"
	"WaveFM/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO connectivity check",
	Long:  `Verify the MinIO connection, the bucket, and a basic object round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Testing MinIO connection...")

		cfg := config.Load()
		fmt.Printf("MinIO config: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		blobs, err := storage.NewMinioBlobStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection established.")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := blobs.SelfTest(ctx); err != nil {
			log.Fatalf("MinIO round trip failed: %v", err)
		}
		fmt.Println("MinIO round trip succeeded.")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
