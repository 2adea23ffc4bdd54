package cmd

import (
	"fmt"
	"log"

	"WaveFM/config"
	"WaveFM/core/catalog"
	"WaveFM/db"
	"WaveFM/repository"

	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the song catalog into MySQL",
	Long:  `Read a catalog seed file (JSON array of songs) and replace the songs table with its contents.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		path := seedFile
		if path == "" {
			path = cfg.CatalogSeedPath
		}
		fmt.Printf("Seeding catalog from %s...\n", path)

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database schema: %v", err)
		}

		songs, err := catalog.LoadSeedFile(path)
		if err != nil {
			log.Fatalf("Failed to load seed file: %v", err)
		}

		repo := repository.NewMySQLSongRepository()
		if err := repo.ReplaceAll(songs); err != nil {
			log.Fatalf("Failed to write catalog: %v", err)
		}

		count, err := repo.Count()
		if err != nil {
			log.Fatalf("Failed to count songs: %v", err)
		}
		fmt.Printf("Catalog seeded: %d songs.\n", count)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed file path (defaults to CATALOG_SEED)")
	rootCmd.AddCommand(seedCmd)
}
