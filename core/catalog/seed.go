package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"WaveFM/logger"
	"WaveFM/model"
	"WaveFM/repository"
)

// LoadSeedFile reads a catalog seed file: a JSON array of songs.
func LoadSeedFile(path string) ([]model.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed %s: %w", path, err)
	}

	var songs []model.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}

	for i := range songs {
		if strings.TrimSpace(songs[i].ID) == "" {
			return nil, fmt.Errorf("catalog seed %s: entry %d has no id", path, i)
		}
	}
	return songs, nil
}

// Seed replaces the catalog with the contents of the seed file. A missing
// file is not an error: the catalog simply stays as it is.
func Seed(repo repository.SongRepository, path string) error {
	songs, err := LoadSeedFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("catalog seed file not found, keeping existing catalog",
				logger.String("path", path))
			return nil
		}
		return err
	}

	if err := repo.ReplaceAll(songs); err != nil {
		return err
	}
	logger.Info("catalog seeded",
		logger.String("path", path),
		logger.Int("songs", len(songs)))
	return nil
}
