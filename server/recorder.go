package server

import (
	"context"

	"WaveFM/logger"
	"WaveFM/model"
	"WaveFM/repository"
	"WaveFM/store"
)

// playRecorder feeds each selected song into the recents list and the
// play history archive. The recents write is authoritative; a history
// append failure is logged and swallowed so playback never stalls on it.
type playRecorder struct {
	recent  *store.RecentLog
	history repository.HistoryRepository
}

func newPlayRecorder(recent *store.RecentLog, history repository.HistoryRepository) *playRecorder {
	return &playRecorder{recent: recent, history: history}
}

func (r *playRecorder) Record(ctx context.Context, song model.Song) error {
	if err := r.recent.Record(ctx, song); err != nil {
		return err
	}
	if r.history != nil {
		if err := r.history.Append(ctx, song); err != nil {
			logger.Warn("failed to archive play record",
				logger.String("songId", song.ID),
				logger.ErrorField(err))
		}
	}
	return nil
}
