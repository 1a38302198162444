package archive

import (
	"context"
	"time"

	"notesync/pkg/logger"
)

// NoteArchiver is the slice of the note repository the sweeper needs.
type NoteArchiver interface {
	ArchiveStale(cutoff time.Time) (int64, error)
}

// Sweeper periodically archives notes that have not been touched for longer
// than MaxAge. The whole sweep is one batch update, so re-running it is
// harmless: an already-archived note is never selected again.
type Sweeper struct {
	Repo     NoteArchiver
	Interval time.Duration
	MaxAge   time.Duration
}

func NewSweeper(repo NoteArchiver, interval, maxAge time.Duration) *Sweeper {
	return &Sweeper{Repo: repo, Interval: interval, MaxAge: maxAge}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(); err != nil {
				logger.Sugar.Errorf("Archive sweep failed: %v", err)
			}
		}
	}
}

// Sweep archives every active note strictly older than the age threshold and
// reports how many it touched.
func (s *Sweeper) Sweep() (int64, error) {
	cutoff := time.Now().Add(-s.MaxAge)
	archived, err := s.Repo.ArchiveStale(cutoff)
	if err != nil {
		return 0, err
	}
	if archived > 0 {
		logger.Sugar.Infof("Archived %d stale notes", archived)
	}
	return archived, nil
}
