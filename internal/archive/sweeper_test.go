package archive

import (
	"os"
	"testing"
	"time"

	"notesync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// fakeArchiver models the batch semantics: an already-archived note can
// never be selected again.
type fakeArchiver struct {
	lastUpdated []time.Time
	archived    []bool
	cutoffs     []time.Time
}

func (f *fakeArchiver) ArchiveStale(cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	var n int64
	for i := range f.lastUpdated {
		if !f.archived[i] && f.lastUpdated[i].Before(cutoff) {
			f.archived[i] = true
			n++
		}
	}
	return n, nil
}

func TestSweepArchivesOnlyStaleNotes(t *testing.T) {
	now := time.Now()
	repo := &fakeArchiver{
		lastUpdated: []time.Time{
			now.Add(-31 * 24 * time.Hour), // stale
			now.Add(-29 * 24 * time.Hour), // fresh enough
			now.Add(-60 * 24 * time.Hour), // stale
		},
		archived: make([]bool, 3),
	}
	s := NewSweeper(repo, 24*time.Hour, 30*24*time.Hour)

	archived, err := s.Sweep()
	require.NoError(t, err)
	assert.EqualValues(t, 2, archived)
	assert.Equal(t, []bool{true, false, true}, repo.archived)
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Now()
	repo := &fakeArchiver{
		lastUpdated: []time.Time{now.Add(-45 * 24 * time.Hour)},
		archived:    make([]bool, 1),
	}
	s := NewSweeper(repo, 24*time.Hour, 30*24*time.Hour)

	first, err := s.Sweep()
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	second, err := s.Sweep()
	require.NoError(t, err)
	assert.EqualValues(t, 0, second, "re-running finds nothing to change")
	assert.Equal(t, []bool{true}, repo.archived)
}

func TestSweepBoundaryIsStrict(t *testing.T) {
	// A note exactly at the threshold has age == maxAge, not age > maxAge,
	// so it stays active.
	repo := &fakeArchiver{archived: make([]bool, 1)}
	s := NewSweeper(repo, 24*time.Hour, 30*24*time.Hour)

	_, err := s.Sweep()
	require.NoError(t, err)
	require.Len(t, repo.cutoffs, 1)

	boundary := repo.cutoffs[0]
	repo.lastUpdated = []time.Time{boundary}
	repo.archived = []bool{false}

	archived, err := repo.ArchiveStale(boundary)
	require.NoError(t, err)
	assert.EqualValues(t, 0, archived)
	assert.Equal(t, []bool{false}, repo.archived)
}

func TestSweepCutoffTracksMaxAge(t *testing.T) {
	repo := &fakeArchiver{}
	s := NewSweeper(repo, time.Hour, 30*24*time.Hour)

	before := time.Now().Add(-s.MaxAge)
	_, err := s.Sweep()
	require.NoError(t, err)
	after := time.Now().Add(-s.MaxAge)

	require.Len(t, repo.cutoffs, 1)
	cutoff := repo.cutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(after))
}
