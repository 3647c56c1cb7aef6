package trackdb

import (
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/dbh"
	"github.com/cyclopcam/motionwatch/pkg/grid"
	"github.com/cyclopcam/motionwatch/pkg/motion"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, filename string, flags dbh.DBConnectFlags) *TrackDB {
	t.Helper()
	db, err := Open(logs.NewTestingLog(t), dbh.MakeSqliteConfig(filename), flags)
	if err != nil {
		t.Fatalf("Failed to create TrackDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func frame(n int, objects ...motion.TrackedObject) *motion.FrameResult {
	return &motion.FrameResult{
		FrameNumber: n,
		FrameType:   motion.FrameP,
		Tracked:     objects,
	}
}

func object(id uint32, status motion.Status, first, last, hits, x int) motion.TrackedObject {
	return motion.TrackedObject{
		ID:         id,
		Status:     status,
		Center:     grid.VecF{X: float32(x), Y: 2},
		Bounds:     grid.Rect{MinX: x - 1, MinY: 1, MaxX: x + 1, MaxY: 3},
		FirstFrame: first,
		LastFrame:  last,
		Hits:       hits,
		IoU:        0.5,
	}
}

func TestRecord(t *testing.T) {
	db := setup(t, filepath.Join(t.TempDir(), "tracks.sqlite"), 0)

	require.ErrorIs(t, db.Record(frame(1)), ErrNoSession)

	s, err := db.StartSession("input.csv", 640, 480)
	require.NoError(t, err)
	require.NotEqual(t, int64(0), s.ID)
	require.Equal(t, s.ID, db.SessionID())

	require.NoError(t, db.Record(frame(1)))
	require.NoError(t, db.Record(frame(2, object(1, motion.StatusIntoFrame, 1, 2, 2, 5))))
	require.NoError(t, db.Record(frame(3, object(1, motion.StatusTracking, 1, 3, 3, 6), object(2, motion.StatusIntoFrame, 2, 3, 2, 15))))
	require.NoError(t, db.Record(frame(4, object(1, motion.StatusLost, 1, 3, 3, 7))))

	tracks, err := db.Tracks(s.ID)
	require.NoError(t, err)
	require.Equal(t, 2, len(tracks))
	require.Equal(t, uint32(1), tracks[0].TrackerID)
	require.Equal(t, 1, tracks[0].FirstFrame)
	require.Equal(t, 3, tracks[0].LastFrame)
	require.Equal(t, 3, tracks[0].Hits)
	require.Equal(t, "lost", tracks[0].Status)
	require.Equal(t, float32(7), tracks[0].CenterX)
	require.False(t, tracks[0].LastSeen.IsZero())
	require.Equal(t, uint32(2), tracks[1].TrackerID)
	require.Equal(t, "into-frame", tracks[1].Status)

	events, err := db.Events(s.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 3, len(events))
	for i, e := range events {
		require.Equal(t, i+2, e.Frame)
		require.Equal(t, float32(i+5), e.CenterX)
		require.Equal(t, i+4, e.MinX)
		require.Equal(t, float32(0.5), e.IoU)
	}
	require.Equal(t, "tracking", events[1].Status)

	events, err = db.Events(s.ID, 99)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestSessionsAreSeparate(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tracks.sqlite")
	db := setup(t, filename, 0)
	s1, err := db.StartSession("a.csv", 320, 240)
	require.NoError(t, err)
	require.NoError(t, db.Record(frame(1, object(1, motion.StatusIntoFrame, 0, 1, 2, 3))))
	require.NoError(t, db.Close())

	// Reopen, and start again with the same tracker IDs
	db = setup(t, filename, 0)
	s2, err := db.StartSession("b.csv", 320, 240)
	require.NoError(t, err)
	require.NotEqual(t, s1.ID, s2.ID)
	require.NoError(t, db.Record(frame(1, object(1, motion.StatusIntoFrame, 0, 1, 2, 9))))

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Equal(t, 2, len(sessions))
	require.Equal(t, "a.csv", sessions[0].Input)
	require.Equal(t, "b.csv", sessions[1].Input)

	tracks, err := db.Tracks(s1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, len(tracks))
	require.Equal(t, float32(3), tracks[0].CenterX)
	tracks, err = db.Tracks(s2.ID)
	require.NoError(t, err)
	require.Equal(t, 1, len(tracks))
	require.Equal(t, float32(9), tracks[0].CenterX)

	// Wiping removes everything
	db = setup(t, filename, dbh.DBConnectFlagWipeDB)
	sessions, err = db.Sessions()
	require.NoError(t, err)
	require.Empty(t, sessions)
}
