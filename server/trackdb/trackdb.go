// Package trackdb records the history of tracked objects
package trackdb

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/dbh"
	"github.com/cyclopcam/motionwatch/pkg/motion"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoSession = errors.New("No session has been started")

// TrackDB stores tracker state for every frame that is recorded
type TrackDB struct {
	Log logs.Log

	db        *gorm.DB
	sessionID int64
}

// Open or create a track DB
func Open(log logs.Log, cfg dbh.DBConfig, flags dbh.DBConnectFlags) (*TrackDB, error) {
	log.Infof("Opening track DB (%v)", cfg.LogSafeDescription())
	db, err := dbh.OpenDB(log, cfg, Migrations(log), flags)
	if err != nil {
		return nil, fmt.Errorf("Failed to open track DB: %w", err)
	}
	return &TrackDB{
		Log: log,
		db:  db,
	}, nil
}

func (t *TrackDB) Close() error {
	sqlDB, err := t.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartSession creates a new session, to which all subsequent calls to Record are attached
func (t *TrackDB) StartSession(input string, width, height int) (*Session, error) {
	s := &Session{
		StartTime: dbh.MakeIntTime(time.Now()),
		Input:     input,
		Width:     width,
		Height:    height,
	}
	if err := t.db.Create(s).Error; err != nil {
		return nil, fmt.Errorf("Failed to create session: %w", err)
	}
	t.sessionID = s.ID
	return s, nil
}

// SessionID returns the current session, or zero if none has been started
func (t *TrackDB) SessionID() int64 {
	return t.sessionID
}

// Record saves the state of every tracker in res
func (t *TrackDB) Record(res *motion.FrameResult) error {
	if t.sessionID == 0 {
		return ErrNoSession
	}
	if len(res.Tracked) == 0 {
		return nil
	}
	now := dbh.MakeIntTime(time.Now())
	tracks := make([]Track, 0, len(res.Tracked))
	events := make([]TrackEvent, 0, len(res.Tracked))
	for _, o := range res.Tracked {
		tracks = append(tracks, Track{
			SessionID:  t.sessionID,
			TrackerID:  o.ID,
			FirstFrame: o.FirstFrame,
			LastFrame:  o.LastFrame,
			Hits:       o.Hits,
			Status:     o.Status.String(),
			CenterX:    o.Center.X,
			CenterY:    o.Center.Y,
			LastSeen:   now,
		})
		events = append(events, TrackEvent{
			SessionID: t.sessionID,
			TrackerID: o.ID,
			Frame:     res.FrameNumber,
			Status:    o.Status.String(),
			CenterX:   o.Center.X,
			CenterY:   o.Center.Y,
			MinX:      o.Bounds.MinX,
			MinY:      o.Bounds.MinY,
			MaxX:      o.Bounds.MaxX,
			MaxY:      o.Bounds.MaxY,
			IoU:       o.IoU,
		})
	}
	return t.db.Transaction(func(tx *gorm.DB) error {
		// first_frame is left alone, so that it keeps the value from when the tracker was first seen
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "tracker_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_frame", "hits", "status", "center_x", "center_y", "last_seen"}),
		}).Create(&tracks).Error
		if err != nil {
			return fmt.Errorf("Failed to save tracks of frame %v: %w", res.FrameNumber, err)
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("Failed to save track events of frame %v: %w", res.FrameNumber, err)
		}
		return nil
	})
}

// Sessions returns all sessions, oldest first
func (t *TrackDB) Sessions() ([]Session, error) {
	sessions := []Session{}
	err := t.db.Order("id").Find(&sessions).Error
	return sessions, err
}

// Tracks returns all tracks of a session, ordered by tracker ID
func (t *TrackDB) Tracks(sessionID int64) ([]Track, error) {
	tracks := []Track{}
	err := t.db.Where("session_id = ?", sessionID).Order("tracker_id").Find(&tracks).Error
	return tracks, err
}

// Events returns the frame by frame history of one tracker
func (t *TrackDB) Events(sessionID int64, trackerID uint32) ([]TrackEvent, error) {
	events := []TrackEvent{}
	err := t.db.Where("session_id = ? AND tracker_id = ?", sessionID, trackerID).Order("frame").Find(&events).Error
	return events, err
}
