package trackdb

import "github.com/cyclopcam/motionwatch/pkg/dbh"

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Session is one run of the detector over an input
type Session struct {
	BaseModel
	StartTime dbh.IntTime `json:"startTime"`
	Input     string      `json:"input"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
}

// Track is the latest state of one tracker.
// TrackerID is only unique within a session.
type Track struct {
	BaseModel
	SessionID  int64       `json:"sessionID"`
	TrackerID  uint32      `json:"trackerID"`
	FirstFrame int         `json:"firstFrame"`
	LastFrame  int         `json:"lastFrame"`
	Hits       int         `json:"hits"`
	Status     string      `json:"status"`
	CenterX    float32     `json:"centerX"` // Cells
	CenterY    float32     `json:"centerY"`
	LastSeen   dbh.IntTime `json:"lastSeen"`
}

// TrackEvent is the state of a tracker in a single frame
type TrackEvent struct {
	BaseModel
	SessionID int64   `json:"sessionID"`
	TrackerID uint32  `json:"trackerID"`
	Frame     int     `json:"frame"`
	Status    string  `json:"status"`
	CenterX   float32 `json:"centerX"`
	CenterY   float32 `json:"centerY"`
	MinX      int     `json:"minX"`
	MinY      int     `json:"minY"`
	MaxX      int     `json:"maxX"`
	MaxY      int     `json:"maxY"`
	IoU       float32 `gorm:"column:iou" json:"iou"`
}
