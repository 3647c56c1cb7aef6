package trackdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/dbh"
)

func Migrations(log logs.Log) []migration.Migrator {
	return dbh.MakeMigrations(log, []string{
		`
		CREATE TABLE session(
			id INTEGER PRIMARY KEY,
			start_time INT,
			input TEXT NOT NULL,
			width INT NOT NULL,
			height INT NOT NULL
		);

		CREATE TABLE track(
			id INTEGER PRIMARY KEY,
			session_id INT NOT NULL,
			tracker_id INT NOT NULL,
			first_frame INT NOT NULL,
			last_frame INT NOT NULL,
			hits INT NOT NULL,
			status TEXT NOT NULL,
			center_x REAL NOT NULL,
			center_y REAL NOT NULL,
			last_seen INT
		);
		CREATE UNIQUE INDEX idx_track_session_tracker ON track(session_id, tracker_id);

		CREATE TABLE track_event(
			id INTEGER PRIMARY KEY,
			session_id INT NOT NULL,
			tracker_id INT NOT NULL,
			frame INT NOT NULL,
			status TEXT NOT NULL,
			center_x REAL NOT NULL,
			center_y REAL NOT NULL,
			min_x INT NOT NULL,
			min_y INT NOT NULL,
			max_x INT NOT NULL,
			max_y INT NOT NULL,
			iou REAL NOT NULL
		);
		CREATE INDEX idx_track_event_session_tracker ON track_event(session_id, tracker_id, frame);
		`,
	})
}
