package log

import (
	"fmt"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

type recordingLog struct {
	logs.Log
	lines []string
}

func (r *recordingLog) Debugf(format string, a ...any) {
	r.lines = append(r.lines, "D "+fmt.Sprintf(format, a...))
}

func (r *recordingLog) Infof(format string, a ...any) {
	r.lines = append(r.lines, "I "+fmt.Sprintf(format, a...))
}

func (r *recordingLog) Warnf(format string, a ...any) {
	r.lines = append(r.lines, "W "+fmt.Sprintf(format, a...))
}

func (r *recordingLog) Errorf(format string, a ...any) {
	r.lines = append(r.lines, "E "+fmt.Sprintf(format, a...))
}

func TestPrefixLogger(t *testing.T) {
	rec := &recordingLog{Log: logs.NewTestingLog(t)}
	var l logs.Log = NewPrefixLogger(rec, "feed:")
	l.Debugf("a %v", 1)
	l.Infof("b")
	l.Warnf("c")
	l.Errorf("d %v", "x")
	require.Equal(t, []string{"D feed: a 1", "I feed: b", "W feed: c", "E feed: d x"}, rec.lines)

	rec.lines = nil
	l = NewQuietLogger(rec)
	l.Debugf("hidden")
	l.Infof("shown")
	require.Equal(t, []string{"I shown"}, rec.lines)

	rec.lines = nil
	NewPrefixLogger(rec, "").Infof("bare")
	require.Equal(t, []string{"I bare"}, rec.lines)
}
