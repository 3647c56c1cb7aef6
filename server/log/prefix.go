// Package log adds prefixes and level filtering on top of logs.Log
package log

import "github.com/cyclopcam/logs"

// PrefixLogger writes to the underlying log, but all messages are prefixed with a string of your choice.
// If Quiet is true, debug messages are discarded.
type PrefixLogger struct {
	logs.Log
	Prefix string
	Quiet  bool
}

// Create a new PrefixLogger. A space is added after prefix, unless prefix is empty.
func NewPrefixLogger(log logs.Log, prefix string) *PrefixLogger {
	if prefix != "" {
		prefix += " "
	}
	return &PrefixLogger{
		Log:    log,
		Prefix: prefix,
	}
}

// Create a logger that drops debug messages
func NewQuietLogger(log logs.Log) *PrefixLogger {
	return &PrefixLogger{
		Log:   log,
		Quiet: true,
	}
}

func (l *PrefixLogger) Debugf(format string, a ...any) {
	if l.Quiet {
		return
	}
	l.Log.Debugf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Infof(format string, a ...any) {
	l.Log.Infof(l.Prefix+format, a...)
}

func (l *PrefixLogger) Warnf(format string, a ...any) {
	l.Log.Warnf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Errorf(format string, a ...any) {
	l.Log.Errorf(l.Prefix+format, a...)
}
