// Package build provides the logging plumbing shared by every package in
// this module. Unlike a typical daemon, this process cannot write logs to
// stdout: stdout carries the supervisor control wire. Every subsystem
// logger here is therefore backed by stderr.
package build

import (
	"os"

	"github.com/btcsuite/btclog"
)

// backendLog is the single logging backend all subsystem loggers are
// created from. It writes to stderr, never stdout.
var backendLog = btclog.NewBackend(os.Stderr)

// subsystemLoggers maps each subsystem tag to its already-constructed
// logger, so SetLevel can reach back into loggers handed out before it is
// called.
var subsystemLoggers = make(map[string]btclog.Logger)

// NewSubLogger creates a new subsystem logger with the given four-letter
// tag, backed by the shared stderr backend, and registers it under that
// tag so a later SetLevel call can adjust it.
func NewSubLogger(subsystem string) btclog.Logger {
	logger := backendLog.Logger(subsystem)
	logger.SetLevel(currentLevel)
	subsystemLoggers[subsystem] = logger
	return logger
}

// currentLevel is the minimum level applied to loggers created after the
// most recent SetLevel call.
var currentLevel = btclog.LevelInfo

// SetLevel parses and applies a new minimum log level, both to loggers
// created after this call and, by walking subsystemLoggers, to every
// logger already handed out.
func SetLevel(level string) error {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		return &UnknownLogLevelError{Level: level}
	}

	currentLevel = lvl
	for _, logger := range subsystemLoggers {
		logger.SetLevel(lvl)
	}

	return nil
}

// UnknownLogLevelError is returned by SetLevel when given a string that
// does not name a known btclog level.
type UnknownLogLevelError struct {
	Level string
}

func (e *UnknownLogLevelError) Error() string {
	return "unknown log level: " + e.Level
}
