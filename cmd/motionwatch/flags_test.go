package main

import (
	"testing"

	"github.com/cyclopcam/motionwatch/pkg/motion"
	"github.com/cyclopcam/motionwatch/server/config"
	"github.com/stretchr/testify/require"
)

func unsetFlags() cmdFlags {
	return cmdFlags{alpha: unsetFloat, beta: unsetFloat}
}

func TestFlagsLeaveConfigAlone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Motion.Alpha = 0.5
	cfg.Motion.Beta = 2
	f := unsetFlags()
	f.apply(&cfg)
	require.Equal(t, float32(0.5), cfg.Motion.Alpha)
	require.Equal(t, float32(2), cfg.Motion.Beta)
	require.Nil(t, cfg.DB)
}

func TestFlagsZeroBeta(t *testing.T) {
	cfg := config.DefaultConfig()
	f := unsetFlags()
	f.beta = 0
	f.alpha = 0.9
	f.apply(&cfg)
	require.Equal(t, float32(0), cfg.Motion.Beta)
	require.Equal(t, float32(0.9), cfg.Motion.Alpha)
	require.NoError(t, cfg.Motion.Validate())

	// An explicit zero alpha reaches validation, instead of being ignored
	f.alpha = 0
	f.apply(&cfg)
	require.ErrorIs(t, cfg.Motion.Validate(), motion.ErrBadConfig)
}

func TestFlagsSectorsAndDB(t *testing.T) {
	cfg := config.DefaultConfig()
	f := unsetFlags()
	f.sectors = 4
	f.dbFile = "tracks.sqlite"
	f.keepLost = true
	f.apply(&cfg)
	require.Equal(t, motion.GranularitySectors, cfg.Motion.Granularity)
	require.Equal(t, 4, cfg.Motion.Sectors)
	require.True(t, cfg.Motion.KeepLost)
	require.NotNil(t, cfg.DB)
	require.Equal(t, "tracks.sqlite", cfg.DB.Database)
}
