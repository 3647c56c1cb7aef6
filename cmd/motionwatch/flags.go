package main

import (
	"github.com/cyclopcam/motionwatch/pkg/dbh"
	"github.com/cyclopcam/motionwatch/pkg/motion"
	"github.com/cyclopcam/motionwatch/server/config"
)

// Default of --alpha and --beta, so that an explicit 0 still overrides the config file.
// Neither threshold may be negative.
const unsetFloat = -1.0

// cmdFlags holds the parsed command line values that can override the config file.
// Zero values (and unsetFloat) mean "not given".
type cmdFlags struct {
	input       string
	width       int
	height      int
	granularity string
	sectors     int
	element     string
	alpha       float64
	beta        float64
	skip        int
	keepLost    bool
	console     bool
	maskFile    string
	pngDir      string
	dbFile      string
	listen      string
}

func (f *cmdFlags) apply(cfg *config.Config) {
	if f.input != "" {
		cfg.Input = f.input
	}
	if f.width != 0 {
		cfg.Width = f.width
	}
	if f.height != 0 {
		cfg.Height = f.height
	}
	if f.granularity != "" {
		cfg.Motion.Granularity = motion.Granularity(f.granularity)
	}
	if f.sectors != 0 {
		cfg.Motion.Granularity = motion.GranularitySectors
		cfg.Motion.Sectors = f.sectors
	}
	if f.element != "" {
		cfg.Motion.Element = motion.Element(f.element)
	}
	if f.alpha >= 0 {
		cfg.Motion.Alpha = float32(f.alpha)
	}
	if f.beta >= 0 {
		cfg.Motion.Beta = float32(f.beta)
	}
	if f.skip != 0 {
		cfg.Skip = f.skip
	}
	if f.keepLost {
		cfg.Motion.KeepLost = true
	}
	if f.console {
		cfg.Output.Console = true
	}
	if f.maskFile != "" {
		cfg.Output.Mask = f.maskFile
	}
	if f.pngDir != "" {
		cfg.Output.PNGDir = f.pngDir
	}
	if f.dbFile != "" {
		db := dbh.MakeSqliteConfig(f.dbFile)
		cfg.DB = &db
	}
	if f.listen != "" {
		cfg.Listen = f.listen
	}
}
