package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/kibi"
	"github.com/cyclopcam/motionwatch/pkg/motion"
	"github.com/cyclopcam/motionwatch/pkg/mvrender"
	"github.com/cyclopcam/motionwatch/pkg/mvsource"
	"github.com/cyclopcam/motionwatch/server/config"
	"github.com/cyclopcam/motionwatch/server/livefeed"
	"github.com/cyclopcam/motionwatch/server/log"
	"github.com/cyclopcam/motionwatch/server/trackdb"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

// outputs are everything that consumes a frame result
type outputs struct {
	log     logs.Log
	console *bufio.Writer
	mask    *mvrender.MaskWriter
	maskOut io.Closer
	pngDir  string
	scale   int
	db      *trackdb.TrackDB
	feed    *livefeed.Server
}

func (o *outputs) write(res *motion.FrameResult) error {
	if o.console != nil {
		if err := mvrender.WriteTierMap(o.console, res); err != nil {
			return err
		}
		if err := mvrender.WriteRegionSummary(o.console, res); err != nil {
			return err
		}
	}
	if o.mask != nil {
		if err := o.mask.WriteFrame(res); err != nil {
			return fmt.Errorf("Failed to write mask frame %v: %w", res.FrameNumber, err)
		}
	}
	if o.pngDir != "" {
		if err := mvrender.RenderPNG(res, o.scale, filepath.Join(o.pngDir, fmt.Sprintf("frame-%06d.png", res.FrameNumber))); err != nil {
			return err
		}
	}
	if o.db != nil {
		if err := o.db.Record(res); err != nil {
			return err
		}
	}
	if o.feed != nil {
		o.feed.Publish(res)
	}
	return nil
}

func (o *outputs) close() {
	if o.console != nil {
		o.console.Flush()
	}
	if o.mask != nil {
		if err := o.mask.Flush(); err != nil {
			o.log.Errorf("Failed to flush mask video: %v", err)
		}
		if o.maskOut != nil {
			o.maskOut.Close()
		}
	}
	if o.db != nil {
		o.db.Close()
	}
}

func main() {
	parser := argparse.NewParser("motionwatch", "Segment and track moving objects using the motion vectors of a compressed video")
	input := parser.String("i", "input", &argparse.Options{Help: "Motion vector CSV file (ffmpeg extract_mvs format)"})
	width := parser.Int("W", "width", &argparse.Options{Help: "Video width in pixels"})
	height := parser.Int("H", "height", &argparse.Options{Help: "Video height in pixels"})
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON or YAML config file"})
	sectors := parser.Int("g", "sectors", &argparse.Options{Help: "Split the frame into this many cells per axis (implies --granularity sectors)"})
	granularity := parser.Selector("", "granularity", []string{"subblock", "macroblock", "sectors"}, &argparse.Options{Help: "Size of a grid cell"})
	element := parser.Selector("e", "element", []string{"cross", "square"}, &argparse.Options{Help: "Structuring element for erosion and dilation"})
	alpha := parser.Float("", "alpha", &argparse.Options{Help: "Similarity threshold (0..1)", Default: unsetFloat})
	beta := parser.Float("", "beta", &argparse.Options{Help: "Magnitude threshold, in pixels", Default: unsetFloat})
	skip := parser.Int("p", "skip", &argparse.Options{Help: "Analyze only every Nth frame, after the first 10"})
	keepLost := parser.Flag("", "keeplost", &argparse.Options{Help: "Keep unmatched trackers alive until their lifetime runs out"})
	console := parser.Flag("", "console", &argparse.Options{Help: "Print the tier map and regions of every frame"})
	maskFile := parser.String("o", "output", &argparse.Options{Help: "Write a YUV4MPEG2 mask video here ('-' for stdout)"})
	pngDir := parser.String("", "png", &argparse.Options{Help: "Write one PNG per frame into this directory"})
	dbFile := parser.String("", "db", &argparse.Options{Help: "Record tracks into this sqlite database"})
	listen := parser.String("", "listen", &argparse.Options{Help: "Serve the live feed on this address, such as :8080"})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Show debug messages"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	var logger logs.Log
	logger, err = logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if !*verbose {
		logger = log.NewQuietLogger(logger)
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		check(err)
		cfg = *loaded
	}

	// Command line overrides the config file
	flags := cmdFlags{
		input:       *input,
		width:       *width,
		height:      *height,
		granularity: *granularity,
		sectors:     *sectors,
		element:     *element,
		alpha:       *alpha,
		beta:        *beta,
		skip:        *skip,
		keepLost:    *keepLost,
		console:     *console,
		maskFile:    *maskFile,
		pngDir:      *pngDir,
		dbFile:      *dbFile,
		listen:      *listen,
	}
	flags.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if cfg.Output.Console && cfg.Output.Mask == "-" {
		logger.Errorf("Console output and a mask video on stdout cannot be combined")
		os.Exit(1)
	}

	if err := run(logger, &cfg); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(logger logs.Log, cfg *config.Config) error {
	reader, err := mvsource.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer reader.Close()

	detector, err := motion.NewDetector(logger, cfg.Motion, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	geom := detector.Geometry()
	logger.Infof("Grid is %v x %v cells of %v x %v pixels", geom.Cols, geom.Rows, geom.CellWidth, geom.CellHeight)

	out := &outputs{
		log:    logger,
		pngDir: cfg.Output.PNGDir,
		scale:  cfg.Output.PNGScale,
	}
	defer out.close()

	if cfg.Output.Console {
		out.console = bufio.NewWriterSize(os.Stdout, 64*1024)
	}
	if cfg.Output.Mask != "" {
		var w io.Writer = os.Stdout
		if cfg.Output.Mask != "-" {
			f, err := os.Create(cfg.Output.Mask)
			if err != nil {
				return fmt.Errorf("Failed to create mask video: %w", err)
			}
			out.maskOut = f
			w = f
		}
		out.mask = mvrender.NewMaskWriter(w, cfg.Width, cfg.Height, cfg.Output.FPS)
	}
	if out.pngDir != "" {
		if err := os.MkdirAll(out.pngDir, 0755); err != nil {
			return fmt.Errorf("Failed to create PNG directory: %w", err)
		}
	}
	if cfg.DB != nil {
		out.db, err = trackdb.Open(log.NewPrefixLogger(logger, "trackdb:"), *cfg.DB, 0)
		if err != nil {
			return err
		}
		if _, err := out.db.StartSession(cfg.Input, cfg.Width, cfg.Height); err != nil {
			return err
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	feedErr := make(chan error, 1)
	if cfg.Listen != "" {
		out.feed = livefeed.NewServer(log.NewPrefixLogger(logger, "livefeed:"))
		go func() {
			feedErr <- out.feed.ListenAndServe(cfg.Listen)
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			out.feed.Shutdown(ctx)
		}()
	}

	start := time.Now()
	results := 0
	interrupted := false
	for !interrupted {
		select {
		case <-interrupt:
			logger.Infof("Interrupted")
			interrupted = true
			continue
		case err := <-feedErr:
			if err != nil {
				return fmt.Errorf("Live feed failed: %w", err)
			}
		default:
		}

		frame, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return err
		}
		if !mvsource.Sample(frame.Number, cfg.Skip) {
			continue
		}
		res := detector.Push(frame)
		if res == nil {
			continue
		}
		results++
		if err := out.write(res); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	stats := detector.Stats()
	if elapsed > 0 {
		logger.Infof("Average FPS: %.3f (%v results)", float64(stats.FramesIn)/elapsed.Seconds(), results)
	}
	logger.Infof("%v", stats.Summary())
	if out.mask != nil {
		logger.Infof("Mask video: %v frames, %v", results, kibi.Bytes(int64(results)*int64(cfg.Width)*int64(cfg.Height)))
	}

	if out.feed != nil && !interrupted {
		logger.Infof("Input finished. Live feed is still serving on %v. Press Ctrl-C to exit", cfg.Listen)
		select {
		case <-interrupt:
		case err := <-feedErr:
			return err
		}
	}
	return nil
}
