// Command sonido-pitch tracks the pitch of WAV files frame by frame.
//
// Usage:
//
//	sonido-pitch tone.wav
//	sonido-pitch -m autocorrelation --fft -w 4 violin.wav
//	sonido-pitch --json --min-confidence 0.8 voice.wav
//	sonido-pitch -c tracker.json *.wav
//	sonido-pitch --chunk 128 --dc-cutoff 20 live-capture.wav
//	sonido-pitch --target 440 --voiced a4-take.wav
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	"github.com/RyanBlaney/sonido-pitch/algorithms/stats"
	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pitch/analysis"
	"github.com/RyanBlaney/sonido-pitch/logging"
	"github.com/RyanBlaney/sonido-pitch/transcode"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"existingfile" help:"JSON tracker config; replaces the analysis flags below"`

	Method        string  `short:"m" default:"yin" enum:"yin,autocorrelation" help:"Pitch estimator (${enum})"`
	Threshold     float64 `short:"t" default:"0.1" help:"YIN threshold, in (0, 1)"`
	FrameSize     int     `default:"2048" help:"Samples per analysis frame"`
	HopSize       int     `default:"512" help:"Samples between frame starts"`
	MaxLag        int     `default:"2048" help:"Longest candidate period in samples"`
	MaxFreq       float64 `default:"1000" help:"Highest detectable frequency (Hz)"`
	FFT           bool    `help:"Evaluate autocorrelation with an FFT"`
	RMSThreshold  float64 `name:"rms-threshold" default:"0.01" help:"Skip frames quieter than this RMS"`
	MinConfidence float64 `default:"0" help:"Discard pitches below this confidence"`
	DCCutoff      float64 `name:"dc-cutoff" default:"0" help:"Remove DC below this frequency (Hz); 0 disables"`
	Workers       int     `short:"w" default:"1" help:"Frames analysed concurrently"`

	Chunk    int     `default:"0" help:"Feed the tracker in chunks of this many samples, as a live capture would; 0 analyses whole files"`
	Target   float64 `default:"0" help:"Score notes held in tune against this frequency (Hz); 0 disables"`
	JSON     bool    `help:"Emit one JSON object per frame"`
	Voiced   bool    `help:"Only print frames with a pitch"`
	LogLevel string  `default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	NoColor  bool    `help:"Disable colored output"`

	Files []string `arg:"" name:"files" help:"WAV files to analyse" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("sonido-pitch"),
		kong.Description("Frame-by-frame monophonic pitch tracking for WAV files"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	if cliArgs.Version {
		printVersion(version)
		os.Exit(0)
	}

	if len(cliArgs.Files) == 0 {
		printError("No input files specified")
		_ = kctx.PrintUsage(false)
		os.Exit(1)
	}

	if err := run(cliArgs); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func run(cliArgs *CLI) error {
	logger := logging.NewDefaultLogger()
	if cliArgs.NoColor {
		logger.SetColors(false)
		disableStyles()
	}
	level, err := logging.ParseLevel(cliArgs.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)

	config, err := trackerConfig(cliArgs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, path := range cliArgs.Files {
		if err := analyseFile(ctx, cliArgs, *config, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	return nil
}

// trackerConfig builds the tracker configuration from the config file, or
// from flags when no file is given. The sample rate is taken from each file.
func trackerConfig(cliArgs *CLI) (*analysis.TrackerConfig, error) {
	if cliArgs.Config != "" {
		return loadTrackerConfig(cliArgs.Config)
	}

	method, err := tonal.ParsePitchDetectionMethod(cliArgs.Method)
	if err != nil {
		return nil, err
	}

	config := analysis.DefaultTrackerConfig()
	config.Method = method
	config.FrameSize = cliArgs.FrameSize
	config.HopSize = cliArgs.HopSize
	config.RMSThreshold = cliArgs.RMSThreshold
	config.MinConfidence = cliArgs.MinConfidence
	config.DCCutoffHz = cliArgs.DCCutoff
	config.Workers = cliArgs.Workers
	config.Params.MaxLag = cliArgs.MaxLag
	config.Params.MaxFrequency = cliArgs.MaxFreq
	config.Params.YinThreshold = cliArgs.Threshold
	if cliArgs.FFT {
		config.Params.AutocorrMethod = stats.FrequencyDomain
	}

	return config, nil
}

// loadTrackerConfig reads a JSON TrackerConfig; missing fields keep their defaults
func loadTrackerConfig(path string) (*analysis.TrackerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	config := analysis.DefaultTrackerConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return config, nil
}

func analyseFile(ctx context.Context, cliArgs *CLI, config analysis.TrackerConfig, path string) error {
	audio, err := transcode.DecodeWAVFile(path)
	if err != nil {
		return err
	}

	config.Params.SampleRate = float64(audio.SampleRate)
	tracker, err := analysis.NewTracker(&config)
	if err != nil {
		return err
	}

	var events []analysis.PitchEvent
	if cliArgs.Chunk > 0 {
		events, err = streamChunks(ctx, tracker, audio.PCM, cliArgs.Chunk)
	} else {
		events, err = tracker.Track(ctx, audio.PCM)
	}
	if err != nil {
		return err
	}

	if cliArgs.JSON {
		return writeJSON(os.Stdout, events, cliArgs.Voiced)
	}

	printHeader(path, audio, &config)
	printEvents(os.Stdout, events, cliArgs.Voiced)
	printSummary(analysis.Summarize(events))

	if cliArgs.Target > 0 {
		take, err := scoreTake(events, cliArgs.Target, config.RMSThreshold)
		if err != nil {
			return err
		}
		printTake(take)
	}
	return nil
}

// takeScore is the tuner's view of a run against one target note
type takeScore struct {
	TargetHz    float64
	Notes       int
	LongestHold time.Duration
	Accuracy    float64
}

// scoreTake replays events through a stability tracker and scores the
// frames that were held in tune
func scoreTake(events []analysis.PitchEvent, targetHz, rmsThreshold float64) (takeScore, error) {
	stability := analysis.DefaultStabilityConfig()
	stability.RMSThreshold = rmsThreshold
	tracker, err := analysis.NewStabilityTracker(stability, targetHz)
	if err != nil {
		return takeScore{}, err
	}

	var held []analysis.PitchEvent
	for _, e := range events {
		switch tracker.Update(e) {
		case analysis.StatusStable, analysis.StatusNoteComplete:
			held = append(held, e)
		}
	}

	return takeScore{
		TargetHz:    targetHz,
		Notes:       tracker.NotesCompleted(),
		LongestHold: tracker.LongestHold(),
		Accuracy:    analysis.NoteAccuracy(held, targetHz, tracker.LongestHold()),
	}, nil
}

// streamChunks replays pcm through a Stream in fixed-size chunks
func streamChunks(ctx context.Context, tracker *analysis.Tracker, pcm []float64, chunk int) ([]analysis.PitchEvent, error) {
	stream, err := tracker.NewStream()
	if err != nil {
		return nil, err
	}

	var events []analysis.PitchEvent
	for start := 0; start < len(pcm); start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := stream.Write(pcm[start:min(start+chunk, len(pcm))])
		if err != nil {
			return nil, err
		}
		events = append(events, got...)
	}

	return events, nil
}
