package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/RyanBlaney/sonido-pitch/algorithms/tonal"
	"github.com/RyanBlaney/sonido-pitch/analysis"
	"github.com/RyanBlaney/sonido-pitch/transcode"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#2E86AB")
	mutedColor   = lipgloss.Color("#888888")
	accentColor  = lipgloss.Color("#00AA00")
	errorColor   = lipgloss.Color("#A40000")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	voicedStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	silentStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)
)

func disableStyles() {
	plain := lipgloss.NewStyle()
	titleStyle, keyStyle, headerStyle = plain, plain, plain
	voicedStyle, silentStyle, errorStyle = plain, plain, plain
}

func printVersion(version string) {
	fmt.Println(titleStyle.Render("sonido-pitch"))
	fmt.Printf("%s %s\n", keyStyle.Render("Version:"), version)
}

func printError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorStyle.Render("Error:"), message)
}

func printHeader(path string, audio *transcode.AudioData, config *analysis.TrackerConfig) {
	fmt.Println(titleStyle.Render(path))
	fmt.Printf("%s %d Hz, %d ch, %d bit, %s\n",
		keyStyle.Render("Input:"), audio.SampleRate, audio.Channels, audio.BitDepth, audio.Duration)
	fmt.Printf("%s %s, frame %d, hop %d, %.1f-%.1f Hz\n",
		keyStyle.Render("Analysis:"), config.Method, config.FrameSize, config.HopSize,
		config.Params.MinFrequency(), config.Params.MaxFrequency)
	fmt.Println()
}

func formatEvent(e analysis.PitchEvent) string {
	if !e.IsDetected() {
		return fmt.Sprintf("%6d %10.3f %10s %6s %6s %7.4f", e.FrameIndex, e.Timestamp.Seconds(), "-", "-", "-", e.RMS)
	}
	return fmt.Sprintf("%6d %10.3f %10.2f %6.3f %6.3f %7.4f  %-4s %+6.1f",
		e.FrameIndex, e.Timestamp.Seconds(), e.PitchHz, e.Confidence, e.Clarity, e.RMS, e.Note, e.Cents)
}

func printEvents(w io.Writer, events []analysis.PitchEvent, voicedOnly bool) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%6s %10s %10s %6s %6s %7s  %-4s %6s",
		"frame", "time (s)", "pitch (Hz)", "conf", "clar", "rms", "note", "cents")))

	for _, e := range events {
		switch {
		case e.IsDetected():
			fmt.Fprintln(w, voicedStyle.Render(formatEvent(e)))
		case !voicedOnly:
			fmt.Fprintln(w, silentStyle.Render(formatEvent(e)))
		}
	}
}

func printSummary(s analysis.Summary) {
	fmt.Println()
	fmt.Printf("%s %d/%d frames voiced\n", keyStyle.Render("Summary:"), s.VoicedFrames, s.Frames)
	if s.VoicedFrames > 0 {
		fmt.Printf("%s %.2f Hz (%s), mean %.2f Hz, confidence %.3f, clarity %.3f\n",
			keyStyle.Render("Median pitch:"), s.MedianPitchHz, s.MedianNote, s.MeanPitchHz, s.MeanConfidence, s.MeanClarity)
	}
	fmt.Println()
}

func printTake(take takeScore) {
	note := "-"
	if n, ok := tonal.NearestNote(take.TargetHz); ok {
		note = n.Name
	}
	fmt.Printf("%s %.2f Hz (%s), %d notes held, longest %s, accuracy %.0f/100\n",
		keyStyle.Render("Target:"), take.TargetHz, note, take.Notes, take.LongestHold.Round(time.Millisecond), take.Accuracy)
	fmt.Println()
}

func writeJSON(w io.Writer, events []analysis.PitchEvent, voicedOnly bool) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		if voicedOnly && !e.IsDetected() {
			continue
		}
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
