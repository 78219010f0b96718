package tonal

import (
	"fmt"
	"math"
)

// Equal temperament reference: A4 = MIDI 69 = 440 Hz
const (
	ReferenceA4Hz   = 440.0
	referenceA4Midi = 69
	centsPerOctave  = 1200.0
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is the equal-tempered note closest to a measured frequency
type Note struct {
	Midi      int     `json:"midi"`
	Name      string  `json:"name"`      // e.g. "A4"
	Frequency float64 `json:"frequency"` // Exact frequency of the note (Hz)
	Cents     float64 `json:"cents"`     // Deviation of the measurement from the note
}

func (n Note) String() string {
	return fmt.Sprintf("%s%+.1fc", n.Name, n.Cents)
}

// FrequencyToMidi returns the fractional MIDI number of freq
func FrequencyToMidi(freq float64) float64 {
	return referenceA4Midi + 12*math.Log2(freq/ReferenceA4Hz)
}

// MidiToFrequency returns the frequency of a (possibly fractional) MIDI number
func MidiToFrequency(midi float64) float64 {
	return ReferenceA4Hz * math.Pow(2, (midi-referenceA4Midi)/12)
}

// MidiToNoteName returns scientific pitch notation, e.g. 60 -> "C4"
func MidiToNoteName(midi int) string {
	pitchClass := ((midi % 12) + 12) % 12
	octave := (midi-pitchClass)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[pitchClass], octave)
}

// FrequencyToCents is the interval from target to freq in cents.
// Zero when either frequency is not positive.
func FrequencyToCents(freq, target float64) float64 {
	if freq <= 0 || target <= 0 {
		return 0.0
	}
	return centsPerOctave * math.Log2(freq/target)
}

// NearestNote maps freq onto the closest equal-tempered note.
// ok is false for non-positive or non-finite frequencies.
func NearestNote(freq float64) (note Note, ok bool) {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Note{}, false
	}

	midi := int(math.Round(FrequencyToMidi(freq)))
	noteFreq := MidiToFrequency(float64(midi))

	return Note{
		Midi:      midi,
		Name:      MidiToNoteName(midi),
		Frequency: noteFreq,
		Cents:     FrequencyToCents(freq, noteFreq),
	}, true
}
