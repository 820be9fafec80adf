package util

import "strconv"

var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchClass folds a note number into 0-11.
func PitchClass(note int) int {
	pc := note % 12
	if pc < 0 {
		pc += 12
	}
	return pc
}

// NoteName returns the name with octave, middle C being C4.
func NoteName(value int) string {
	octave := value/12 - 1
	return NoteNames[PitchClass(value)] + strconv.Itoa(octave)
}
