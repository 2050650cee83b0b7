package pitching

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

const tokenPrefix = "NOTE_"

var semitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// KeyOf converts a note token such as NOTE_C4 or NOTE_FS2 to a MIDI key
// number, with C4 = 60.
func KeyOf(token string) (int, error) {
	name, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok || len(name) < 2 {
		return 0, fmt.Errorf("not a note token: %q", token)
	}

	semi, ok := semitones[name[0]]
	if !ok {
		return 0, fmt.Errorf("unknown note letter in %q", token)
	}
	rest := name[1:]
	if rest[0] == 'S' {
		semi++
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad octave in %q: %w", token, err)
	}

	key := (octave+1)*12 + semi
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("%q is outside the MIDI range", token)
	}
	return key, nil
}

// MIDIToFrequency converts a MIDI note number to frequency in Hz
// f = 440 * 2^((midi - 69) / 12)
func MIDIToFrequency(midi float64) float64 {
	return 440.0 * math.Pow(2.0, (midi-69.0)/12.0)
}

// WritePitches emits a #define for every distinct sounded token, in key
// order, so a sketch can be built without a separate pitches.h.
func WritePitches(w io.Writer, tokens []string) error {
	keys := make(map[string]int)
	for _, tok := range tokens {
		if !strings.HasPrefix(tok, tokenPrefix) {
			continue
		}
		key, err := KeyOf(tok)
		if err != nil {
			return err
		}
		keys[tok] = key
	}

	names := make([]string, 0, len(keys))
	for tok := range keys {
		names = append(names, tok)
	}
	sort.Slice(names, func(i, j int) bool {
		return keys[names[i]] < keys[names[j]]
	})

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#ifndef PITCHES_H")
	fmt.Fprintln(bw, "#define PITCHES_H")
	fmt.Fprintln(bw)
	for _, tok := range names {
		hz := math.Round(MIDIToFrequency(float64(keys[tok])))
		fmt.Fprintf(bw, "#define %s %d\n", tok, int(hz))
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "#endif")
	return bw.Flush()
}
