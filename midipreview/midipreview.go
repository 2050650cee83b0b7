package midipreview

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"miditoarduino/dumpparse"
	"miditoarduino/pitching"
)

// At 60 BPM with 1000 ticks per quarter one tick lasts exactly 1 ms, so the
// converted durations can be used as delta ticks unchanged.
const (
	ticksPerQuarter = 1000
	previewBPM      = 60
	velocity        = 100
)

// Build renders both converted tracks as a format 1 SMF, one channel per
// track, so the conversion can be checked in any MIDI player.
func Build(res *dumpparse.Result) (*smf.SMF, error) {
	if res == nil {
		return nil, fmt.Errorf("no tracks to preview")
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var conductor smf.Track
	conductor.Add(0, smf.MetaMeter(4, 4))
	conductor.Add(0, smf.MetaTempo(previewBPM))
	conductor.Close(0)
	if err := sm.Add(conductor); err != nil {
		return nil, fmt.Errorf("error adding tempo track: %w", err)
	}

	for i := range res.Tracks {
		tr, err := buildTrack(uint8(i), res.Tracks[i])
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i+1, err)
		}
		if err := sm.Add(tr); err != nil {
			return nil, fmt.Errorf("error adding track %d: %w", i+1, err)
		}
	}
	return sm, nil
}

func buildTrack(ch uint8, t dumpparse.Track) (smf.Track, error) {
	var tr smf.Track
	var wait uint32
	for i, note := range t.Notes {
		var d uint32
		if i < len(t.Durations) && t.Durations[i] > 0 {
			d = uint32(t.Durations[i])
		}
		if note == dumpparse.Rest {
			wait += d
			continue
		}

		key, err := pitching.KeyOf(note)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		tr.Add(wait, midi.NoteOn(ch, uint8(key), velocity))
		tr.Add(d, midi.NoteOff(ch, uint8(key)))
		wait = 0
	}
	tr.Close(wait)
	return tr, nil
}

// Write encodes the preview SMF to w.
func Write(w io.Writer, res *dumpparse.Result) error {
	sm, err := Build(res)
	if err != nil {
		return err
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI: %w", err)
	}
	return nil
}

// WriteFile writes the preview SMF to path.
func WriteFile(path string, res *dumpparse.Result) error {
	var buf bytes.Buffer
	if err := Write(&buf, res); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
