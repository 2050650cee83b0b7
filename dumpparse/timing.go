package dumpparse

import "fmt"

// Position is a measure:beat:division location inside a track.
type Position struct {
	Measure  int
	Beat     int
	Division int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Measure, p.Beat, p.Division)
}

// trackStart is where both cursors sit when a track begins.
var trackStart = Position{Measure: 1, Beat: 1, Division: 0}

// TimeSig is a numerator/denominator pair as written in the dump.
type TimeSig struct {
	Num int
	Den int
}

func (s TimeSig) IsZero() bool {
	return s.Num == 0 && s.Den == 0
}

func (s TimeSig) String() string {
	return fmt.Sprintf("%d/%d", s.Num, s.Den)
}

// Cursor remembers the timing context of the last note-on or note-off.
type Cursor struct {
	Pos   Position
	Sig   TimeSig
	Tempo int // milliseconds per quarter note
}

func startCursor() Cursor {
	return Cursor{Pos: trackStart}
}

// Elapsed is the measure/beat/division distance between two positions after
// borrowing.
type Elapsed struct {
	Measures  int
	Beats     int
	Divisions int
}

func (e Elapsed) String() string {
	return fmt.Sprintf("%d:%d:%d", e.Measures, e.Beats, e.Divisions)
}

// Delta computes the distance from the cursor to the position and converts it
// to milliseconds using the cursor's time signature and tempo.
//
// Measures always count divisionFull*4 ticks before the whole sum is scaled by
// num/den. Generated headers depend on that exact arithmetic, including for
// signatures other than 4/4.
func Delta(from Cursor, to Position, divisionFull int) (Elapsed, float64) {
	e := Elapsed{Measures: to.Measure - from.Pos.Measure}

	if to.Beat >= from.Pos.Beat {
		e.Beats = to.Beat - from.Pos.Beat
	} else {
		e.Beats = from.Sig.Num + to.Beat - from.Pos.Beat
		e.Measures--
	}

	if to.Division >= from.Pos.Division {
		e.Divisions = to.Division - from.Pos.Division
	} else {
		e.Divisions = divisionFull + to.Division - from.Pos.Division
		e.Beats--
	}

	div := float64(divisionFull)
	ticks := (float64(e.Divisions) +
		float64(e.Beats)*div +
		float64(e.Measures)*div*4.0) * (float64(from.Sig.Num) / float64(from.Sig.Den))
	millis := (ticks / div) * float64(from.Tempo)
	return e, millis
}
