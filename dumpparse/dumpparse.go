package dumpparse

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tokens emitted by the MIDI disassembler's default text export.
const (
	markerDivision = "| Division="
	markerTrack    = "Track #"
	markerTrackEnd = "|End of track"
	markerTimeSig  = "|Time Sig"
	markerTempo    = "|Tempo"
	markerMicros   = "| micros\\quarter="
	markerOnNote   = "|On Note"
	markerOffNote  = "|Off Note"
	markerPitch    = "| pitch="
)

const (
	// Rest is the note token for silence.
	Rest = "0"
	// DefaultPauseMS is the shared silence appended to both tracks.
	DefaultPauseMS = 2000
)

// TrackState says what kind of track the scan is currently inside.
type TrackState int

const (
	NoTrack TrackState = iota
	ConductorTrack
	MelodyTrack
)

func (s TrackState) String() string {
	switch s {
	case ConductorTrack:
		return "conductor"
	case MelodyTrack:
		return "melody"
	default:
		return "none"
	}
}

func stateOf(track int) TrackState {
	switch {
	case track == 0:
		return ConductorTrack
	case track > 0:
		return MelodyTrack
	default:
		return NoTrack
	}
}

// Track is one playable melody: parallel note tokens and durations in ms.
type Track struct {
	Notes     []string
	Durations []int
}

// Total returns the summed duration of the track in milliseconds.
func (t Track) Total() int {
	total := 0
	for _, d := range t.Durations {
		total += d
	}
	return total
}

// Result holds the two converted melody tracks.
type Result struct {
	Division int
	Tracks   [2]Track
}

// Track returns melody track 1 or 2, or nil for any other number.
func (r *Result) Track(n int) *Track {
	if n < 1 || n > len(r.Tracks) {
		return nil
	}
	return &r.Tracks[n-1]
}

// Options configures Parse.
type Options struct {
	PauseMS int
	Log     logrus.FieldLogger
}

// Parser reconstructs note timing from a disassembled MIDI dump, one line at
// a time. A Parser is not safe for concurrent use.
type Parser struct {
	log   logrus.FieldLogger
	upper cases.Caser

	lines    int
	division int
	track    int
	state    TrackState
	pos      Position

	timeSigs map[Position]TimeSig
	tempos   map[Position]int

	// sig and tempo are whatever was last matched on a melody track and
	// survive track boundaries.
	sig   TimeSig
	tempo int

	on  Cursor
	off Cursor

	remainder float64
	tracks    [2]Track
}

// NewParser returns a parser positioned before the first line. A nil logger
// discards all output.
func NewParser(log logrus.FieldLogger) *Parser {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Parser{
		log:      log,
		upper:    cases.Upper(language.Und),
		track:    -1,
		timeSigs: make(map[Position]TimeSig),
		tempos:   make(map[Position]int),
		on:       startCursor(),
		off:      startCursor(),
	}
}

// Parse feeds every line of r through a new Parser and finalizes the result.
// The first error aborts the scan and no result is returned.
func Parse(r io.Reader, opts Options) (*Result, error) {
	p := NewParser(opts.Log)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := p.Feed(scanner.Text()); err != nil {
			return nil, errors.WithMessagef(err, "line %d", p.lines)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading dump")
	}
	return p.Finish(opts.PauseMS), nil
}

// State reports the kind of track currently being scanned.
func (p *Parser) State() TrackState { return p.state }

// Position reports the last position seen.
func (p *Parser) Position() Position { return p.pos }

// Remainder reports the fractional milliseconds carried to the next event.
func (p *Parser) Remainder() float64 { return p.remainder }

// Feed consumes the next line of the dump.
func (p *Parser) Feed(line string) error {
	p.lines++
	if p.lines == 1 {
		if err := p.readDivision(line); err != nil {
			return err
		}
	}

	if strings.HasPrefix(line, markerTrack) {
		if err := p.startTrack(line); err != nil {
			return err
		}
	}

	if strings.Contains(line, markerTrackEnd) {
		p.endTrack()
	}

	if p.state != NoTrack && strings.Contains(line, "|") {
		if err := p.readPosition(line); err != nil {
			return err
		}
	}

	if p.pos.Measure <= 0 {
		return nil
	}

	switch p.state {
	case ConductorTrack:
		return p.conductor(line)
	case MelodyTrack:
		return p.melody(line)
	}
	return nil
}

// Finish appends the closing rest to both tracks and pads the shorter one so
// that both end together, followed by pauseMS of silence. pauseMS <= 0 uses
// DefaultPauseMS. The parser state is left untouched.
func (p *Parser) Finish(pauseMS int) *Result {
	if pauseMS <= 0 {
		pauseMS = DefaultPauseMS
	}

	res := &Result{Division: p.division}
	for i, t := range p.tracks {
		res.Tracks[i] = Track{
			Notes:     append(append([]string(nil), t.Notes...), Rest),
			Durations: append([]int(nil), t.Durations...),
		}
	}

	t1, t2 := res.Tracks[0].Total(), res.Tracks[1].Total()
	switch {
	case t1 > t2:
		res.Tracks[0].Durations = append(res.Tracks[0].Durations, pauseMS)
		res.Tracks[1].Durations = append(res.Tracks[1].Durations, t1-t2+pauseMS)
	case t1 < t2:
		res.Tracks[0].Durations = append(res.Tracks[0].Durations, t2-t1+pauseMS)
		res.Tracks[1].Durations = append(res.Tracks[1].Durations, pauseMS)
	default:
		res.Tracks[0].Durations = append(res.Tracks[0].Durations, pauseMS)
		res.Tracks[1].Durations = append(res.Tracks[1].Durations, pauseMS)
	}
	return res
}

func (p *Parser) readDivision(line string) error {
	i := strings.Index(line, markerDivision)
	if i < 0 {
		return nil
	}
	raw := line[i+len(markerDivision):]
	n, err := parseInt(raw)
	if err != nil {
		return errors.Wrapf(ErrMalformedInteger, "division %q", raw)
	}
	p.division = n
	p.log.Infof("Division: %d per beat", n)
	return nil
}

func (p *Parser) startTrack(line string) error {
	raw := strings.ReplaceAll(line[len(markerTrack):], "*", "")
	n, err := parseInt(raw)
	if err != nil {
		return errors.Wrapf(ErrMalformedInteger, "track %q", strings.TrimSpace(raw))
	}
	p.track = n
	p.state = stateOf(n)
	p.log.WithField("state", p.state).Infof("---- Track: %d ----", n)
	return nil
}

func (p *Parser) endTrack() {
	p.track = -1
	p.state = NoTrack
	p.pos = Position{}
	p.on = startCursor()
	p.off = startCursor()
	if p.remainder != 0 {
		p.log.Debugf("Duration remainder: %v", p.remainder)
		p.remainder = 0
	}
}

func (p *Parser) readPosition(line string) error {
	raw := strings.TrimSpace(line[:strings.IndexByte(line, '|')])
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ":")
	n := len(parts)
	if n == 3 {
		m, err := parseInt(parts[0])
		if err != nil {
			return errors.Wrapf(ErrMalformedInteger, "measure %q", strings.TrimSpace(parts[0]))
		}
		p.pos.Measure = m
	}
	if n >= 2 {
		b, err := parseInt(parts[n-2])
		if err != nil {
			return errors.Wrapf(ErrMalformedInteger, "beat %q", strings.TrimSpace(parts[n-2]))
		}
		p.pos.Beat = b
	}
	d, err := parseInt(parts[n-1])
	if err != nil {
		return errors.Wrapf(ErrMalformedInteger, "division %q", strings.TrimSpace(parts[n-1]))
	}
	p.pos.Division = d
	return nil
}

func (p *Parser) conductor(line string) error {
	if strings.Contains(line, markerTimeSig) {
		raw, err := timeSigField(line)
		if err != nil {
			return err
		}
		sig, err := parseTimeSig(raw)
		if err != nil {
			return err
		}
		if _, ok := p.timeSigs[p.pos]; ok {
			return errors.Wrapf(ErrDuplicateTimingKey, "time signature at %s", p.pos)
		}
		p.timeSigs[p.pos] = sig
		p.log.Infof("Time: %s, Time Sig: %s", p.pos, sig)
	}

	if strings.Contains(line, markerTempo) && strings.Contains(line, markerMicros) {
		raw := line[strings.Index(line, markerMicros)+len(markerMicros):]
		micros, err := parseInt(raw)
		if err != nil {
			return errors.Wrapf(ErrMalformedInteger, "micros %q", raw)
		}
		if _, ok := p.tempos[p.pos]; ok {
			return errors.Wrapf(ErrDuplicateTimingKey, "tempo at %s", p.pos)
		}
		millis := micros / 1000
		p.tempos[p.pos] = millis
		p.log.Infof("Time: %s, Tempo: %d millis per quarter", p.pos, millis)
	}
	return nil
}

func (p *Parser) melody(line string) error {
	switch {
	case p.division <= 0:
		return errors.Wrap(ErrMissingPrerequisite, "no division found")
	case len(p.timeSigs) == 0:
		return errors.Wrap(ErrMissingPrerequisite, "no time signatures found")
	case len(p.tempos) == 0:
		return errors.Wrap(ErrMissingPrerequisite, "no tempos found")
	}

	if sig, ok := p.timeSigs[p.pos]; ok {
		p.sig = sig
		if p.off.Sig.IsZero() {
			p.off.Sig = sig
		}
	}
	if tempo, ok := p.tempos[p.pos]; ok {
		p.tempo = tempo
		if p.off.Tempo == 0 {
			p.off.Tempo = tempo
		}
	}

	switch {
	case strings.Contains(line, markerOnNote):
		return p.noteOn(line)
	case strings.Contains(line, markerOffNote):
		return p.noteOff(line)
	}
	return nil
}

func (p *Parser) noteOn(line string) error {
	if p.off.Pos != p.pos {
		d, err := p.elapsed(p.off, "Pause")
		if err != nil {
			return err
		}
		p.emit(Rest, d)
	}

	note, err := p.pitchToken(line)
	if err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{
		"time":  p.pos.String(),
		"sig":   p.sig.String(),
		"tempo": p.tempo,
	}).Debugf("On Note: %s", note)

	p.on = p.here()
	return nil
}

func (p *Parser) noteOff(line string) error {
	note, err := p.pitchToken(line)
	if err != nil {
		return err
	}
	d, err := p.elapsed(p.on, "Note")
	if err != nil {
		return err
	}
	p.emit(note, d)
	p.log.WithFields(logrus.Fields{
		"time":  p.pos.String(),
		"sig":   p.sig.String(),
		"tempo": p.tempo,
	}).Debugf("Off Note: %s, Duration: %d", note, d)

	p.off = p.here()
	return nil
}

func (p *Parser) here() Cursor {
	return Cursor{Pos: p.pos, Sig: p.sig, Tempo: p.tempo}
}

// elapsed converts the distance from the cursor to the current position into
// whole milliseconds, carrying the fractional part to later events.
func (p *Parser) elapsed(from Cursor, kind string) (int, error) {
	if from.Sig.Den == 0 {
		return 0, errors.Wrapf(ErrMissingPrerequisite, "no time signature in effect at %s", from.Pos)
	}

	e, millis := Delta(from, p.pos, p.division)
	if millis < 0 {
		p.log.Warnf("%s: negative time passed %s at %s, clamped to 0", kind, e, p.pos)
		millis = 0
	}

	d := int(millis)
	p.remainder += math.Mod(millis, 1.0)
	if p.remainder >= 1.0 {
		p.log.Debugf("Duration remainder: %v", p.remainder)
		d++
		p.remainder--
	}

	p.log.Debugf("%s: Time passed: %s, Duration: %d", kind, e, d)
	return d, nil
}

func (p *Parser) emit(note string, d int) {
	if p.track < 1 || p.track > len(p.tracks) {
		return
	}
	t := &p.tracks[p.track-1]
	t.Notes = append(t.Notes, note)
	t.Durations = append(t.Durations, d)
}

// pitchToken turns the three characters after the pitch marker into an
// identifier such as NOTE_C4 or NOTE_CS4.
func (p *Parser) pitchToken(line string) (string, error) {
	i := strings.Index(line, markerPitch)
	if i < 0 {
		return "", errors.Wrapf(ErrMalformedPitch, "no pitch in %q", line)
	}
	rest := line[i+len(markerPitch):]
	if len(rest) < 3 {
		return "", errors.Wrapf(ErrMalformedPitch, "pitch %q", rest)
	}
	pitch := strings.ReplaceAll(rest[:3], " ", "")
	pitch = strings.ReplaceAll(pitch, "#", "S")
	return "NOTE_" + p.upper.String(pitch), nil
}

func timeSigField(line string) (string, error) {
	at := strings.Index(line, markerTimeSig)
	start := strings.IndexByte(line[at+1:], '|')
	if start < 0 {
		return "", errors.Wrapf(ErrMalformedTimeSignature, "no field in %q", line)
	}
	start += at + 1
	end := strings.IndexByte(line[start+1:], '|')
	if end < 0 {
		return "", errors.Wrapf(ErrMalformedTimeSignature, "unterminated field in %q", line)
	}
	end += start + 1
	return strings.TrimSpace(line[start+1 : end]), nil
}

func parseTimeSig(raw string) (TimeSig, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return TimeSig{}, errors.Wrapf(ErrMalformedTimeSignature, "%q", raw)
	}
	num, err := parseInt(parts[0])
	if err != nil {
		return TimeSig{}, errors.Wrapf(ErrMalformedInteger, "time signature part %q", parts[0])
	}
	den, err := parseInt(parts[1])
	if err != nil {
		return TimeSig{}, errors.Wrapf(ErrMalformedInteger, "time signature part %q", parts[1])
	}
	return TimeSig{Num: num, Den: den}, nil
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
