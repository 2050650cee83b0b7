package dumpparse

import "github.com/pkg/errors"

// Every error returned by the parser wraps exactly one of these, so callers
// can tell the kinds apart with errors.Is.
var (
	ErrMalformedInteger       = errors.New("malformed integer")
	ErrMalformedTimeSignature = errors.New("malformed time signature")
	ErrDuplicateTimingKey     = errors.New("duplicate timing key")
	ErrMissingPrerequisite    = errors.New("missing prerequisite")
	ErrMalformedPitch         = errors.New("malformed pitch")
)
