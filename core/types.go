// Package core defines the shared types, error taxonomy, container registry
// and ambient plumbing (config, logging, output) for shotmeta.
package core

import (
	"errors"
	"strconv"
	"strings"
)

// ValueKind identifies which machine value a RawTagEntry carries.
type ValueKind int

const (
	NoValue       ValueKind = iota // opaque payloads such as MakerNote
	StringValue                    // ASCII tags
	NumberValue                    // BYTE, SHORT, LONG and their signed/float variants
	RationalValue                  // RATIONAL and SRATIONAL
)

// Rational is one numerator/denominator pair as stored in the file.
type Rational struct {
	Num int64
	Den int64
}

// Float returns the quotient, or 0 for a zero denominator.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// RawTagEntry is a single decoded metadata item.
type RawTagEntry struct {
	Key         string    // Tag key (e.g. "Model", "FNumber", "Fujifilm.FilmMode")
	Description string    // Human-readable rendering, empty when the decoder has none
	Kind        ValueKind // Which of the value fields below is meaningful
	Text        string    // StringValue payload
	Numbers     []float64 // NumberValue payload; for RationalValue the pre-divided quotients
	Rationals   []Rational
}

// Usable reports whether the entry carries anything a resolver can use.
func (e RawTagEntry) Usable() bool {
	if e.Description != "" {
		return true
	}
	switch e.Kind {
	case StringValue:
		return e.Text != ""
	case NumberValue, RationalValue:
		return len(e.Numbers) > 0
	}
	return false
}

// Number returns the first numeric value of the entry.
func (e RawTagEntry) Number() (float64, bool) {
	if (e.Kind == NumberValue || e.Kind == RationalValue) && len(e.Numbers) > 0 {
		return e.Numbers[0], true
	}
	return 0, false
}

// ValueString renders the machine value, ignoring the description. Multiple
// numbers are comma separated.
func (e RawTagEntry) ValueString() string {
	switch e.Kind {
	case StringValue:
		return e.Text
	case NumberValue, RationalValue:
		parts := make([]string, len(e.Numbers))
		for i, n := range e.Numbers {
			parts[i] = strconv.FormatFloat(n, 'f', -1, 64)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// TagDictionary maps tag keys to their decoded entries. Keys are unique
// within one parse.
type TagDictionary map[string]RawTagEntry

// Reason is the host-visible failure code of an extraction.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonUnreadableSource   Reason = "unreadable_source"
	ReasonMalformedContainer Reason = "malformed_container"
	ReasonNoMetadataSegment  Reason = "no_metadata_segment"
	ReasonParserFault        Reason = "parser_fault"
)

var (
	// ErrUnreadableSource wraps every storage read failure.
	ErrUnreadableSource = errors.New("unreadable source")
	// ErrMalformedContainer is returned when the buffer is not a recognisable
	// image container or is too broken to locate a metadata segment in.
	ErrMalformedContainer = errors.New("malformed container")
	// ErrNoMetadataSegment is returned for a valid container without an
	// embedded (or with an empty) metadata segment.
	ErrNoMetadataSegment = errors.New("no metadata segment")
	// ErrParserFault is returned when the decoder failed unexpectedly on the
	// standard block.
	ErrParserFault = errors.New("metadata parser fault")
)

// ReasonOf classifies err into a Reason. Unknown errors are reported as
// parser faults so that no library error type reaches the host.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrUnreadableSource):
		return ReasonUnreadableSource
	case errors.Is(err, ErrMalformedContainer):
		return ReasonMalformedContainer
	case errors.Is(err, ErrNoMetadataSegment):
		return ReasonNoMetadataSegment
	default:
		return ReasonParserFault
	}
}
