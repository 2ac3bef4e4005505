// Package pipeline runs one extraction per photo selection: read the bytes,
// decode the tag dictionary, resolve and normalize every canonical field.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ankit-chaubey/shotmeta/core"
	"github.com/ankit-chaubey/shotmeta/core/canon"
	"github.com/ankit-chaubey/shotmeta/core/source"
	"github.com/ankit-chaubey/shotmeta/core/tagdict"
)

// State is the state of a run.
type State string

const (
	Running        State = "running"
	Success        State = "success"
	PartialFailure State = "partial_failure"
	HardFailure    State = "hard_failure"
)

// Outcome is the terminal result of a run. Metadata is always fully
// populated: the resolved record for Success and PartialFailure, the
// fallback record for HardFailure.
type Outcome struct {
	RunID    string
	Ref      string
	State    State
	Reason   core.Reason // set only for HardFailure
	Metadata canon.CanonicalPhotoMetadata
	// Missing lists the fields carrying a sentinel.
	Missing []string
	// VendorErrors are maker-note decode failures absorbed by the parser.
	VendorErrors []string
	Format       core.FormatID
}

// Extractor runs the pipeline against one Source.
type Extractor struct {
	src source.Source
	log zerolog.Logger
}

func NewExtractor(src source.Source, log zerolog.Logger) *Extractor {
	return &Extractor{src: src, log: log}
}

// Run extracts the metadata of ref. It never returns an error: every
// failure is folded into the Outcome.
func (e *Extractor) Run(ctx context.Context, ref string) Outcome {
	out := Outcome{RunID: uuid.NewString(), Ref: ref, State: Running}
	log := e.log.With().Str("run", out.RunID).Str("ref", ref).Logger()
	log.Debug().Msg("extraction started")

	b, err := e.src.Read(ctx, ref)
	if err != nil {
		return e.fail(log, out, err)
	}

	res, err := tagdict.Parse(b)
	out.Format = res.Format
	if err != nil {
		return e.fail(log, out, err)
	}
	for _, verr := range res.VendorErrors {
		out.VendorErrors = append(out.VendorErrors, verr.Error())
		log.Warn().Err(verr).Str("format", string(res.Format)).Msg("vendor block skipped")
	}

	out.Metadata, out.Missing = canon.Build(res.Tags)
	out.State = Success
	for _, name := range out.Missing {
		if f, _ := canon.Lookup(name); f.Core {
			out.State = PartialFailure
			break
		}
	}

	log.Info().
		Str("state", string(out.State)).
		Str("format", string(out.Format)).
		Int("tags", len(res.Tags)).
		Strs("missing", out.Missing).
		Msg("extraction finished")
	return out
}

func (e *Extractor) fail(log zerolog.Logger, out Outcome, err error) Outcome {
	out.State = HardFailure
	out.Reason = core.ReasonOf(err)
	out.Metadata = canon.Fallback()
	for _, f := range canon.Fields {
		out.Missing = append(out.Missing, f.Name)
	}
	log.Warn().Err(err).Str("reason", string(out.Reason)).Msg("extraction failed")
	return out
}

// Start runs the pipeline in its own goroutine. The channel receives exactly
// one outcome and is then closed.
func (e *Extractor) Start(ctx context.Context, ref string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		ch <- e.Run(ctx, ref)
	}()
	return ch
}
