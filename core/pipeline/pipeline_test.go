package pipeline

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ankit-chaubey/shotmeta/core"
	"github.com/ankit-chaubey/shotmeta/core/canon"
	"github.com/ankit-chaubey/shotmeta/core/internal/fixture"
	"github.com/ankit-chaubey/shotmeta/core/source"
)

func newExtractor(items map[string][]byte) *Extractor {
	mem := source.NewMemory()
	for ref, b := range items {
		mem.Put(ref, b)
	}
	return NewExtractor(mem, zerolog.Nop())
}

// oversizedCount is ScenarioA with an FNumber count far beyond the file.
func oversizedCount() []byte {
	return fixture.JPEG(fixture.TIFF(
		[]fixture.Entry{fixture.ASCII(fixture.TagModel, "X-T5")},
		[]fixture.Entry{
			fixture.Rational(fixture.TagExposureTime, 1, 250),
			{Tag: fixture.TagFNumber, Type: fixture.TypeRational, Count: 0x20000001, Data: make([]byte, 8)},
		},
	))
}

func TestRunOutcomes(t *testing.T) {
	ex := newExtractor(map[string][]byte{
		"standard.jpg":  fixture.ScenarioA(),
		"fuji.jpg":      fixture.FullFujifilm(fixture.ClassicChromeNote()),
		"truncated.jpg": fixture.FullFujifilm(fixture.TruncatedNote()),
		"canon.jpg":     fixture.FullCanon(fixture.CanonFocalNote()),
		"nikon.jpg":     fixture.FullNikon(fixture.ActiveDLightingNote()),
		"oversized.jpg": oversizedCount(),
		"no-exif.jpg":   fixture.JPEG(nil),
		"text.txt":      []byte("not a photo at all"),
	})

	cases := []struct {
		ref    string
		state  State
		reason core.Reason
		check  func(t *testing.T, out Outcome)
	}{
		{
			ref:   "standard.jpg",
			state: PartialFailure,
			check: func(t *testing.T, out Outcome) {
				m := out.Metadata
				if m.CameraName != "X-T5" || m.Aperture != "F4.0" || m.ShutterSpeed != "1/250" || m.ISO != 800 {
					t.Fatalf("unexpected record %+v", m)
				}
				if m.LensName != canon.UnknownText {
					t.Fatalf("expected lens sentinel, got %q", m.LensName)
				}
			},
		},
		{
			ref:   "fuji.jpg",
			state: Success,
			check: func(t *testing.T, out Outcome) {
				want := canon.CanonicalPhotoMetadata{
					CameraName:       "X-T5",
					LensName:         "XF23mmF1.4 R LM WR",
					ISO:              400,
					Aperture:         "F2.8",
					ShutterSpeed:     "1/250",
					FocalLength:      "23mm",
					WhiteBalance:     "Daylight",
					Mode:             "Aperture priority",
					FilmSimulation:   "Classic Chrome",
					DynamicRange:     "DR400",
					FocalLength35mm:  "35mm",
					ExposureProgram:  "Aperture priority",
					Flash:            "Off, Did not fire",
					MeteringMode:     "Pattern",
					ExposureBias:     "-0.7 EV",
					DateTimeOriginal: "2024:05:01 10:20:30",
				}
				if out.Metadata != want {
					t.Fatalf("unexpected record\n got %+v\nwant %+v", out.Metadata, want)
				}
				if len(out.Missing) != 0 {
					t.Fatalf("unexpected missing fields %v", out.Missing)
				}
			},
		},
		{
			ref:   "truncated.jpg",
			state: Success,
			check: func(t *testing.T, out Outcome) {
				m := out.Metadata
				if m.CameraName != "X-T5" || m.Aperture != "F2.8" {
					t.Fatalf("standard fields lost: %+v", m)
				}
				if m.FilmSimulation != canon.UnknownText || m.DynamicRange != canon.UnknownText {
					t.Fatalf("vendor fields not sentineled: %+v", m)
				}
				if m.WhiteBalance != "Auto white balance" {
					t.Fatalf("expected generic white balance, got %q", m.WhiteBalance)
				}
				if len(out.VendorErrors) == 0 {
					t.Fatal("vendor failure not recorded")
				}
			},
		},
		{
			ref:   "canon.jpg",
			state: Success,
			check: func(t *testing.T, out Outcome) {
				m := out.Metadata
				if m.FocalLength != "50mm" {
					t.Fatalf("maker note focal length leaked: %q", m.FocalLength)
				}
				if m.LensName != "RF50mm F1.8 STM" || m.Aperture != "F1.8" || m.Mode != "Normal program" {
					t.Fatalf("unexpected record %+v", m)
				}
			},
		},
		{
			ref:   "nikon.jpg",
			state: Success,
			check: func(t *testing.T, out Outcome) {
				m := out.Metadata
				if m.LensName != "24-70mm f/2.8" {
					t.Fatalf("expected the maker note lens over the generic one, got %q", m.LensName)
				}
				if m.DynamicRange != "Normal" {
					t.Fatalf("expected Active D-Lighting as dynamic range, got %q", m.DynamicRange)
				}
				if m.ISO != 3200 || m.Mode != "Manual" {
					t.Fatalf("unexpected record %+v", m)
				}
			},
		},
		{
			ref:    "oversized.jpg",
			state:  HardFailure,
			reason: core.ReasonMalformedContainer,
		},
		{
			ref:    "no-exif.jpg",
			state:  HardFailure,
			reason: core.ReasonNoMetadataSegment,
		},
		{
			ref:    "text.txt",
			state:  HardFailure,
			reason: core.ReasonMalformedContainer,
		},
		{
			ref:    "missing.jpg",
			state:  HardFailure,
			reason: core.ReasonUnreadableSource,
		},
	}

	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			out := ex.Run(context.Background(), tc.ref)
			if out.State != tc.state {
				t.Fatalf("expected state %s, got %s (reason %q)", tc.state, out.State, out.Reason)
			}
			if out.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, out.Reason)
			}
			if out.RunID == "" {
				t.Fatal("missing run id")
			}
			if tc.state == HardFailure && out.Metadata != canon.Fallback() {
				t.Fatalf("expected fallback record, got %+v", out.Metadata)
			}
			for _, f := range canon.Fields {
				if v, _ := out.Metadata.Value(f.Name); v == "" {
					t.Fatalf("field %s left empty", f.Name)
				}
			}
			if tc.check != nil {
				tc.check(t, out)
			}
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	ex := newExtractor(map[string][]byte{"fuji.jpg": fixture.FullFujifilm(fixture.ClassicChromeNote())})
	first := ex.Run(context.Background(), "fuji.jpg")
	for i := 0; i < 10; i++ {
		again := ex.Run(context.Background(), "fuji.jpg")
		if again.Metadata != first.Metadata || again.State != first.State || !reflect.DeepEqual(again.Missing, first.Missing) {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestStart(t *testing.T) {
	ex := newExtractor(map[string][]byte{"standard.jpg": fixture.ScenarioA()})
	ch := ex.Start(context.Background(), "standard.jpg")
	select {
	case out := <-ch:
		if out.Metadata.CameraName != "X-T5" {
			t.Fatalf("unexpected outcome %+v", out)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after the outcome")
	}
}

// gatedSource blocks reads of refs that have a gate until it is closed.
type gatedSource struct {
	mem   *source.Memory
	gates map[string]chan struct{}
}

func (g gatedSource) Read(ctx context.Context, ref string) ([]byte, error) {
	if gate, ok := g.gates[ref]; ok {
		<-gate
	}
	return g.mem.Read(ctx, ref)
}

func TestSessionLastSelectionWins(t *testing.T) {
	mem := source.NewMemory()
	mem.Put("photo1.jpg", fixture.ScenarioA())
	mem.Put("photo2.jpg", fixture.JPEG(fixture.TIFF(
		[]fixture.Entry{fixture.ASCII(fixture.TagModel, "GFX100S")}, nil,
	)))
	slow := make(chan struct{})
	src := gatedSource{mem: mem, gates: map[string]chan struct{}{"photo1.jpg": slow}}
	s := NewSession(NewExtractor(src, zerolog.Nop()))

	gen1, done1 := s.Select(context.Background(), "photo1.jpg")
	gen2, done2 := s.Select(context.Background(), "photo2.jpg")
	if gen2 <= gen1 {
		t.Fatalf("generations not increasing: %d then %d", gen1, gen2)
	}

	<-done2
	out, gen := s.Current()
	if gen != gen2 || out.Metadata.CameraName != "GFX100S" {
		t.Fatalf("expected photo 2 to be current, got gen %d %+v", gen, out.Metadata)
	}

	close(slow)
	<-done1
	out, gen = s.Current()
	if gen != gen2 || out.Ref != "photo2.jpg" || out.Metadata.CameraName != "GFX100S" {
		t.Fatalf("late photo 1 result overwrote the slot: gen %d %+v", gen, out)
	}
}

func TestSessionRunningPlaceholder(t *testing.T) {
	mem := source.NewMemory()
	mem.Put("photo.jpg", fixture.ScenarioA())
	gate := make(chan struct{})
	s := NewSession(NewExtractor(gatedSource{mem: mem, gates: map[string]chan struct{}{"photo.jpg": gate}}, zerolog.Nop()))

	_, done := s.Select(context.Background(), "photo.jpg")
	out, _ := s.Current()
	if out.State != Running || out.Metadata != canon.Unknown() {
		t.Fatalf("expected running placeholder, got %+v", out)
	}
	close(gate)
	<-done
	if out, _ = s.Current(); out.State != PartialFailure {
		t.Fatalf("expected finished run, got %s", out.State)
	}
}
