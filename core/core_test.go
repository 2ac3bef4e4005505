package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	ftyp := func(major string, compat ...string) []byte {
		body := major + "\x00\x00\x00\x00" + strings.Join(compat, "")
		size := 8 + len(body)
		return append([]byte{0, 0, 0, byte(size), 'f', 't', 'y', 'p'}, body...)
	}
	cases := []struct {
		name string
		data []byte
		want FormatID
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE1}, FmtJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}, FmtPNG},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8X"), FmtWebP},
		{"tiff le", []byte{'I', 'I', 0x2A, 0x00}, FmtTIFF},
		{"tiff be", []byte{'M', 'M', 0x00, 0x2A}, FmtTIFF},
		{"heic", ftyp("heic", "mif1"), FmtHEIC},
		{"heif compatible brand", ftyp("isom", "mp41", "mif1"), FmtHEIC},
		{"mp4", ftyp("isom", "mp41"), FmtMP4},
		{"m4a", ftyp("M4A ", "isom"), FmtM4A},
		{"gif", []byte("GIF89a"), FmtGIF},
		{"mp3", []byte("ID3\x04"), FmtMP3},
		{"flac", []byte("fLaC"), FmtFLAC},
		{"short", []byte{0xFF, 0xD8}, FmtUnknown},
		{"text", []byte("hello"), FmtUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormat(tc.data); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestMediaTypeFor(t *testing.T) {
	cases := map[FormatID]string{
		FmtHEIC:    "image",
		FmtGIF:     "image",
		FmtFLAC:    "audio",
		FmtM4A:     "audio",
		FmtMP4:     "video",
		FmtUnknown: "unknown",
	}
	for id, want := range cases {
		if got := MediaTypeFor(id); got != want {
			t.Errorf("MediaTypeFor(%s) = %q, want %q", id, got, want)
		}
	}
}

func TestReasonOf(t *testing.T) {
	cases := []struct {
		err  error
		want Reason
	}{
		{nil, ReasonNone},
		{fmt.Errorf("a.jpg: %w", ErrUnreadableSource), ReasonUnreadableSource},
		{fmt.Errorf("jpeg: %w", ErrMalformedContainer), ReasonMalformedContainer},
		{fmt.Errorf("png: %w", ErrNoMetadataSegment), ReasonNoMetadataSegment},
		{ErrParserFault, ReasonParserFault},
		{errors.New("something else"), ReasonParserFault},
	}
	for _, tc := range cases {
		if got := ReasonOf(tc.err); got != tc.want {
			t.Errorf("ReasonOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRawTagEntry(t *testing.T) {
	e := RawTagEntry{Kind: RationalValue, Rationals: []Rational{{1, 250}}, Numbers: []float64{0.004}}
	if v, ok := e.Number(); !ok || v != 0.004 {
		t.Fatalf("Number() = %v, %v", v, ok)
	}
	if !e.Usable() {
		t.Fatal("rational entry should be usable")
	}
	if (RawTagEntry{Kind: StringValue}).Usable() {
		t.Fatal("empty string entry should not be usable")
	}
	if !(RawTagEntry{Kind: NumberValue, Numbers: []float64{0}}).Usable() {
		t.Fatal("zero is a value")
	}
	multi := RawTagEntry{Kind: NumberValue, Numbers: []float64{1, 2.5}}
	if got := multi.ValueString(); got != "1,2.5" {
		t.Fatalf("ValueString() = %q", got)
	}
	if (Rational{1, 0}).Float() != 0 {
		t.Fatal("zero denominator should yield 0")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SHOTMETA_ADDR", ":9090")
	t.Setenv("SHOTMETA_MAX_IMAGE_MB", "3")
	t.Setenv("SHOTMETA_LOG_LEVEL", "DEBUG")
	t.Setenv("SHOTMETA_LOG_FORMAT", "")

	cfg := LoadConfig()
	if cfg.Addr != ":9090" || cfg.MaxImageBytes != 3<<20 || cfg.LogLevel != "debug" || cfg.LogFormat != "console" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	t.Setenv("SHOTMETA_MAX_IMAGE_MB", "lots")
	if cfg := LoadConfig(); cfg.MaxImageBytes != 25<<20 {
		t.Fatalf("expected default limit, got %d", cfg.MaxImageBytes)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{LogLevel: "warn", LogFormat: "json"}, &buf)
	log.Info().Msg("dropped")
	log.Warn().Str("reason", "x").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["message"] != "kept" || entry["level"] != "warn" || entry["reason"] != "x" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestPrintTags(t *testing.T) {
	tags := TagDictionary{
		"Model":        {Key: "Model", Kind: StringValue, Text: "X-T5"},
		"MeteringMode": {Key: "MeteringMode", Kind: NumberValue, Numbers: []float64{5}, Description: "Pattern"},
	}

	var buf bytes.Buffer
	p := &Printer{Writer: &buf, Verbose: true}
	if err := p.PrintTags(tags); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Index(out, "MeteringMode") > strings.Index(out, "Model") {
		t.Errorf("keys not sorted:\n%s", out)
	}
	if !strings.Contains(out, "Pattern (5)") || !strings.Contains(out, "X-T5") {
		t.Errorf("unexpected output:\n%s", out)
	}

	buf.Reset()
	p.JSON = true
	if err := p.PrintTags(tags); err != nil {
		t.Fatal(err)
	}
	var items []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0]["key"] != "MeteringMode" || items[0]["description"] != "Pattern" {
		t.Errorf("unexpected json %v", items)
	}
}

func TestPrintRecord(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Writer: &buf}
	err := p.PrintRecord(
		[]Field{{"File", "a.jpg"}},
		[]Field{{"Camera", "X-T5"}, {"ISO", "800"}},
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Camera:") || !strings.Contains(buf.String(), "X-T5") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
