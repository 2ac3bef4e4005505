package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/ankit-chaubey/shotmeta/core"
	"github.com/ankit-chaubey/shotmeta/core/internal/fixture"
)

func TestFileRead(t *testing.T) {
	dir := t.TempDir()
	photo := filepath.Join(dir, "photo.jpg")
	data := fixture.ScenarioA()
	if err := os.WriteFile(photo, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := File{}.Read(context.Background(), photo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("content mismatch")
	}

	cases := []struct {
		name string
		src  File
		path string
	}{
		{"missing", File{}, filepath.Join(dir, "gone.jpg")},
		{"directory", File{}, dir},
		{"over limit", File{MaxBytes: 16}, photo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.src.Read(context.Background(), tc.path)
			if !errors.Is(err, core.ErrUnreadableSource) {
				t.Fatalf("expected unreadable source, got %v", err)
			}
		})
	}
}

func TestFileReadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := File{}.Read(ctx, "whatever.jpg")
	if !errors.Is(err, core.ErrUnreadableSource) {
		t.Fatalf("expected unreadable source, got %v", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Put("a", []byte("first"))

	got, err := m.Read(context.Background(), "a")
	if err != nil || string(got) != "first" {
		t.Fatalf("got %q, %v", got, err)
	}
	got[0] = 'X'
	again, _ := m.Read(context.Background(), "a")
	if string(again) != "first" {
		t.Fatal("caller mutation leaked into the store")
	}

	if _, err := m.Read(context.Background(), "b"); !errors.Is(err, core.ErrUnreadableSource) {
		t.Fatalf("expected unreadable source, got %v", err)
	}
}

func TestBytes(t *testing.T) {
	if _, err := Bytes(nil).Read(context.Background(), "upload"); !errors.Is(err, core.ErrUnreadableSource) {
		t.Fatalf("expected unreadable source, got %v", err)
	}
	got, err := Bytes("abc").Read(context.Background(), "upload")
	if err != nil || string(got) != "abc" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func buildMP3(t *testing.T, pictures ...id3v2.PictureFrame) []byte {
	t.Helper()
	tg := id3v2.NewEmptyTag()
	tg.SetTitle("Test")
	for _, p := range pictures {
		tg.AddAttachedPicture(p)
	}
	var buf bytes.Buffer
	if _, err := tg.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	// One silent MPEG frame header after the tag.
	buf.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
	return buf.Bytes()
}

func TestArtworkMP3(t *testing.T) {
	cover := fixture.ScenarioA()
	back := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	mp3 := buildMP3(t,
		id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTBackCover,
			Description: "Back",
			Picture:     back,
		},
		id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front",
			Picture:     cover,
		},
	)

	mem := NewMemory()
	mem.Put("song.mp3", mp3)
	got, err := Artwork{Audio: mem}.Read(context.Background(), "song.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, cover) {
		t.Fatal("expected the front cover")
	}
}

func TestArtworkFailures(t *testing.T) {
	mem := NewMemory()
	mem.Put("bare.mp3", buildMP3(t))
	mem.Put("photo.jpg", fixture.ScenarioA())

	cases := []struct {
		ref  string
		want string
	}{
		{"bare.mp3", "no embedded picture"},
		{"photo.jpg", "jpeg is image media"},
		{"missing.mp3", "missing.mp3"},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			_, err := Artwork{Audio: mem}.Read(context.Background(), tc.ref)
			if !errors.Is(err, core.ErrUnreadableSource) {
				t.Fatalf("expected unreadable source, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}
