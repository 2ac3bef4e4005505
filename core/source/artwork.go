package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/ankit-chaubey/shotmeta/core"
)

// Artwork reads the cover picture embedded in an audio file, so album art
// can go through the same pipeline as a photo.
type Artwork struct {
	Audio Source // where the audio file itself comes from
}

var errNoArtwork = errors.New("no embedded picture")

func (a Artwork) Read(ctx context.Context, ref string) ([]byte, error) {
	raw, err := a.Audio.Read(ctx, ref)
	if err != nil {
		return nil, err
	}

	var pic []byte
	format := core.DetectFormat(raw)
	switch media := core.MediaTypeFor(format); {
	case format == core.FmtMP3:
		pic, err = id3Picture(raw)
	case media == "audio" || media == "video":
		pic, err = taggedPicture(raw)
	default:
		err = fmt.Errorf("%s is %s media, not a container with artwork", format, media)
	}
	if err != nil {
		return nil, unreadable(ref, err)
	}
	return pic, nil
}

// id3Picture returns the front cover APIC frame, or the first picture when
// none is marked as front cover.
func id3Picture(raw []byte) ([]byte, error) {
	t, err := id3v2.ParseReader(bytes.NewReader(raw), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("id3v2: %v", err)
	}

	var first []byte
	for _, f := range t.GetFrames(t.CommonID("Attached picture")) {
		pf, ok := f.(id3v2.PictureFrame)
		if !ok || len(pf.Picture) == 0 {
			continue
		}
		if pf.PictureType == id3v2.PTFrontCover {
			return pf.Picture, nil
		}
		if first == nil {
			first = pf.Picture
		}
	}
	if first == nil {
		return nil, errNoArtwork
	}
	return first, nil
}

func taggedPicture(raw []byte) ([]byte, error) {
	m, err := tag.ReadFrom(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("could not read tags: %v", err)
	}
	p := m.Picture()
	if p == nil || len(p.Data) == 0 {
		return nil, errNoArtwork
	}
	return p.Data, nil
}
