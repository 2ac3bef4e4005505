package tagdict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/shotmeta/core"
)

// vendorParser decodes one maker-note format. Its tags are loaded into a
// decode of its own and land in the dictionary under prefix, so a vendor
// table that reuses a standard field name never replaces the standard tag.
type vendorParser struct {
	name   string
	prefix string
	p      exif.Parser
	// check validates the note layout before p reads it.
	check func(x *exif.Exif, note *tiff.Tag) error
}

var vendorParsers = []vendorParser{
	{name: "canon", prefix: "Canon", p: mknote.Canon, check: checkCanonNote},
	{name: "nikon", prefix: "Nikon", p: mknote.NikonV3, check: checkNikonNote},
	{name: "fujifilm", prefix: "Fujifilm", p: fujifilm{}},
}

// vendorTags decodes payload again, runs vp on that copy and returns every
// tag vp added or replaced, keyed "<prefix>.<name>". Returned errors and
// panics (the goexif maker-note parsers slice the note without length
// checks) both become an error.
func vendorTags(vp vendorParser, payload []byte) (tags core.TagDictionary, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags, err = nil, fmt.Errorf("%s: panic: %v", vp.name, r)
		}
	}()

	x, _ := exif.Decode(bytes.NewReader(payload))
	if x == nil {
		return nil, nil
	}
	note, err := x.Get(exif.MakerNote)
	if err != nil {
		return nil, nil
	}
	if vp.check != nil {
		if err := vp.check(x, note); err != nil {
			return nil, fmt.Errorf("%s: %w", vp.name, err)
		}
	}

	before := map[exif.FieldName]*tiff.Tag{}
	x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		before[name] = tag
		return nil
	}))
	if err := vp.p.Parse(x); err != nil {
		return nil, fmt.Errorf("%s: %w", vp.name, err)
	}

	tags = core.TagDictionary{}
	x.Walk(walkFunc(func(name exif.FieldName, tag *tiff.Tag) error {
		if before[name] == tag || strings.HasPrefix(string(name), exif.UnknownPrefix) {
			return nil
		}
		key := vp.prefix + "." + strings.TrimPrefix(string(name), vp.prefix+".")
		tags[key] = entryFor(key, tag)
		return nil
	}))
	return tags, nil
}

type walkFunc func(exif.FieldName, *tiff.Tag) error

func (f walkFunc) Walk(name exif.FieldName, tag *tiff.Tag) error { return f(name, tag) }

// checkCanonNote validates a Canon note: a bare IFD whose offsets are
// relative to the enclosing TIFF structure.
func checkCanonNote(x *exif.Exif, note *tiff.Tag) error {
	mk, err := x.Get(exif.Make)
	if err != nil {
		return nil
	}
	if val, err := mk.StringVal(); err != nil || val != "Canon" {
		return nil
	}
	return checkDir(x.Raw, x.Tiff.Order, note.ValOffset)
}

var nikonHeader = []byte("Nikon\x00")

// checkNikonNote validates a type 3 Nikon note: "Nikon\0", a version, then
// a complete TIFF structure from byte 10.
func checkNikonNote(_ *exif.Exif, note *tiff.Tag) error {
	if !bytes.HasPrefix(note.Val, nikonHeader) {
		return nil
	}
	if len(note.Val) < 18 {
		return errors.New("truncated maker note header")
	}
	return checkTIFF(note.Val[10:])
}

// runSupplement loads supplementFields into x, absorbing a panic.
func runSupplement(x *exif.Exif) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exif-supplement: panic: %v", r)
		}
	}()
	if err := (supplement{}).Parse(x); err != nil {
		return fmt.Errorf("exif-supplement: %w", err)
	}
	return nil
}

// supplementFields are EXIF 2.3 tags loaded under the keys the resolver
// probes, whether or not goexif's own table names them.
var supplementFields = map[uint16]exif.FieldName{
	0x8833: "ISOSpeed",
	0xA432: "LensInfo",
	0xA433: "LensMake",
	0xA434: "LensModel",
}

type supplement struct{}

// Parse re-reads the EXIF sub-IFD and loads supplementFields from it.
func (supplement) Parse(x *exif.Exif) error {
	ptr, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return nil
	}
	offset, err := ptr.Int64(0)
	if err != nil {
		return nil
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return err
	}
	x.LoadTags(dir, supplementFields, false)
	return nil
}

// fujifilmFields maps Fujifilm maker-note tag ids to dictionary keys.
var fujifilmFields = map[uint16]exif.FieldName{
	0x1000: "Fujifilm.Quality",
	0x1002: "Fujifilm.WhiteBalance",
	0x1003: "Fujifilm.Saturation",
	0x1400: "Fujifilm.DynamicRange",
	0x1401: "Fujifilm.FilmMode",
	0x1402: "Fujifilm.DynamicRangeSetting",
	0x1403: "Fujifilm.DevelopmentDynamicRange",
	0x1404: "Fujifilm.MinFocalLength",
	0x1405: "Fujifilm.MaxFocalLength",
}

var fujifilmHeader = []byte("FUJIFILM")

type fujifilm struct{}

// Parse decodes a Fujifilm maker note. The note starts with "FUJIFILM" and
// a little-endian offset to a single IFD; the IFD and every value offset in
// it are little-endian and relative to the start of the note, regardless of
// the byte order of the enclosing file.
func (fujifilm) Parse(x *exif.Exif) error {
	m, err := x.Get(exif.MakerNote)
	if err != nil {
		return nil
	}
	if !bytes.HasPrefix(m.Val, fujifilmHeader) {
		return nil
	}
	if len(m.Val) < 12 {
		return errors.New("truncated maker note header")
	}
	offset := int64(binary.LittleEndian.Uint32(m.Val[8:12]))
	if offset+2 > int64(len(m.Val)) {
		return fmt.Errorf("IFD offset %d beyond maker note of %d bytes", offset, len(m.Val))
	}
	if err := checkDir(m.Val, binary.LittleEndian, uint32(offset)); err != nil {
		return err
	}

	r := bytes.NewReader(m.Val)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	dir, _, err := tiff.DecodeDir(r, binary.LittleEndian)
	if err != nil {
		return err
	}
	x.LoadTags(dir, fujifilmFields, false)
	return nil
}
