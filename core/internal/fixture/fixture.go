// Package fixture builds small synthetic image files carrying EXIF data for
// tests. All TIFF structures are little-endian.
package fixture

import (
	"bytes"
	"encoding/binary"
	"math"
)

// TIFF field types.
const (
	TypeByte      = 1
	TypeASCII     = 2
	TypeShort     = 3
	TypeLong      = 4
	TypeRational  = 5
	TypeUndefined = 7
	TypeSRational = 10
)

// Common tag ids.
const (
	TagMake                  = 0x010F
	TagModel                 = 0x0110
	TagDateTime              = 0x0132
	TagExifIFD               = 0x8769
	TagExposureTime          = 0x829A
	TagFNumber               = 0x829D
	TagExposureProgram       = 0x8822
	TagISOSpeedRatings       = 0x8827
	TagISOSpeed              = 0x8833
	TagDateTimeOriginal      = 0x9003
	TagExposureBias          = 0x9204
	TagMeteringMode          = 0x9207
	TagFlash                 = 0x9209
	TagFocalLength           = 0x920A
	TagMakerNote             = 0x927C
	TagExposureMode          = 0xA402
	TagWhiteBalance          = 0xA403
	TagFocalLengthIn35mmFilm = 0xA405
	TagLensSpecification     = 0xA432
	TagLensModel             = 0xA434

	TagFujiWhiteBalance = 0x1002
	TagFujiSaturation   = 0x1003
	TagFujiFilmMode     = 0x1401
	TagFujiDRSetting    = 0x1402
	TagFujiDevelopDR    = 0x1403

	TagCanonFocalLength = 0x0002
	TagCanonLensModel   = 0x0095

	TagNikonISO             = 0x0002
	TagNikonActiveDLighting = 0x0022
	TagNikonLensType        = 0x0083
	TagNikonLens            = 0x0084
)

// Entry is one IFD entry with its value already encoded.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Data  []byte
}

func Byte(tag uint16, vs ...byte) Entry {
	return Entry{Tag: tag, Type: TypeByte, Count: uint32(len(vs)), Data: append([]byte{}, vs...)}
}

func ASCII(tag uint16, s string) Entry {
	data := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(data)), Data: data}
}

func Short(tag uint16, vs ...uint16) Entry {
	data := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return Entry{Tag: tag, Type: TypeShort, Count: uint32(len(vs)), Data: data}
}

func Long(tag uint16, vs ...uint32) Entry {
	data := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return Entry{Tag: tag, Type: TypeLong, Count: uint32(len(vs)), Data: data}
}

// Rational takes numerator/denominator pairs.
func Rational(tag uint16, pairs ...uint32) Entry {
	data := make([]byte, 4*len(pairs))
	for i, v := range pairs {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return Entry{Tag: tag, Type: TypeRational, Count: uint32(len(pairs) / 2), Data: data}
}

func SRational(tag uint16, num, den int32) Entry {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], uint32(num))
	binary.LittleEndian.PutUint32(data[4:], uint32(den))
	return Entry{Tag: tag, Type: TypeSRational, Count: 1, Data: data}
}

func Undefined(tag uint16, data []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Count: uint32(len(data)), Data: data}
}

// Float64Rational approximates v as a rational with a fixed denominator.
func Float64Rational(tag uint16, v float64) Entry {
	const den = 1000
	return Rational(tag, uint32(math.Round(v*den)), den)
}

// layout encodes an IFD that will sit at offset off (relative to the origin
// its value offsets are measured from), followed by its out-of-line values.
func layout(entries []Entry, off uint32) []byte {
	var dir, data bytes.Buffer
	dataOff := off + uint32(2+12*len(entries)+4)

	le16(&dir, uint16(len(entries)))
	for _, e := range entries {
		le16(&dir, e.Tag)
		le16(&dir, e.Type)
		le32(&dir, e.Count)
		if len(e.Data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Data)
			dir.Write(v)
			continue
		}
		le32(&dir, dataOff+uint32(data.Len()))
		data.Write(e.Data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	le32(&dir, 0) // no next IFD
	return append(dir.Bytes(), data.Bytes()...)
}

// TIFF builds a little-endian TIFF structure with ifd0 and, when exifIFD is
// non-empty, an EXIF sub-IFD linked from ifd0.
func TIFF(ifd0, exifIFD []Entry) []byte {
	var out bytes.Buffer
	out.WriteString("II")
	le16(&out, 42)
	le32(&out, 8)

	if len(exifIFD) == 0 {
		out.Write(layout(ifd0, 8))
		return out.Bytes()
	}

	entries := append(append([]Entry{}, ifd0...), Long(TagExifIFD, 0))
	size := len(layout(entries, 8))
	exifOff := uint32(8 + size)
	entries[len(entries)-1] = Long(TagExifIFD, exifOff)

	out.Write(layout(entries, 8))
	out.Write(layout(exifIFD, exifOff))
	return out.Bytes()
}

// FujifilmMakerNote builds a Fujifilm maker note: "FUJIFILM", the offset of
// the IFD (12), then the IFD with offsets relative to the note start.
func FujifilmMakerNote(entries ...Entry) []byte {
	var out bytes.Buffer
	out.WriteString("FUJIFILM")
	le32(&out, 12)
	out.Write(layout(entries, 12))
	return out.Bytes()
}

// CanonMakerNote builds a Canon maker note: a bare IFD. Canon value offsets
// are relative to the enclosing TIFF structure, which is not known here, so
// every value must fit in four bytes.
func CanonMakerNote(entries ...Entry) []byte {
	return layout(entries, 0)
}

// NikonMakerNote builds a type 3 Nikon maker note: "Nikon\0", version 2.10,
// then a little-endian TIFF structure with entries in its first IFD.
func NikonMakerNote(entries ...Entry) []byte {
	var out bytes.Buffer
	out.WriteString("Nikon\x00")
	out.Write([]byte{0x02, 0x10, 0x00, 0x00})
	out.WriteString("II")
	le16(&out, 42)
	le32(&out, 8)
	out.Write(layout(entries, 8))
	return out.Bytes()
}

// JPEG wraps a TIFF payload in an APP1 segment. extra segments (marker,
// body) are written before it.
func JPEG(tiff []byte, extra ...Segment) []byte {
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8})
	for _, s := range extra {
		writeSegment(&out, s.Marker, s.Data)
	}
	if tiff != nil {
		writeSegment(&out, 0xE1, append([]byte("Exif\x00\x00"), tiff...))
	}
	// A token start-of-scan so the walker stops on image data.
	writeSegment(&out, 0xDA, []byte{0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})
	out.Write([]byte{0x00, 0x00, 0xFF, 0xD9})
	return out.Bytes()
}

// Segment is a JPEG marker segment.
type Segment struct {
	Marker byte
	Data   []byte
}

// XMPSegment is an APP1 segment carrying XMP rather than EXIF.
func XMPSegment() Segment {
	return Segment{Marker: 0xE1, Data: []byte("http://ns.adobe.com/xap/1.0/\x00<x:xmpmeta/>")}
}

func writeSegment(w *bytes.Buffer, marker byte, data []byte) {
	w.Write([]byte{0xFF, marker})
	length := uint16(len(data) + 2)
	w.Write([]byte{byte(length >> 8), byte(length)})
	w.Write(data)
}

// PNG builds a minimal PNG with an eXIf chunk (CRCs are not checked by the
// parser and are left zero).
func PNG(tiff []byte) []byte {
	var out bytes.Buffer
	out.Write([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	pngChunk(&out, "IHDR", make([]byte, 13))
	if tiff != nil {
		pngChunk(&out, "eXIf", tiff)
	}
	pngChunk(&out, "IEND", nil)
	return out.Bytes()
}

func pngChunk(w *bytes.Buffer, typ string, data []byte) {
	be := make([]byte, 4)
	binary.BigEndian.PutUint32(be, uint32(len(data)))
	w.Write(be)
	w.WriteString(typ)
	w.Write(data)
	w.Write([]byte{0, 0, 0, 0})
}

// WebP builds a RIFF/WEBP container with a VP8X and an EXIF chunk.
func WebP(tiff []byte) []byte {
	var body bytes.Buffer
	riffChunk(&body, "VP8X", make([]byte, 10))
	if tiff != nil {
		riffChunk(&body, "EXIF", tiff)
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	le32(&out, uint32(body.Len()+4))
	out.WriteString("WEBP")
	out.Write(body.Bytes())
	return out.Bytes()
}

func riffChunk(w *bytes.Buffer, id string, data []byte) {
	w.WriteString(id)
	le32(w, uint32(len(data)))
	w.Write(data)
	if len(data)%2 == 1 {
		w.WriteByte(0)
	}
}

// HEIC builds an ftyp + meta(iinf, iloc) + mdat file whose item 1 is the
// Exif item stored in mdat.
func HEIC(tiff []byte) []byte {
	item := make([]byte, 4, 10+len(tiff))
	binary.BigEndian.PutUint32(item, 6)
	item = append(item, "Exif\x00\x00"...)
	item = append(item, tiff...)

	ftyp := box("ftyp", append([]byte("heic"), 0, 0, 0, 0, 'm', 'i', 'f', '1', 'h', 'e', 'i', 'c'))

	var infe bytes.Buffer
	infe.Write([]byte{2, 0, 0, 0}) // version 2
	be16(&infe, 1)                 // item_ID
	be16(&infe, 0)                 // protection index
	infe.WriteString("Exif")
	infe.WriteByte(0) // item_name
	var iinf bytes.Buffer
	iinf.Write([]byte{0, 0, 0, 0})
	be16(&iinf, 1)
	iinf.Write(box("infe", infe.Bytes()))

	// iloc version 0, offset_size 4, length_size 4, base_offset_size 0.
	ilocBody := func(offset uint32) []byte {
		var b bytes.Buffer
		b.Write([]byte{0, 0, 0, 0})
		b.WriteByte(0x44)
		b.WriteByte(0x00)
		be16(&b, 1) // item_count
		be16(&b, 1) // item_ID
		be16(&b, 0) // data_reference_index
		be16(&b, 1) // extent_count
		be32(&b, offset)
		be32(&b, uint32(len(item)))
		return b.Bytes()
	}

	metaFor := func(offset uint32) []byte {
		children := append(box("iinf", iinf.Bytes()), box("iloc", ilocBody(offset))...)
		return box("meta", append([]byte{0, 0, 0, 0}, children...))
	}
	// mdat body follows ftyp, meta and the 8-byte mdat header.
	offset := uint32(len(ftyp) + len(metaFor(0)) + 8)

	var out bytes.Buffer
	out.Write(ftyp)
	out.Write(metaFor(offset))
	out.Write(box("mdat", item))
	return out.Bytes()
}

func box(typ string, body []byte) []byte {
	var b bytes.Buffer
	be32(&b, uint32(len(body)+8))
	b.WriteString(typ)
	b.Write(body)
	return b.Bytes()
}

func le16(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func le32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func be16(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func be32(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

// ScenarioA is the standard-block fixture: X-T5, f/4, 1/250 s, ISO 800.
func ScenarioA() []byte {
	return JPEG(TIFF(
		[]Entry{ASCII(TagMake, "FUJIFILM"), ASCII(TagModel, "X-T5")},
		[]Entry{
			Rational(TagExposureTime, 1, 250),
			Rational(TagFNumber, 4, 1),
			Short(TagISOSpeedRatings, 800),
		},
	))
}

// FullFujifilm carries every core field plus a Fujifilm maker note.
func FullFujifilm(makerNote []byte) []byte {
	return JPEG(TIFF(
		[]Entry{ASCII(TagMake, "FUJIFILM"), ASCII(TagModel, "X-T5")},
		[]Entry{
			Rational(TagExposureTime, 1, 250),
			Rational(TagFNumber, 28, 10),
			Short(TagExposureProgram, 3),
			Short(TagISOSpeedRatings, 400),
			ASCII(TagDateTimeOriginal, "2024:05:01 10:20:30"),
			SRational(TagExposureBias, -2, 3),
			Short(TagMeteringMode, 5),
			Short(TagFlash, 0x10),
			Rational(TagFocalLength, 23, 1),
			Undefined(TagMakerNote, makerNote),
			Short(TagExposureMode, 0),
			Short(TagWhiteBalance, 0),
			Short(TagFocalLengthIn35mmFilm, 35),
			Rational(TagLensSpecification, 23, 1, 23, 1, 14, 10, 14, 10),
			ASCII(TagLensModel, "XF23mmF1.4 R LM WR"),
		},
	))
}

// ClassicChromeNote is a well-formed Fujifilm maker note: Classic Chrome,
// DR400, daylight white balance.
func ClassicChromeNote() []byte {
	return FujifilmMakerNote(
		Short(TagFujiWhiteBalance, 0x100),
		Short(TagFujiFilmMode, 0x600),
		Short(TagFujiDRSetting, 0x1),
		Short(TagFujiDevelopDR, 400),
	)
}

// TruncatedNote is a Fujifilm maker note cut off inside its IFD.
func TruncatedNote() []byte {
	return ClassicChromeNote()[:20]
}

// FullCanon is a Canon EOS R5 frame at 50mm whose maker note carries
// Canon's own focal length array (focal type 2, 50).
func FullCanon(makerNote []byte) []byte {
	return JPEG(TIFF(
		[]Entry{ASCII(TagMake, "Canon"), ASCII(TagModel, "Canon EOS R5")},
		[]Entry{
			Rational(TagExposureTime, 1, 125),
			Rational(TagFNumber, 18, 10),
			Short(TagExposureProgram, 2),
			Short(TagISOSpeedRatings, 200),
			Rational(TagFocalLength, 50, 1),
			Undefined(TagMakerNote, makerNote),
			Short(TagWhiteBalance, 1),
			ASCII(TagLensModel, "RF50mm F1.8 STM"),
		},
	))
}

// CanonFocalNote is a Canon maker note with a focal length entry only.
func CanonFocalNote() []byte {
	return CanonMakerNote(Short(TagCanonFocalLength, 2, 50))
}

// FullNikon is a Nikon Z 6 frame without a LensModel tag. Its ISO is only
// in the EXIF 2.3 ISOSpeed tag, and its standard lens specification
// (24-70mm f/2.8-4) differs from the one in the maker note.
func FullNikon(makerNote []byte) []byte {
	return JPEG(TIFF(
		[]Entry{ASCII(TagMake, "NIKON CORPORATION"), ASCII(TagModel, "NIKON Z 6")},
		[]Entry{
			Rational(TagExposureTime, 1, 60),
			Rational(TagFNumber, 4, 1),
			Short(TagExposureProgram, 1),
			Long(TagISOSpeed, 3200),
			Rational(TagFocalLength, 35, 1),
			Undefined(TagMakerNote, makerNote),
			Short(TagWhiteBalance, 0),
			Rational(TagLensSpecification, 24, 1, 70, 1, 28, 10, 4, 1),
		},
	))
}

// ActiveDLightingNote is a Nikon maker note with Active D-Lighting Normal,
// a lens type bitfield of 6, a 24-70mm f/2.8 lens and an ISO pair of
// (0, 1600).
func ActiveDLightingNote() []byte {
	return NikonMakerNote(
		Short(TagNikonISO, 0, 1600),
		Short(TagNikonActiveDLighting, 3),
		Byte(TagNikonLensType, 6),
		Rational(TagNikonLens, 24, 1, 70, 1, 28, 10, 28, 10),
	)
}
