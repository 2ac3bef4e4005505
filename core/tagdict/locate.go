package tagdict

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ankit-chaubey/shotmeta/core"
)

var exifHeader = []byte("Exif\x00\x00")

// Locate finds the EXIF payload of b and returns it as TIFF-structured bytes
// (byte-order mark first). format must be the result of core.DetectFormat.
func Locate(format core.FormatID, b []byte) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	switch format {
	case core.FmtJPEG:
		payload, err = locateJPEG(b)
	case core.FmtTIFF:
		payload = b
	case core.FmtPNG:
		payload, err = locatePNG(b)
	case core.FmtWebP:
		payload, err = locateWebP(b)
	case core.FmtHEIC:
		payload, err = locateHEIF(b)
	case core.FmtGIF, core.FmtBMP:
		// Valid images whose formats carry no EXIF block.
		return nil, fmt.Errorf("%s: %w", format, core.ErrNoMetadataSegment)
	default:
		return nil, fmt.Errorf("unrecognised image container: %w", core.ErrMalformedContainer)
	}
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%s: empty exif segment: %w", format, core.ErrNoMetadataSegment)
	}
	return payload, nil
}

func malformed(format core.FormatID, msg string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", format, fmt.Sprintf(msg, args...), core.ErrMalformedContainer)
}

func notFound(format core.FormatID) error {
	return fmt.Errorf("%s: %w", format, core.ErrNoMetadataSegment)
}

// ─── JPEG ────────────────────────────────────────────────────────────────────

const (
	jpegSOI  = 0xD8
	jpegEOI  = 0xD9
	jpegSOS  = 0xDA
	jpegAPP1 = 0xE1
	jpegTEM  = 0x01
)

// locateJPEG walks the marker segments up to the start of scan and returns
// the body of the first APP1 segment carrying the EXIF identifier.
func locateJPEG(b []byte) ([]byte, error) {
	i := 2 // SOI
	for {
		if i >= len(b) {
			return nil, malformed(core.FmtJPEG, "truncated before image data")
		}
		if b[i] != 0xFF {
			return nil, malformed(core.FmtJPEG, "expected marker at offset %d", i)
		}
		// Skip fill bytes.
		for i < len(b) && b[i] == 0xFF {
			i++
		}
		if i >= len(b) {
			return nil, malformed(core.FmtJPEG, "truncated marker")
		}
		marker := b[i]
		i++

		switch {
		case marker == jpegEOI || marker == jpegSOS:
			return nil, notFound(core.FmtJPEG)
		case marker == jpegTEM || marker == jpegSOI || (marker >= 0xD0 && marker <= 0xD7):
			continue // standalone markers carry no length
		}

		if i+2 > len(b) {
			return nil, malformed(core.FmtJPEG, "truncated segment length")
		}
		segLen := int(binary.BigEndian.Uint16(b[i : i+2]))
		if segLen < 2 || i+segLen > len(b) {
			return nil, malformed(core.FmtJPEG, "segment 0x%02X overruns buffer", marker)
		}
		data := b[i+2 : i+segLen]
		if marker == jpegAPP1 && bytes.HasPrefix(data, exifHeader) {
			return data[len(exifHeader):], nil
		}
		i += segLen
	}
}

// ─── PNG ─────────────────────────────────────────────────────────────────────

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func locatePNG(b []byte) ([]byte, error) {
	if !bytes.HasPrefix(b, pngSignature) {
		return nil, malformed(core.FmtPNG, "bad signature")
	}
	offset := len(pngSignature)
	for offset < len(b) {
		if offset+8 > len(b) {
			return nil, malformed(core.FmtPNG, "truncated chunk header")
		}
		length := int(binary.BigEndian.Uint32(b[offset : offset+4]))
		typ := string(b[offset+4 : offset+8])
		offset += 8
		if length < 0 || offset+length > len(b) {
			return nil, malformed(core.FmtPNG, "chunk %q overruns buffer", typ)
		}
		switch typ {
		case "eXIf":
			return trimExifHeader(b[offset : offset+length]), nil
		case "IEND":
			return nil, notFound(core.FmtPNG)
		}
		offset += length + 4 // data + CRC
	}
	return nil, notFound(core.FmtPNG)
}

// ─── WebP ────────────────────────────────────────────────────────────────────

func locateWebP(b []byte) ([]byte, error) {
	if len(b) < 12 {
		return nil, malformed(core.FmtWebP, "file too short")
	}
	offset := 12 // skip RIFF header
	for offset+8 <= len(b) {
		chunkID := string(b[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(b[offset+4 : offset+8]))
		offset += 8
		if chunkSize < 0 || offset+chunkSize > len(b) {
			return nil, malformed(core.FmtWebP, "chunk %q overruns buffer", chunkID)
		}
		if chunkID == "EXIF" {
			return trimExifHeader(b[offset : offset+chunkSize]), nil
		}
		offset += chunkSize
		if chunkSize%2 != 0 {
			offset++ // padding
		}
	}
	return nil, notFound(core.FmtWebP)
}

// trimExifHeader drops the "Exif\0\0" identifier some writers keep in front
// of the TIFF structure of PNG and WebP payloads.
func trimExifHeader(b []byte) []byte {
	return bytes.TrimPrefix(b, exifHeader)
}
