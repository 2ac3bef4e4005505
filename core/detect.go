package core

import (
	"bytes"
	"encoding/binary"
)

// FormatID enumerates every recognised container.
type FormatID string

const (
	FmtJPEG FormatID = "jpeg"
	FmtPNG  FormatID = "png"
	FmtWebP FormatID = "webp"
	FmtTIFF FormatID = "tiff"
	FmtHEIC FormatID = "heic"
	FmtGIF  FormatID = "gif"
	FmtBMP  FormatID = "bmp"

	FmtMP3  FormatID = "mp3"
	FmtFLAC FormatID = "flac"
	FmtOGG  FormatID = "ogg"
	FmtM4A  FormatID = "m4a"

	FmtMP4 FormatID = "mp4"
	FmtMOV FormatID = "mov"

	FmtUnknown FormatID = "unknown"
)

// heifBrands are the ftyp major brands of still-image ISOBMFF files.
var heifBrands = map[string]bool{
	"heic": true, "heix": true, "hevc": true, "hevx": true,
	"heim": true, "heis": true, "mif1": true, "msf1": true,
	"avif": true, "avis": true,
}

// DetectFormat identifies a container by its magic bytes. Only the leading
// bytes are inspected (the whole ftyp box for ISOBMFF files).
func DetectFormat(b []byte) FormatID {
	if len(b) < 4 {
		return FmtUnknown
	}
	switch {
	// JPEG: FF D8 FF
	case len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF:
		return FmtJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return FmtPNG
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return FmtWebP
	// TIFF and TIFF-based raws: II*\0 or MM\0*
	case bytes.HasPrefix(b, []byte{0x49, 0x49, 0x2A, 0x00}) ||
		bytes.HasPrefix(b, []byte{0x4D, 0x4D, 0x00, 0x2A}):
		return FmtTIFF
	// ISOBMFF: ftyp box at offset 4
	case len(b) >= 12 && bytes.Equal(b[4:8], []byte("ftyp")):
		return detectFtypBrand(b)
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return FmtGIF
	case b[0] == 0x42 && b[1] == 0x4D:
		return FmtBMP
	// MP3: ID3 tag or frame sync
	case bytes.HasPrefix(b, []byte("ID3")):
		return FmtMP3
	case b[0] == 0xFF && (b[1]&0xE0 == 0xE0):
		return FmtMP3
	case bytes.HasPrefix(b, []byte("fLaC")):
		return FmtFLAC
	case bytes.HasPrefix(b, []byte("OggS")):
		return FmtOGG
	}
	return FmtUnknown
}

func detectFtypBrand(b []byte) FormatID {
	brand := string(b[8:12])
	switch {
	case heifBrands[brand]:
		return FmtHEIC
	case brand == "M4A " || brand == "M4B ":
		return FmtM4A
	case brand == "qt  ":
		return FmtMOV
	}
	// Some encoders put a generic major brand first and list the HEIF brand
	// among the compatible brands.
	size := int(binary.BigEndian.Uint32(b[0:4]))
	if size > len(b) {
		size = len(b)
	}
	for i := 16; i+4 <= size; i += 4 {
		if heifBrands[string(b[i:i+4])] {
			return FmtHEIC
		}
	}
	return FmtMP4
}

// MediaTypeFor returns the broad media category for a format.
func MediaTypeFor(id FormatID) string {
	switch id {
	case FmtJPEG, FmtPNG, FmtWebP, FmtTIFF, FmtHEIC, FmtGIF, FmtBMP:
		return "image"
	case FmtMP3, FmtFLAC, FmtOGG, FmtM4A:
		return "audio"
	case FmtMP4, FmtMOV:
		return "video"
	default:
		return "unknown"
	}
}
