package tagdict

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// maxIFDChain bounds how many directories a next-IFD chain may link.
const maxIFDChain = 16

// Sub-IFD pointer tags followed by the decoder.
var subIFDTags = map[uint16]bool{
	0x8769: true, // Exif
	0x8825: true, // GPS
	0xA005: true, // Interoperability
}

// typeSizes are the TIFF field type sizes in bytes, indexed by type.
var typeSizes = [...]uint64{1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1, 7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8, 13: 4}

var errNoTIFFHeader = errors.New("payload does not start with a TIFF header")

// tiffOrder returns the byte order of a TIFF header at the start of b.
func tiffOrder(b []byte) (binary.ByteOrder, bool) {
	if len(b) < 8 {
		return nil, false
	}
	switch {
	case b[0] == 'I' && b[1] == 'I' && b[2] == 0x2A && b[3] == 0x00:
		return binary.LittleEndian, true
	case b[0] == 'M' && b[1] == 'M' && b[2] == 0x00 && b[3] == 0x2A:
		return binary.BigEndian, true
	}
	return nil, false
}

// checkTIFF walks the IFD chain of a TIFF structure and the Exif, GPS and
// Interoperability directories it links, and rejects any entry whose value
// cannot fit in b. The decoder sizes its value slices from the entry count
// alone, so an oversized count must never reach it.
//
// Directories that point outside b are left for the decoder to report.
func checkTIFF(b []byte) error {
	order, ok := tiffOrder(b)
	if !ok {
		return errNoTIFFHeader
	}
	w := ifdWalker{b: b, order: order, seen: map[uint32]bool{}}
	off := order.Uint32(b[4:8])
	for n := 0; off != 0; n++ {
		if w.seen[off] || n >= maxIFDChain {
			return fmt.Errorf("IFD chain loops back to offset %d", off)
		}
		w.seen[off] = true
		next, subs, err := w.dir(off)
		if err != nil {
			return err
		}
		if err := w.subDirs(subs, 0); err != nil {
			return err
		}
		off = next
	}
	return nil
}

// checkDir checks the single directory at off in b.
func checkDir(b []byte, order binary.ByteOrder, off uint32) error {
	w := ifdWalker{b: b, order: order}
	_, _, err := w.dir(off)
	return err
}

type ifdWalker struct {
	b     []byte
	order binary.ByteOrder
	seen  map[uint32]bool
}

// dir checks the entries of the directory at off and returns its next-IFD
// offset and the sub-IFD offsets it links.
func (w ifdWalker) dir(off uint32) (next uint32, subs []uint32, err error) {
	size := uint64(len(w.b))
	start := uint64(off)
	if start+2 > size {
		return 0, nil, nil
	}
	n := uint64(w.order.Uint16(w.b[start:]))
	for i := uint64(0); i < n; i++ {
		p := start + 2 + 12*i
		if p+12 > size {
			return 0, subs, nil
		}
		id := w.order.Uint16(w.b[p:])
		typ := w.order.Uint16(w.b[p+2:])
		count := w.order.Uint32(w.b[p+4:])

		if valueSize(typ, count) > size {
			return 0, nil, fmt.Errorf("tag 0x%04x: %d values of type %d exceed the %d byte payload", id, count, typ, size)
		}
		if subIFDTags[id] && count == 1 && (typ == 4 || typ == 13) {
			subs = append(subs, w.order.Uint32(w.b[p+8:]))
		}
	}
	if end := start + 2 + 12*n; end+4 <= size {
		next = w.order.Uint32(w.b[end:])
	}
	return next, subs, nil
}

func (w ifdWalker) subDirs(offs []uint32, depth int) error {
	if depth > 1 {
		return nil
	}
	for _, off := range offs {
		if w.seen[off] {
			continue
		}
		w.seen[off] = true
		_, subs, err := w.dir(off)
		if err != nil {
			return err
		}
		if err := w.subDirs(subs, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// valueSize is the byte length of count values of type typ. Unknown types
// count one byte per value.
func valueSize(typ uint16, count uint32) uint64 {
	size := uint64(1)
	if int(typ) < len(typeSizes) && typeSizes[typ] > 0 {
		size = typeSizes[typ]
	}
	return size * uint64(count)
}
