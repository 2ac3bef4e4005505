package tagdict

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ankit-chaubey/shotmeta/core"
)

var errShortBox = errors.New("short box")

// cursor reads big-endian fields from an ISOBMFF box body. The first
// out-of-range read latches err; later reads return zero.
type cursor struct {
	b   []byte
	off int
	err error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.b) {
		c.err = errShortBox
		return nil
	}
	p := c.b[c.off : c.off+n]
	c.off += n
	return p
}

func (c *cursor) u8() uint8 {
	if p := c.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (c *cursor) u16() uint16 {
	if p := c.take(2); p != nil {
		return binary.BigEndian.Uint16(p)
	}
	return 0
}

func (c *cursor) u32() uint32 {
	if p := c.take(4); p != nil {
		return binary.BigEndian.Uint32(p)
	}
	return 0
}

// uN reads an n-byte field as used by iloc (n is 0, 4 or 8).
func (c *cursor) uN(n int) uint64 {
	switch n {
	case 0:
		return 0
	case 4:
		return uint64(c.u32())
	case 8:
		if p := c.take(8); p != nil {
			return binary.BigEndian.Uint64(p)
		}
		return 0
	}
	if c.err == nil {
		c.err = fmt.Errorf("invalid field size %d", n)
	}
	return 0
}

func (c *cursor) fourcc() string {
	return string(c.take(4))
}

// nextBox splits the first box off b.
func nextBox(b []byte) (typ string, body, rest []byte, err error) {
	if len(b) < 8 {
		return "", nil, nil, errShortBox
	}
	size := uint64(binary.BigEndian.Uint32(b[0:4]))
	typ = string(b[4:8])
	hdr := uint64(8)
	switch size {
	case 0: // box extends to the end of its container
		size = uint64(len(b))
	case 1:
		if len(b) < 16 {
			return "", nil, nil, errShortBox
		}
		size = binary.BigEndian.Uint64(b[8:16])
		hdr = 16
	}
	if size < hdr || size > uint64(len(b)) {
		return "", nil, nil, fmt.Errorf("box %q: bad size %d", typ, size)
	}
	return typ, b[hdr:size], b[size:], nil
}

// locateHEIF resolves the Exif item of a HEIF/HEIC/AVIF file through the
// meta box's item info (iinf) and item location (iloc) tables.
func locateHEIF(b []byte) ([]byte, error) {
	rest := b
	for len(rest) > 0 {
		typ, body, next, err := nextBox(rest)
		if err != nil {
			return nil, malformed(core.FmtHEIC, "%v", err)
		}
		if typ == "meta" {
			return exifFromMeta(b, body)
		}
		rest = next
	}
	return nil, notFound(core.FmtHEIC)
}

func exifFromMeta(file, meta []byte) ([]byte, error) {
	if len(meta) < 4 {
		return nil, malformed(core.FmtHEIC, "short meta box")
	}
	var iinf, iloc []byte
	children := meta[4:] // full box version and flags
	for len(children) > 0 {
		typ, body, next, err := nextBox(children)
		if err != nil {
			return nil, malformed(core.FmtHEIC, "meta: %v", err)
		}
		switch typ {
		case "iinf":
			iinf = body
		case "iloc":
			iloc = body
		}
		children = next
	}
	if iinf == nil || iloc == nil {
		return nil, notFound(core.FmtHEIC)
	}

	id, ok, err := exifItemID(iinf)
	if err != nil {
		return nil, malformed(core.FmtHEIC, "iinf: %v", err)
	}
	if !ok {
		return nil, notFound(core.FmtHEIC)
	}
	offset, length, err := itemExtent(iloc, id)
	if err != nil {
		return nil, malformed(core.FmtHEIC, "iloc: %v", err)
	}
	if length < 4 || offset > uint64(len(file)) || length > uint64(len(file))-offset {
		return nil, malformed(core.FmtHEIC, "exif item out of range")
	}
	item := file[offset : offset+length]

	// The item starts with the offset of the TIFF header within the rest of
	// the item, normally pointing past an "Exif\0\0" identifier.
	start := uint64(binary.BigEndian.Uint32(item[0:4])) + 4
	if start > uint64(len(item)) {
		return nil, malformed(core.FmtHEIC, "exif header offset out of range")
	}
	return trimExifHeader(item[start:]), nil
}

func exifItemID(iinf []byte) (uint32, bool, error) {
	c := cursor{b: iinf}
	version := c.u8()
	c.take(3)
	var count uint32
	if version == 0 {
		count = uint32(c.u16())
	} else {
		count = c.u32()
	}
	if c.err != nil {
		return 0, false, c.err
	}

	entries := iinf[c.off:]
	for i := uint32(0); i < count && len(entries) > 0; i++ {
		typ, body, next, err := nextBox(entries)
		if err != nil {
			return 0, false, err
		}
		entries = next
		if typ != "infe" {
			continue
		}
		ic := cursor{b: body}
		v := ic.u8()
		ic.take(3)
		if v < 2 {
			continue // no item_type before version 2
		}
		var itemID uint32
		if v == 2 {
			itemID = uint32(ic.u16())
		} else {
			itemID = ic.u32()
		}
		ic.u16() // item_protection_index
		itemType := ic.fourcc()
		if ic.err != nil {
			return 0, false, ic.err
		}
		if itemType == "Exif" {
			return itemID, true, nil
		}
	}
	return 0, false, nil
}

func itemExtent(iloc []byte, id uint32) (offset, length uint64, err error) {
	c := cursor{b: iloc}
	version := c.u8()
	c.take(3)
	sizes := c.u8()
	offsetSize, lengthSize := int(sizes>>4), int(sizes&0x0F)
	sizes = c.u8()
	baseOffsetSize, indexSize := int(sizes>>4), 0
	if version == 1 || version == 2 {
		indexSize = int(sizes & 0x0F)
	}
	var count uint32
	if version < 2 {
		count = uint32(c.u16())
	} else {
		count = c.u32()
	}

	for i := uint32(0); i < count && c.err == nil; i++ {
		var itemID uint32
		if version < 2 {
			itemID = uint32(c.u16())
		} else {
			itemID = c.u32()
		}
		var method uint16
		if version == 1 || version == 2 {
			method = c.u16() & 0x0F
		}
		c.u16() // data_reference_index
		base := c.uN(baseOffsetSize)
		extents := int(c.u16())
		for j := 0; j < extents && c.err == nil; j++ {
			c.uN(indexSize)
			extOffset := c.uN(offsetSize)
			extLength := c.uN(lengthSize)
			if itemID != id || c.err != nil {
				continue
			}
			switch {
			case method != 0:
				return 0, 0, fmt.Errorf("unsupported construction method %d", method)
			case extents != 1:
				return 0, 0, fmt.Errorf("exif item split over %d extents", extents)
			case extLength == 0:
				return 0, 0, errors.New("exif item without length")
			}
			return base + extOffset, extLength, nil
		}
	}
	if c.err != nil {
		return 0, 0, c.err
	}
	return 0, 0, fmt.Errorf("no location for item %d", id)
}
