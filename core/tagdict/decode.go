// Package tagdict turns an image buffer into a dictionary of raw metadata
// tags. It is the only package that knows about the EXIF decoder; everything
// downstream works on core.TagDictionary.
package tagdict

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/ankit-chaubey/shotmeta/core"
)

// maxValues caps how many elements of an array tag are kept.
const maxValues = 64

// skippedKeys are structural tags with no meaning outside the file.
var skippedKeys = map[string]bool{
	"ExifIFDPointer":                   true,
	"GPSInfoIFDPointer":                true,
	"InteroperabilityIFDPointer":       true,
	"ThumbJPEGInterchangeFormat":       true,
	"ThumbJPEGInterchangeFormatLength": true,
	"MakerNote":                        true,
}

// Result is a decoded tag dictionary plus what the decoder had to give up on.
type Result struct {
	Format core.FormatID
	Tags   core.TagDictionary
	// Partial is set when a sub-IFD or a vendor maker note failed to decode.
	// Everything that did decode is still in Tags.
	Partial      bool
	VendorErrors []error
}

// Parse locates and decodes the metadata segment of b. It fails only when
// no segment can be found or the standard block cannot be decoded at all;
// see core.ReasonOf for the classification of the returned error.
func Parse(b []byte) (Result, error) {
	format := core.DetectFormat(b)
	res := Result{Format: format}

	payload, err := Locate(format, b)
	if err != nil {
		return res, err
	}

	x, subErr, err := decodeStandard(payload)
	if err != nil {
		return res, fmt.Errorf("%s: %w", format, err)
	}
	if subErr != nil {
		res.Partial = true
		res.VendorErrors = append(res.VendorErrors, subErr)
	}
	if err := runSupplement(x); err != nil {
		res.Partial = true
		res.VendorErrors = append(res.VendorErrors, err)
	}

	tags, err := collect(x)
	if err != nil {
		return res, fmt.Errorf("%s: %w", format, err)
	}
	for _, vp := range vendorParsers {
		vt, err := vendorTags(vp, payload)
		if err != nil {
			res.Partial = true
			res.VendorErrors = append(res.VendorErrors, err)
			continue
		}
		for k, e := range vt {
			if _, ok := tags[k]; !ok {
				tags[k] = e
			}
		}
	}
	if len(tags) == 0 {
		return res, fmt.Errorf("%s: exif segment without tags: %w", format, core.ErrNoMetadataSegment)
	}
	res.Tags = tags
	return res, nil
}

// decodeStandard checks the directory layout of a TIFF payload and runs the
// goexif decoder on it. A non-nil subErr means the main IFD decoded but a
// sub-IFD did not.
func decodeStandard(payload []byte) (x *exif.Exif, subErr, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, subErr = nil, nil
			err = fmt.Errorf("decoder panic: %v: %w", r, core.ErrParserFault)
		}
	}()

	if err := checkTIFF(payload); err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, core.ErrMalformedContainer)
	}
	x, err = exif.Decode(bytes.NewReader(payload))
	if x == nil {
		if err == nil {
			err = errors.New("decoder returned no data")
		}
		return nil, nil, fmt.Errorf("%v: %w", err, core.ErrMalformedContainer)
	}
	return x, err, nil
}

type collector struct {
	tags core.TagDictionary
}

func (c collector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	if skippedKeys[key] || strings.HasPrefix(key, exif.UnknownPrefix) {
		return nil
	}
	c.tags[key] = entryFor(key, tag)
	return nil
}

func collect(x *exif.Exif) (tags core.TagDictionary, err error) {
	defer func() {
		if r := recover(); r != nil {
			tags = nil
			err = fmt.Errorf("tag conversion panic: %v: %w", r, core.ErrParserFault)
		}
	}()
	c := collector{tags: core.TagDictionary{}}
	if err := x.Walk(c); err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrParserFault)
	}
	return c.tags, nil
}

// entryFor converts one decoded tag into a dictionary entry.
func entryFor(key string, tag *tiff.Tag) core.RawTagEntry {
	e := core.RawTagEntry{Key: key}
	n := int(tag.Count)
	if n > maxValues {
		n = maxValues
	}

	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err == nil {
			e.Kind = core.StringValue
			e.Text = strings.TrimSpace(s)
		}
	case tiff.IntVal:
		e.Kind = core.NumberValue
		for i := 0; i < n; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				break
			}
			e.Numbers = append(e.Numbers, float64(v))
		}
	case tiff.RatVal:
		e.Kind = core.RationalValue
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				break
			}
			r := core.Rational{Num: num, Den: den}
			e.Rationals = append(e.Rationals, r)
			e.Numbers = append(e.Numbers, r.Float())
		}
	case tiff.FloatVal:
		e.Kind = core.NumberValue
		for i := 0; i < n; i++ {
			v, err := tag.Float(i)
			if err != nil {
				break
			}
			e.Numbers = append(e.Numbers, v)
		}
	}

	e.Description = describe(e)
	return e
}
