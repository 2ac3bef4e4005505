package canon

import "github.com/ankit-chaubey/shotmeta/core"

// Raw is the value a field resolved to, before normalization.
type Raw struct {
	Found bool
	Key   string // dictionary key that won
	// Text is the entry's description when it has one, otherwise its string
	// value. It is empty for numeric entries without a description.
	Text string
	// Number is the first machine value of a numeric entry without a
	// description.
	Number    float64
	HasNumber bool
}

// Resolve probes the aliases of f in order and returns the first usable
// entry. A description wins over the machine value of the same entry.
func Resolve(f FieldSpec, tags core.TagDictionary) Raw {
	for _, key := range f.Aliases {
		e, ok := tags[key]
		if !ok || !e.Usable() {
			continue
		}
		r := Raw{Found: true, Key: key}
		switch {
		case e.Description != "":
			r.Text = e.Description
		case e.Kind == core.StringValue:
			r.Text = e.Text
		default:
			r.Number, r.HasNumber = e.Number()
		}
		return r
	}
	return Raw{}
}

// Build resolves and normalizes every field of Fields. missing lists the
// fields that ended up with a sentinel, in table order.
func Build(tags core.TagDictionary) (m CanonicalPhotoMetadata, missing []string) {
	for _, f := range Fields {
		if !Apply(f, Resolve(f, tags), &m) {
			missing = append(missing, f.Name)
		}
	}
	return m, missing
}

// Apply normalizes r into the field f of m and reports whether a real value
// (rather than a sentinel) was stored.
func Apply(f FieldSpec, r Raw, m *CanonicalPhotoMetadata) bool {
	if f.Kind == ISOKind {
		v, ok := NormalizeISO(r)
		*f.number(m) = v
		return ok
	}
	var (
		s  string
		ok bool
	)
	switch f.Kind {
	case ApertureKind:
		s, ok = NormalizeAperture(r)
	case ShutterKind:
		s, ok = NormalizeShutter(r)
	case FocalKind:
		s, ok = NormalizeFocalLength(r)
	default:
		s, ok = NormalizeText(r)
	}
	*f.text(m) = s
	return ok
}
