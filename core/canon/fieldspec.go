package canon

// Kind selects the normalizer of a field.
type Kind int

const (
	TextKind     Kind = iota // verbatim description or value
	ISOKind                  // integer, UnknownNumber when absent
	ApertureKind             // "F4.0"
	ShutterKind              // "1/250", "2"
	FocalKind                // "23mm"
)

func (k Kind) String() string {
	switch k {
	case TextKind:
		return "text"
	case ISOKind:
		return "iso"
	case ApertureKind:
		return "aperture"
	case ShutterKind:
		return "shutter"
	case FocalKind:
		return "focal"
	}
	return "unknown"
}

// FieldSpec describes one canonical field: the dictionary keys it may come
// from, most specific first, and how its value is normalized.
type FieldSpec struct {
	Name    string // JSON name in CanonicalPhotoMetadata
	Label   string // display label
	Aliases []string
	Kind    Kind
	// Core fields are the eight base shooting parameters. A sentinel in any
	// of them makes a run partial.
	Core bool

	text   func(*CanonicalPhotoMetadata) *string
	number func(*CanonicalPhotoMetadata) *int
}

func (f FieldSpec) setMissing(m *CanonicalPhotoMetadata) {
	if f.Kind == ISOKind {
		*f.number(m) = UnknownNumber
		return
	}
	*f.text(m) = UnknownText
}

// Fields is the alias table, in record order. Alias order is precedence:
// vendor maker-note keys come before the generic EXIF keys they refine.
var Fields = []FieldSpec{
	{
		Name: "cameraName", Label: "Camera", Core: true,
		Aliases: []string{"Model", "Make"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.CameraName },
	},
	{
		Name: "lensName", Label: "Lens", Core: true,
		Aliases: []string{"Canon.LensModel", "LensModel", "LensType", "Nikon.Lens", "LensInfo"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.LensName },
	},
	{
		Name: "iso", Label: "ISO", Core: true, Kind: ISOKind,
		Aliases: []string{"ISOSpeedRatings", "ISO", "ISOSpeed"},
		number:  func(m *CanonicalPhotoMetadata) *int { return &m.ISO },
	},
	{
		Name: "aperture", Label: "Aperture", Core: true, Kind: ApertureKind,
		Aliases: []string{"FNumber"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.Aperture },
	},
	{
		Name: "shutterSpeed", Label: "Shutter speed", Core: true, Kind: ShutterKind,
		Aliases: []string{"ExposureTime"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.ShutterSpeed },
	},
	{
		Name: "focalLength", Label: "Focal length", Core: true, Kind: FocalKind,
		Aliases: []string{"FocalLength"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.FocalLength },
	},
	{
		Name: "whiteBalance", Label: "White balance", Core: true,
		Aliases: []string{"Fujifilm.WhiteBalance", "Nikon.WhiteBalance", "WhiteBalance"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.WhiteBalance },
	},
	{
		Name: "mode", Label: "Mode", Core: true,
		Aliases: []string{"ExposureProgram", "ExposureMode"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.Mode },
	},
	{
		Name: "filmSimulation", Label: "Film simulation",
		Aliases: []string{"Fujifilm.FilmMode", "FilmMode", "FilmSimulation", "Fujifilm.Saturation"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.FilmSimulation },
	},
	{
		Name: "dynamicRange", Label: "Dynamic range",
		Aliases: []string{
			"Fujifilm.DevelopmentDynamicRange",
			"Fujifilm.DynamicRangeSetting",
			"Fujifilm.DynamicRange",
			"DynamicRange",
			"Nikon.ActiveDLighting",
		},
		text: func(m *CanonicalPhotoMetadata) *string { return &m.DynamicRange },
	},
	{
		Name: "focalLength35mm", Label: "35mm equivalent", Kind: FocalKind,
		Aliases: []string{"FocalLengthIn35mmFilm", "FocalLength35efl"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.FocalLength35mm },
	},
	{
		Name: "exposureProgram", Label: "Exposure program",
		Aliases: []string{"ExposureProgram"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.ExposureProgram },
	},
	{
		Name: "flash", Label: "Flash",
		Aliases: []string{"Flash"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.Flash },
	},
	{
		Name: "meteringMode", Label: "Metering mode",
		Aliases: []string{"MeteringMode"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.MeteringMode },
	},
	{
		Name: "exposureBias", Label: "Exposure bias",
		Aliases: []string{"ExposureBiasValue"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.ExposureBias },
	},
	{
		Name: "dateTimeOriginal", Label: "Taken",
		Aliases: []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime"},
		text:    func(m *CanonicalPhotoMetadata) *string { return &m.DateTimeOriginal },
	},
}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(Fields))
	for i, f := range Fields {
		idx[f.Name] = i
	}
	return idx
}()

// Lookup returns the FieldSpec called name.
func Lookup(name string) (FieldSpec, bool) {
	i, ok := fieldIndex[name]
	if !ok {
		return FieldSpec{}, false
	}
	return Fields[i], true
}
