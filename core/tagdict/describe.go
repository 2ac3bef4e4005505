package tagdict

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ankit-chaubey/shotmeta/core"
)

// describers render a human-readable description for tags whose machine
// value is an enumeration code or a composite. Tags without a describer
// (FNumber, ExposureTime, FocalLength, ISO…) keep their numeric value only
// so the normalizers can format them.
var describers = map[string]func(core.RawTagEntry) string{
	"ExposureProgram":   codeTable(exposurePrograms),
	"MeteringMode":      codeTable(meteringModes),
	"WhiteBalance":      codeTable(whiteBalances),
	"ExposureMode":      codeTable(exposureModes),
	"Flash":             codeTable(flashModes),
	"ExposureBiasValue": describeExposureBias,
	"LensInfo":          describeLensSpecification,

	"Nikon.ActiveDLighting": codeTable(nikonActiveDLighting),
	"Nikon.Lens":            describeLensSpecification,

	"Fujifilm.WhiteBalance":            codeTable(fujiWhiteBalances),
	"Fujifilm.Saturation":              codeTable(fujiSaturations),
	"Fujifilm.FilmMode":                codeTable(fujiFilmModes),
	"Fujifilm.DynamicRange":            codeTable(fujiDynamicRanges),
	"Fujifilm.DynamicRangeSetting":     codeTable(fujiDynamicRangeSettings),
	"Fujifilm.DevelopmentDynamicRange": describeDevelopmentDynamicRange,
}

func describe(e core.RawTagEntry) string {
	fn, ok := describers[e.Key]
	if !ok {
		return ""
	}
	return fn(e)
}

func codeTable(table map[int64]string) func(core.RawTagEntry) string {
	return func(e core.RawTagEntry) string {
		v, ok := e.Number()
		if !ok {
			return ""
		}
		return table[int64(v)]
	}
}

var exposurePrograms = map[int64]string{
	0: "Not defined",
	1: "Manual",
	2: "Normal program",
	3: "Aperture priority",
	4: "Shutter priority",
	5: "Creative program",
	6: "Action program",
	7: "Portrait mode",
	8: "Landscape mode",
}

var meteringModes = map[int64]string{
	0:   "Unknown",
	1:   "Average",
	2:   "CenterWeightedAverage",
	3:   "Spot",
	4:   "MultiSpot",
	5:   "Pattern",
	6:   "Partial",
	255: "Other",
}

var whiteBalances = map[int64]string{
	0: "Auto white balance",
	1: "Manual white balance",
}

var exposureModes = map[int64]string{
	0: "Auto exposure",
	1: "Manual exposure",
	2: "Auto bracket",
}

var flashModes = map[int64]string{
	0x0:  "No Flash",
	0x1:  "Fired",
	0x5:  "Fired, Return not detected",
	0x7:  "Fired, Return detected",
	0x8:  "On, Did not fire",
	0x9:  "On, Fired",
	0xD:  "On, Return not detected",
	0xF:  "On, Return detected",
	0x10: "Off, Did not fire",
	0x14: "Off, Did not fire, Return not detected",
	0x18: "Auto, Did not fire",
	0x19: "Auto, Fired",
	0x1D: "Auto, Fired, Return not detected",
	0x1F: "Auto, Fired, Return detected",
	0x20: "No flash function",
	0x30: "Off, No flash function",
	0x41: "Fired, Red-eye reduction",
	0x45: "Fired, Red-eye reduction, Return not detected",
	0x47: "Fired, Red-eye reduction, Return detected",
	0x49: "On, Red-eye reduction",
	0x4D: "On, Red-eye reduction, Return not detected",
	0x4F: "On, Red-eye reduction, Return detected",
	0x50: "Off, Red-eye reduction",
	0x58: "Auto, Did not fire, Red-eye reduction",
	0x59: "Auto, Fired, Red-eye reduction",
	0x5D: "Auto, Fired, Red-eye reduction, Return not detected",
	0x5F: "Auto, Fired, Red-eye reduction, Return detected",
}

var nikonActiveDLighting = map[int64]string{
	0:      "Off",
	1:      "Low",
	3:      "Normal",
	5:      "High",
	7:      "Extra High",
	8:      "Extra High 1",
	9:      "Extra High 2",
	10:     "Extra High 3",
	11:     "Extra High 4",
	0xFFFF: "Auto",
}

var fujiWhiteBalances = map[int64]string{
	0x0:   "Auto",
	0x1:   "Auto (white priority)",
	0x2:   "Auto (ambiance priority)",
	0x100: "Daylight",
	0x200: "Cloudy",
	0x300: "Daylight Fluorescent",
	0x301: "Day White Fluorescent",
	0x302: "White Fluorescent",
	0x303: "Warm White Fluorescent",
	0x304: "Living Room Warm White Fluorescent",
	0x400: "Incandescent",
	0x500: "Flash",
	0x600: "Underwater",
	0xF00: "Custom",
	0xF01: "Custom2",
	0xF02: "Custom3",
	0xF03: "Custom4",
	0xF04: "Custom5",
	0xFF0: "Kelvin",
}

var fujiSaturations = map[int64]string{
	0x0:    "Normal",
	0x80:   "Medium High",
	0x100:  "High",
	0x180:  "Medium Low",
	0x200:  "Low",
	0x300:  "None (B&W)",
	0x301:  "B&W Red Filter",
	0x302:  "B&W Yellow Filter",
	0x303:  "B&W Green Filter",
	0x310:  "B&W Sepia",
	0x400:  "Low 2",
	0x500:  "Acros",
	0x501:  "Acros Red Filter",
	0x502:  "Acros Yellow Filter",
	0x503:  "Acros Green Filter",
	0x8000: "Film Simulation",
}

var fujiFilmModes = map[int64]string{
	0x0:   "F0/Standard (Provia)",
	0x100: "F1/Studio Portrait",
	0x110: "F1a/Studio Portrait Enhanced Saturation",
	0x120: "F1b/Studio Portrait Smooth Skin Tone (Astia)",
	0x130: "F1c/Studio Portrait Increased Sharpness",
	0x200: "F2/Fujichrome (Velvia)",
	0x300: "F3/Studio Portrait Ex",
	0x400: "F4/Velvia",
	0x500: "Pro Neg. Std",
	0x501: "Pro Neg. Hi",
	0x600: "Classic Chrome",
	0x700: "Eterna",
	0x800: "Classic Negative",
	0x900: "Bleach Bypass",
	0xA00: "Nostalgic Neg",
	0xB00: "Reala ACE",
}

var fujiDynamicRanges = map[int64]string{
	1: "Standard",
	3: "Wide",
}

var fujiDynamicRangeSettings = map[int64]string{
	0x0:    "Auto",
	0x1:    "Manual",
	0x100:  "Standard (100%)",
	0x200:  "Wide1 (230%)",
	0x201:  "Wide2 (400%)",
	0x8000: "Film Simulation",
}

func describeDevelopmentDynamicRange(e core.RawTagEntry) string {
	v, ok := e.Number()
	if !ok || v <= 0 {
		return ""
	}
	return "DR" + strconv.FormatInt(int64(v), 10)
}

func describeExposureBias(e core.RawTagEntry) string {
	if e.Kind != core.RationalValue || len(e.Rationals) == 0 || e.Rationals[0].Den == 0 {
		return ""
	}
	v := e.Rationals[0].Float()
	if math.Abs(v) < 0.005 {
		return "0 EV"
	}
	return fmt.Sprintf("%+.1f EV", v)
}

// describeLensSpecification renders the four LensSpecification rationals
// (min/max focal length, min/max F-number at those ends) the way lens
// makers print them, e.g. "16-55mm f/2.8" or "18-135mm f/3.5-5.6".
func describeLensSpecification(e core.RawTagEntry) string {
	if e.Kind != core.RationalValue || len(e.Rationals) < 4 {
		return ""
	}
	r := e.Rationals
	if r[0].Den == 0 || r[0].Num == 0 {
		return ""
	}
	focal := formatNumber(r[0].Float())
	if r[1].Den != 0 && r[1].Num != 0 && r[1].Float() != r[0].Float() {
		focal += "-" + formatNumber(r[1].Float())
	}
	out := focal + "mm"
	if r[2].Den == 0 || r[2].Num == 0 {
		return out
	}
	out += " f/" + formatNumber(r[2].Float())
	if r[3].Den != 0 && r[3].Num != 0 && r[3].Float() != r[2].Float() {
		out += "-" + formatNumber(r[3].Float())
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
