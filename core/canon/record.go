// Package canon maps a decoded tag dictionary onto the fixed set of shooting
// parameters consumers display and send on the wire.
package canon

import "strconv"

// Sentinels. The JSON values are part of the wire contract.
const (
	UnknownText    = "不明"
	UnknownNumber  = 0
	AnalysisFailed = "解析失敗"
)

// CanonicalPhotoMetadata is the UI-ready record of one photo. Every field is
// always populated, with a sentinel when nothing could be resolved.
type CanonicalPhotoMetadata struct {
	CameraName   string `json:"cameraName"`
	LensName     string `json:"lensName"`
	ISO          int    `json:"iso"`
	Aperture     string `json:"aperture"`
	ShutterSpeed string `json:"shutterSpeed"`
	FocalLength  string `json:"focalLength"`
	WhiteBalance string `json:"whiteBalance"`
	Mode         string `json:"mode"`

	FilmSimulation   string `json:"filmSimulation"`
	DynamicRange     string `json:"dynamicRange"`
	FocalLength35mm  string `json:"focalLength35mm"`
	ExposureProgram  string `json:"exposureProgram"`
	Flash            string `json:"flash"`
	MeteringMode     string `json:"meteringMode"`
	ExposureBias     string `json:"exposureBias"`
	DateTimeOriginal string `json:"dateTimeOriginal"`
}

// Unknown returns a record with every field set to its sentinel.
func Unknown() CanonicalPhotoMetadata {
	var m CanonicalPhotoMetadata
	for _, f := range Fields {
		f.setMissing(&m)
	}
	return m
}

// Fallback is the record shown when analysis failed outright.
func Fallback() CanonicalPhotoMetadata {
	m := Unknown()
	m.CameraName = AnalysisFailed
	return m
}

// Value returns the field called name (its JSON name) rendered as text.
func (m CanonicalPhotoMetadata) Value(name string) (string, bool) {
	f, ok := Lookup(name)
	if !ok {
		return "", false
	}
	if f.Kind == ISOKind {
		return strconv.Itoa(*f.number(&m)), true
	}
	return *f.text(&m), true
}
