package audio

import (
	"path/filepath"
	"strings"
)

// Format is the declared container format of an uploaded file. The set is
// closed: every input the system accepts is routed by one of these values.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatMP4  Format = "mp4"
	FormatM4A  Format = "m4a"
	FormatMP3  Format = "mp3"
	FormatAAC  Format = "aac"
	FormatOGG  Format = "ogg"
	FormatJSON Format = "json"
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

// FormatFromExt maps a filename extension to a Format.
func FormatFromExt(name string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch Format(ext) {
	case FormatWAV, FormatMP4, FormatM4A, FormatMP3, FormatAAC, FormatOGG,
		FormatJSON, FormatDocx, FormatPDF:
		return Format(ext), true
	}
	return "", false
}

// IsAudio reports whether the format carries audio the normalizer handles.
func (f Format) IsAudio() bool {
	switch f {
	case FormatWAV, FormatMP4, FormatM4A, FormatMP3, FormatAAC, FormatOGG:
		return true
	}
	return false
}
