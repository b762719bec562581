package audio

import (
	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/kbukum/standin/errors"
)

// accepted lists the upload encodings providers can take. mimetype's Is
// also matches aliases such as audio/x-wav.
var accepted = []string{
	"audio/wav",
	"audio/mpeg",
	"audio/ogg",
	"audio/flac",
	"audio/webm",
	"video/webm",
	"audio/x-m4a",
	"audio/mp4",
}

// Detected is the sniffed encoding of an upload.
type Detected struct {
	MediaType string
	Extension string
}

// Detect sniffs data and rejects empty or unsupported audio before any
// provider is called.
func Detect(data []byte) (Detected, error) {
	if len(data) == 0 {
		return Detected{}, apperrors.Malformed("audio payload is empty")
	}
	mt := mimetype.Detect(data)
	for _, want := range accepted {
		if mt.Is(want) {
			return Detected{MediaType: want, Extension: mt.Extension()}, nil
		}
	}
	return Detected{}, apperrors.UnsupportedEncoding(mt.String())
}
