package storage

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrNotImage is returned for uploads whose content does not decode as a supported image.
var ErrNotImage = errors.New("upload a valid image. The file you uploaded was either not an image or a corrupted image")

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
}

// DetectImage checks that data starts with a decodable image header and returns the file
// extension matching its format.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotImage
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrNotImage
	}
	ext, ok := extensions[format]
	if !ok {
		return "", ErrNotImage
	}
	return ext, nil
}
