package linkedin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Image is a local file that passed the format and size checks.
type Image struct {
	Path        string
	Size        int64
	ContentType string
}

// InspectImage validates an image file without touching the network.
// The extension is checked before the file is stat'ed.
func InspectImage(path string) (Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return Image{}, UnsupportedFormatError{Extension: ext}
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Image{}, fmt.Errorf("image not found: %s", path)
		}
		return Image{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return Image{}, fmt.Errorf("image path is a directory: %s", path)
	}
	if info.Size() > MaxImageSize {
		return Image{}, ImageTooLargeError{Size: info.Size(), Limit: MaxImageSize}
	}

	return Image{Path: path, Size: info.Size(), ContentType: contentType}, nil
}
