package models

import "time"

// MaxImageBytes is the largest image accepted for upload
const MaxImageBytes int64 = 5 << 20

// imageExtensions maps accepted upload content types to object key extensions
var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageExtension returns the file extension for an accepted image content type
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

// ImageUpload is a presigned request a client uses to upload one recipe image.
// ImageURL is the reference to store in Recipe.Images once the upload succeeds.
type ImageUpload struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	ImageURL  string            `json:"image_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}
