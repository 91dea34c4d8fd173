// pkg/imaging/imaging.go
package imaging

import (
	"net/http"
	"strings"
)

// MaxUploadSize is the upload cap: 10 MiB.
const MaxUploadSize = 10 * 1024 * 1024

// DetectContentType sniffs the MIME type from the payload itself, so a
// mislabeled multipart header cannot smuggle in a non-image.
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// IsImage reports whether the MIME type belongs to the image category.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// WithinSizeLimit reports whether a payload of the given size is
// accepted for upload.
func WithinSizeLimit(size int64) bool {
	return size > 0 && size <= MaxUploadSize
}
