package constants

import "strings"

// AllowedImageMIMEs holds the upload MIME types the pipeline accepts.
var AllowedImageMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/tiff": {},
}

// NormalizeMIME lowercases and strips any parameters from a Content-Type value.
func NormalizeMIME(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// IsAllowedImageMIME reports whether the (normalized) MIME type is accepted.
func IsAllowedImageMIME(mt string) bool {
	_, ok := AllowedImageMIMEs[NormalizeMIME(mt)]
	return ok
}
