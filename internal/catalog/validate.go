package catalog

import (
	"path/filepath"
	"strings"

	"github.com/code19m/errx"
)

// allowedTypes maps the accepted filename extensions to their MIME types.
var allowedTypes = map[string]string{
	".txt":  "text/plain",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".json": "application/json",
}

// ValidateUpload checks the filename extension and the declared size before
// any storage write. Pure; no side effects.
func ValidateUpload(filename string, declaredSize, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedTypes[ext]; !ok {
		return errx.New(
			"unsupported file type, allowed: .txt, .jpg, .png, .json",
			errx.WithCode(CodeUnsupportedType),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"filename": filename}),
		)
	}

	if declaredSize > maxSize {
		return errx.New(
			"file size exceeds maximum allowed size",
			errx.WithCode(CodeTooLarge),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"declared_size": declaredSize, "max_size": maxSize}),
		)
	}

	return nil
}

// contentTypeFor returns the MIME type for a validated filename.
func contentTypeFor(filename string) string {
	if ct, ok := allowedTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
