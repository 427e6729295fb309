package transcription

import (
	"mime"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest audio payload accepted (25 MB).
const MaxUploadBytes = 25 << 20

// allowedMIMETypes maps accepted audio content types to a file extension.
var allowedMIMETypes = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".mp4",
	"audio/m4a":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
}

// IsAllowedMIMEType reports whether contentType is an accepted audio type.
// Parameters such as "; codecs=opus" are ignored.
func IsAllowedMIMEType(contentType string) bool {
	_, ok := allowedMIMETypes[baseMIMEType(contentType)]
	return ok
}

// Extension returns the file extension to use for an upload, preferring the
// extension of filename and falling back to one derived from contentType.
func Extension(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	if ext, ok := allowedMIMETypes[baseMIMEType(contentType)]; ok {
		return ext
	}
	return ".m4a"
}

func baseMIMEType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
