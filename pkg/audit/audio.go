package audit

import (
	"path/filepath"
	"strings"
)

// IsAudioFile reports whether the filename has a supported audio extension.
func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".mp4":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
	".aac":  true,
	".dsf":  true,
	".aiff": true,
	".aif":  true,
	".alac": true,
	".ape":  true,
	".wv":   true,
	".mpc":  true,
}
