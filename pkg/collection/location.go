package collection

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrNoLocation is returned by FilePath for tracks without a Location attribute.
var ErrNoLocation = errors.New("track has no location")

// FilePath decodes the track's file URI into a local filesystem path.
// Rekordbox writes locations as file://localhost/<path>, percent-encoded,
// with Windows paths carrying the drive letter as the first segment.
func (t Track) FilePath() (string, error) {
	if t.Location == "" {
		return "", ErrNoLocation
	}

	u, err := url.Parse(t.Location)
	if err != nil {
		return "", fmt.Errorf("parsing location %q: %w", t.Location, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("location on remote host %q", u.Host)
	}

	p := u.Path
	if isWindowsDrivePath(p) {
		p = p[1:]
	}
	if p == "" {
		return "", fmt.Errorf("location %q has an empty path", t.Location)
	}

	return filepath.FromSlash(p), nil
}

// isWindowsDrivePath reports whether p looks like "/C:/...".
func isWindowsDrivePath(p string) bool {
	if len(p) < 3 || p[0] != '/' || p[2] != ':' {
		return false
	}
	c := p[1]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Extension returns the lower-cased file extension of the track's location.
func (t Track) Extension() string {
	return strings.ToLower(filepath.Ext(t.Location))
}
