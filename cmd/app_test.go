package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<DJ_PLAYLISTS Version="1.0.0">
  <PRODUCT Name="rekordbox" Version="6.8.5" Company="AlphaTheta"/>
  <COLLECTION Entries="2">
    <TRACK TrackID="1" Name="Strobe" Artist="deadmau5" Genre="Progressive House" TotalTime="637" AverageBpm="128.00" PlayCount="42" Rating="255" Tonality="Abm"/>
    <TRACK TrackID="2" Name="Opus" Artist="Eric Prydz" Genre="Techno" TotalTime="543" AverageBpm="126.00" PlayCount="17" Location="file://localhost/nowhere/opus.mp3"/>
  </COLLECTION>
</DJ_PLAYLISTS>`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"rekordbox-analyzer"}, args...))
	return out.String(), err
}

func TestSummaryCommand(t *testing.T) {
	t.Parallel()

	path := writeSample(t)

	out, err := run(t, "summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported by:       rekordbox 6.8.5")
	assert.Contains(t, out, "Tracks:            2")
	assert.Contains(t, out, "Plays:             59")
	assert.Contains(t, out, "  1. Strobe - deadmau5 (42 plays)")

	out, err = run(t, "summary", "--json", path)
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))
	assert.Equal(t, int64(2), gjson.Get(out, "overview.total_tracks").Int())
	assert.InDelta(t, 127.0, gjson.Get(out, "bpm.mean").Float(), 0.0001)
}

func TestSummaryCommand_Errors(t *testing.T) {
	t.Parallel()

	_, err := run(t, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly one collection file")

	bad := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<DJ_PLAYLISTS>"), 0o644))
	_, err = run(t, "summary", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestExportCommand(t *testing.T) {
	t.Parallel()

	path := writeSample(t)
	output := filepath.Join(t.TempDir(), "tracks.ndjson")

	_, err := run(t, "export", "--format", "ndjson", "--output", output, path)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Opus", gjson.Get(lines[1], "name").String())

	out, err := run(t, "export", "-f", "csv", "-o", "-", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "track_id,name,artist,"))

	_, err = run(t, "export", "--format", "xlsx", path)
	assert.Error(t, err)
}

func TestAuditCommand(t *testing.T) {
	t.Parallel()

	path := writeSample(t)

	out, err := run(t, "audit", "--json", "--workers", "2", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "missing_location", gjson.Get(lines[0], "kind").String())
	assert.Equal(t, "missing_file", gjson.Get(lines[1], "kind").String())
	assert.Equal(t, "Opus", gjson.Get(lines[1], "name").String())

	out, err = run(t, "audit", path)
	require.NoError(t, err)
	assert.Contains(t, out, "--- Audit Summary ---")
	assert.Contains(t, out, "missing_file:      1")
}
