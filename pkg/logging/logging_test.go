package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, ParseLevel(test.in), test.in)
	}
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "json", "info")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("file", "collection.xml").Int("tracks", 3).Msg("parsed")

	line := strings.TrimSpace(buf.String())
	require.True(t, gjson.Valid(line), line)
	assert.Equal(t, "info", gjson.Get(line, "level").String())
	assert.Equal(t, "parsed", gjson.Get(line, "message").String())
	assert.Equal(t, "collection.xml", gjson.Get(line, "file").String())
	assert.Equal(t, int64(3), gjson.Get(line, "tracks").Int())
	assert.True(t, gjson.Get(line, "time").Exists())
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_Pretty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "pretty", "debug")
	require.NoError(t, err)

	logger.Debug().Str("id", "abc").Msg("stored")

	out := buf.String()
	assert.Contains(t, out, "stored")
	assert.Contains(t, out, "abc")
	assert.Greater(t, strings.Count(out, "\n"), 1)
}

func TestNew_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "console", "warn")
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := New(&bytes.Buffer{}, "xml", "info")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")
}
