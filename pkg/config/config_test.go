package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *string
		check   func(t *testing.T, cfg Config)
		wantErr string
	}{
		{
			name: "file does not exist",
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name:    "empty file",
			content: ptr(""),
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "partial overrides keep other defaults",
			content: ptr(`
server:
  listen: "127.0.0.1:9000"
  shutdown_timeout: 3s
sessions:
  ttl: 30m
report:
  top_tracks: 10
log:
  format: json
`),
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
				assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, int64(200<<20), cfg.Server.MaxUploadBytes)
				assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
				assert.Equal(t, 64, cfg.Sessions.MaxEntries)
				assert.Equal(t, 10, cfg.Report.TopTracks)
				assert.Equal(t, 50, cfg.Report.BPMBins)
				assert.Equal(t, "json", cfg.Log.Format)
				assert.Equal(t, "info", cfg.Log.Level)
			},
		},
		{
			name:    "invalid YAML",
			content: ptr("server: [oops"),
			wantErr: "parsing config file",
		},
		{
			name:    "unknown key",
			content: ptr("server:\n  port: 80\n"),
			wantErr: "parsing config file",
		},
		{
			name:    "bad duration",
			content: ptr("sessions:\n  ttl: soon\n"),
			wantErr: "parsing config file",
		},
		{
			name:    "zero workers",
			content: ptr("audit:\n  workers: 0\n"),
			wantErr: "audit.workers",
		},
		{
			name:    "unknown log format",
			content: ptr("log:\n  format: xml\n"),
			wantErr: "log.format",
		},
		{
			name:    "non-positive upload cap",
			content: ptr("server:\n  max_upload_bytes: 0\n"),
			wantErr: "server.max_upload_bytes",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")
			if test.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*test.content), 0o600))
			}

			cfg, err := loadFrom(path)

			if test.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.wantErr)
				return
			}

			require.NoError(t, err)
			test.check(t, cfg)
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func ptr[T any](v T) *T { return &v }
