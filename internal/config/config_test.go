package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/filterstream/internal/pipeline"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ".", cfg.MediaDir)
	assert.Equal(t, 1024, cfg.ChunkFrames)
	assert.Equal(t, 60*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 8, cfg.SendQueueDepth)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 0.05, cfg.TransitionBand)
	assert.Equal(t, pipeline.DefaultChain, cfg.FilterChain)
	assert.True(t, cfg.EnableMDNS)
	assert.NotEmpty(t, cfg.Name)
	assert.Equal(t, int64(256<<20), cfg.MaxDownload)
	assert.False(t, cfg.AllowURLs)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--port", "9000",
		"--chunk-frames=2048",
		"--filter-chain", "speed,lowpass",
		"--enable-mdns=false",
		"--remote-timeout", "5s",
		"--max-download-bytes", "1048576",
		"--allow-direct-urls",
		"--debug",
	})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2048, cfg.ChunkFrames)
	assert.Equal(t, []pipeline.Stage{pipeline.StageSpeed, pipeline.StageLowpass}, cfg.FilterChain)
	assert.False(t, cfg.EnableMDNS)
	assert.Equal(t, 5*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxDownload)
	assert.True(t, cfg.AllowURLs)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("FILTERSTREAM_CHUNK_FRAMES", "512")
	t.Setenv("FILTERSTREAM_MEDIA_DIR", "/music")
	t.Setenv("PORT", "8080")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.ChunkFrames)
	assert.Equal(t, "/music", cfg.MediaDir)
	assert.Equal(t, 8080, cfg.Port)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FILTERSTREAM_CHUNK_FRAMES", "512")

	cfg, err := Load([]string{"--chunk-frames", "256"})
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.ChunkFrames)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filterstream.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: living-room
search_url: http://index.local/search
send_queue_depth: 3
filter_chain: [lowpass]
`), 0o644))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "living-room", cfg.Name)
	assert.Equal(t, "http://index.local/search", cfg.SearchURL)
	assert.Equal(t, 3, cfg.SendQueueDepth)
	assert.Equal(t, []pipeline.Stage{pipeline.StageLowpass}, cfg.FilterChain)
}

func TestLoadMissingConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := [][]string{
		{"--chunk-frames", "0"},
		{"--send-queue-depth", "-1"},
		{"--transition-band", "0"},
		{"--transition-band", "1.5"},
		{"--port", "70000"},
		{"--filter-chain", "lowpass,echo"},
		{"--log-level", "loud"},
		{"--no-such-flag"},
	}

	for _, args := range tests {
		_, err := Load(args)
		assert.Error(t, err, "%v", args)
	}
}
