// ABOUTME: Tests for WebSocket client implementation
// ABOUTME: Runs the client against a real server over httptest
package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/filterstream/internal/protocol"
	"github.com/Resonate-Protocol/filterstream/internal/server"
	"github.com/Resonate-Protocol/filterstream/internal/session"
	"github.com/Resonate-Protocol/filterstream/internal/source"
	"github.com/Resonate-Protocol/filterstream/internal/wavtest"
	"github.com/Resonate-Protocol/filterstream/pkg/audio"
)

var stereo8k = audio.Format{SampleRate: 8000, Channels: 2, SampleWidth: 2}

func startServer(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	wavtest.Write(t, dir, "example.wav", stereo8k, wavtest.Ramp(8000, 2))

	srv := server.New(server.Config{
		Name:    "client-test",
		Session: session.Config{ChunkFrames: 2000},
	}, source.NewOpener(source.OpenerConfig{MediaDir: dir}))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + server.StreamPath
}

func connect(t *testing.T, url string) *Client {
	t.Helper()

	c := NewClient(Config{URL: url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(c.Close)
	return c
}

func TestClientStreamsToEOF(t *testing.T) {
	c := connect(t, startServer(t))

	require.NoError(t, c.Load("file", "example.wav", protocol.CommandGet, protocol.CommandStream))

	select {
	case info := <-c.Info:
		assert.Equal(t, protocol.Duration{Seconds: 1}, info.Duration)
		require.NotNil(t, info.Format)
		assert.Equal(t, "example", info.Format.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("no GET reply")
	}

	frames := 0
	timeout := time.After(5 * time.Second)
	for frames < 8000 {
		select {
		case chunk := <-c.Chunks:
			assert.Equal(t, stereo8k, chunk.Header.Format)
			frames += len(chunk.PCM) / stereo8k.BlockAlign()
		case <-timeout:
			t.Fatalf("received only %d frames", frames)
		}
	}
	assert.Equal(t, 8000, frames)

	select {
	case <-c.EOF():
	case <-time.After(5 * time.Second):
		t.Fatal("no end of stream")
	}
}

func TestClientUpdateAndStop(t *testing.T) {
	c := connect(t, startServer(t))

	require.NoError(t, c.Update(protocol.CommandUpdateSpeed, 200))
	require.NoError(t, c.Load("file", "example.wav", protocol.CommandNext, protocol.CommandGet))

	select {
	case chunk := <-c.Chunks:
		assert.Len(t, chunk.PCM, 1000*stereo8k.BlockAlign())
	case <-time.After(5 * time.Second):
		t.Fatal("no chunk")
	}

	select {
	case info := <-c.Info:
		assert.Equal(t, 200, info.Speed)
	case <-time.After(5 * time.Second):
		t.Fatal("no GET reply")
	}

	require.NoError(t, c.Stop())
	require.NoError(t, c.Command(protocol.CommandGet))
	select {
	case info := <-c.Info:
		assert.Nil(t, info.Format)
	case <-time.After(5 * time.Second):
		t.Fatal("no GET reply after STOP")
	}
}

func TestClientSendBeforeConnect(t *testing.T) {
	c := NewClient(Config{URL: "ws://127.0.0.1:1/stream"})
	assert.Error(t, c.Stop())
	assert.False(t, c.IsConnected())
}
