// ABOUTME: Entry point for the filterstream player
// ABOUTME: Finds a server, requests a filtered stream and plays it locally
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/filterstream/internal/client"
	"github.com/Resonate-Protocol/filterstream/internal/discovery"
	"github.com/Resonate-Protocol/filterstream/internal/logging"
	"github.com/Resonate-Protocol/filterstream/internal/pipeline"
	"github.com/Resonate-Protocol/filterstream/internal/protocol"
	"github.com/Resonate-Protocol/filterstream/internal/ui"
	"github.com/Resonate-Protocol/filterstream/internal/version"
	"github.com/Resonate-Protocol/filterstream/pkg/audio/output"
)

var (
	serverAddr  = flag.String("server", "", "Server address or ws:// URL (default: discover over mDNS)")
	kind        = flag.String("source", "file", "Source kind: file or remote")
	query       = flag.String("q", "", "File name or search query")
	speed       = flag.Int("speed", pipeline.DefaultSpeed, "Playback speed in percent")
	filter      = flag.Int("filter", pipeline.DefaultIntensity, "Low-pass intensity (1-99)")
	volume      = flag.Int("volume", 100, "Output volume (0-100)")
	logLevel    = flag.String("log-level", "info", "Log level: none, error, warn, info, debug")
	logFile     = flag.String("log-file", "", "Log file path (default: stdout)")
	discoverFor = flag.Duration("discover-timeout", 10*time.Second, "How long to wait for mDNS discovery")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	// TUI mode logs only to the file, if any
	f, err := logging.Configure(*logLevel, *logFile, !useTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(2)
	}
	if f != nil {
		defer f.Close()
	}

	if *query == "" {
		fmt.Fprintln(os.Stderr, "nothing to play: pass -q with a file name, search query or tone frequency")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	url, err := resolveServer(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("No server")
	}

	c := client.NewClient(client.Config{URL: url})
	if err := c.Connect(ctx); err != nil {
		logrus.WithError(err).Fatal("Connection failed")
	}
	defer c.Close()

	if err := request(c); err != nil {
		logrus.WithError(err).Fatal("Request failed")
	}

	out := output.NewOto()
	out.SetVolume(*volume)
	defer out.Close()

	var controls *ui.Controls
	updateTUI := func(ui.StatusMsg) {}
	if useTUI {
		controls = ui.NewControls()
		prog := ui.Run(controls)
		tuiDone := make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := prog.Run(); err != nil {
				logrus.WithError(err).Error("TUI exited with error")
			}
		}()
		defer func() {
			prog.Quit()
			<-tuiDone
		}()
		updateTUI = func(msg ui.StatusMsg) { prog.Send(msg) }

		connected := true
		updateTUI(ui.StatusMsg{Connected: &connected, ServerName: url, State: "streaming"})
		go handleControls(c, out, controls, updateTUI)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		play(c, out, updateTUI)
	}()

	var quit <-chan struct{}
	if controls != nil {
		quit = controls.Quit
	}

	select {
	case <-c.EOF():
		// Closing ends the reader, which closes Chunks once the buffered
		// frames are consumed
		c.Close()
		<-done
		logrus.Info("Playback finished")
	case <-done:
		logrus.Info("Connection closed by server")
	case <-quit:
		logrus.Info("Received quit signal from TUI")
		stop(c)
	case <-ctx.Done():
		logrus.Info("Shutdown signal received")
		stop(c)
	}
}

func stop(c *client.Client) {
	if err := c.Stop(); err != nil {
		logrus.WithError(err).Debug("Failed to send STOP")
	}
}

// resolveServer turns -server into a websocket URL, browsing mDNS when unset
func resolveServer(ctx context.Context) (string, error) {
	if *serverAddr != "" {
		if strings.HasPrefix(*serverAddr, "ws://") || strings.HasPrefix(*serverAddr, "wss://") {
			return *serverAddr, nil
		}
		return "ws://" + *serverAddr + discovery.DefaultPath, nil
	}

	logrus.Info("Starting server discovery...")
	disc := discovery.NewManager(discovery.Config{})
	defer disc.Stop()

	discoverCtx, cancel := context.WithTimeout(ctx, *discoverFor)
	defer cancel()

	server, err := disc.Discover(discoverCtx)
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{
		"name": server.Name,
		"url":  server.URL(),
	}).Info("Discovered server")
	return server.URL(), nil
}

// request loads the source, applies settings, then switches to push mode
func request(c *client.Client) error {
	if err := c.Load(*kind, *query, protocol.CommandGet); err != nil {
		return err
	}
	if *speed != pipeline.DefaultSpeed {
		if err := c.Update(protocol.CommandUpdateSpeed, *speed); err != nil {
			return err
		}
	}
	if *filter != pipeline.DefaultIntensity {
		if err := c.Update(protocol.CommandUpdateFilter, *filter); err != nil {
			return err
		}
	}
	return c.Command(protocol.CommandStream)
}

// play writes chunks to the device until the client closes Chunks
func play(c *client.Client, out *output.Oto, updateTUI func(ui.StatusMsg)) {
	opened := false
	var chunks, frames int64
	for {
		select {
		case info := <-c.Info:
			duration := fmt.Sprintf("%02d:%02d:%02d", info.Duration.Hours, info.Duration.Minutes, info.Duration.Seconds)
			logrus.WithFields(logrus.Fields{
				"duration": duration,
				"speed":    info.Speed,
				"filter":   info.Filter,
			}).Info("Track loaded")

			status := ui.StatusMsg{Duration: duration, Speed: info.Speed, Intensity: info.Filter}
			if info.Format != nil {
				status.Title = info.Format.Title
			}
			updateTUI(status)

		case chunk, ok := <-c.Chunks:
			if !ok {
				return
			}
			format := chunk.Header.Format
			if !opened {
				if err := out.Open(format); err != nil {
					logrus.WithError(err).Error("Failed to open audio output")
					return
				}
				opened = true
				updateTUI(ui.StatusMsg{
					SampleRate: format.SampleRate,
					Channels:   format.Channels,
					BitDepth:   format.BitDepth(),
				})
			}
			if err := out.Write(chunk.PCM); err != nil {
				logrus.WithError(err).Error("Audio write failed")
				return
			}

			chunks++
			frames += int64(len(chunk.PCM) / format.BlockAlign())
			updateTUI(ui.StatusMsg{Chunks: chunks, Frames: frames})
		}
	}
}

// handleControls applies key presses from the TUI
func handleControls(c *client.Client, out *output.Oto, controls *ui.Controls, updateTUI func(ui.StatusMsg)) {
	for msg := range controls.Changes {
		var err error
		switch msg.Kind {
		case ui.ControlVolume:
			out.SetVolume(msg.Value)
		case ui.ControlMute:
			out.SetMuted(msg.Muted)
		case ui.ControlSpeed:
			err = c.Update(protocol.CommandUpdateSpeed, msg.Value)
			updateTUI(ui.StatusMsg{Speed: msg.Value})
		case ui.ControlFilter:
			err = c.Update(protocol.CommandUpdateFilter, msg.Value)
			updateTUI(ui.StatusMsg{Intensity: msg.Value})
		}
		if err != nil {
			logrus.WithError(err).Warn("Failed to send setting")
		}
	}
}
