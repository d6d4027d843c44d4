// ABOUTME: Entry point for the filterstream server
// ABOUTME: Loads configuration, wires sources and sessions, serves until signalled
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Resonate-Protocol/filterstream/internal/config"
	"github.com/Resonate-Protocol/filterstream/internal/logging"
	"github.com/Resonate-Protocol/filterstream/internal/pipeline"
	"github.com/Resonate-Protocol/filterstream/internal/server"
	"github.com/Resonate-Protocol/filterstream/internal/session"
	"github.com/Resonate-Protocol/filterstream/internal/source"
	"github.com/Resonate-Protocol/filterstream/internal/version"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	// With the dashboard up, logs go to the file only
	logFile, err := logging.Configure(cfg.LogLevel, cfg.LogFile, !cfg.TUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(2)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	logrus.WithFields(logrus.Fields{
		"version":   version.Version,
		"name":      cfg.Name,
		"port":      cfg.Port,
		"media_dir": cfg.MediaDir,
	}).Infof("Starting %s", version.Product)

	opener, err := newOpener(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up sources")
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Name:       cfg.Name,
		EnableMDNS: cfg.EnableMDNS,
		Debug:      cfg.Debug,
		UseTUI:     cfg.TUI,
		Session: session.Config{
			ChunkFrames:  cfg.ChunkFrames,
			PollInterval: cfg.PollInterval,
			OpenTimeout:  cfg.RemoteTimeout,
			QueueDepth:   cfg.SendQueueDepth,
			Chain:        cfg.FilterChain,
			Settings: pipeline.Settings{
				Intensity:      pipeline.DefaultIntensity,
				Speed:          pipeline.DefaultSpeed,
				TransitionBand: cfg.TransitionBand,
			},
		},
	}, opener)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logrus.WithField("signal", sig.String()).Info("Shutting down gracefully")
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		logrus.WithError(err).Fatal("Server error")
	}

	logrus.Info("Server stopped")
}

// newOpener enables remote sources only when a search endpoint is configured
func newOpener(cfg *config.Config) (*source.Opener, error) {
	openerCfg := source.OpenerConfig{
		MediaDir:    cfg.MediaDir,
		ChunkFrames: cfg.ChunkFrames,
	}

	if cfg.SearchURL != "" {
		client := &http.Client{Timeout: cfg.RemoteTimeout}

		downloader, err := source.NewDownloader(cfg.DownloadDir, client, cfg.MaxDownload)
		if err != nil {
			return nil, err
		}
		openerCfg.Searcher = source.NewSearcher(cfg.SearchURL, client)
		openerCfg.Downloader = downloader
		openerCfg.AllowDirectURLs = cfg.AllowURLs

		logrus.WithFields(logrus.Fields{
			"search_url": cfg.SearchURL,
			"cache_dir":  downloader.Dir(),
			"max_bytes":  downloader.MaxBytes(),
			"direct_url": cfg.AllowURLs,
		}).Info("Remote sources enabled")
	}

	return source.NewOpener(openerCfg), nil
}
