// ABOUTME: Process-wide logger configuration
// ABOUTME: Sets logrus level, formatter and output from a level name and optional file
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// LevelNone disables logging entirely
const LevelNone = "none"

// Configure sets up the standard logrus logger. An empty file logs to stdout
// only; with a file, stdout is added when alsoStdout is set. The returned file,
// if any, must be closed by the caller.
func Configure(level, file string, alsoStdout bool) (*os.File, error) {
	if level == LevelNone {
		logrus.SetOutput(io.Discard)
		logrus.SetLevel(logrus.PanicLevel)
		return nil, nil
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("unexpected log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)

	if file == "" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if alsoStdout {
			logrus.SetOutput(os.Stdout)
		} else {
			logrus.SetOutput(io.Discard)
		}
		return nil, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	if alsoStdout {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetOutput(f)
	}
	return f, nil
}
