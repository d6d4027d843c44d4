// ABOUTME: Stream control message type definitions
// ABOUTME: Defines the JSON requests clients send and the status replies the server returns
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Commands accepted in a request's commands array
const (
	CommandGet          = "GET"
	CommandNext         = "NEXT"
	CommandStop         = "STOP"
	CommandStream       = "STREAM"
	CommandUpdateSpeed  = "UPDATE_SPEED"
	CommandUpdateFilter = "UPDATE_FILTER"
)

// CommandEOF is the status sent when the loaded source is exhausted
const CommandEOF = "EOF"

// ErrMissingValue is returned when an UPDATE command carries no value
var ErrMissingValue = errors.New("missing value")

// Request is one inbound text frame. Source selects how Query is resolved;
// older clients put a bare file name in Source and leave Query empty.
type Request struct {
	Source   string          `json:"source,omitempty"`
	Query    string          `json:"q,omitempty"`
	Commands []string        `json:"commands,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// ParseRequest decodes a text frame. Command names are upper-cased.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("invalid request: %w", err)
	}
	for i, cmd := range req.Commands {
		req.Commands[i] = strings.ToUpper(strings.TrimSpace(cmd))
	}
	return req, nil
}

// IntValue returns Value as an integer. Numeric strings are accepted.
func (r Request) IntValue() (int, error) {
	if len(r.Value) == 0 || string(r.Value) == "null" {
		return 0, ErrMissingValue
	}

	var n int
	if err := json.Unmarshal(r.Value, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(r.Value, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("value %s is not an integer", r.Value)
}

// Duration is a track length split into clock fields
type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// DurationFromFrames converts a frame count to whole seconds at rate
func DurationFromFrames(frames int64, rate int) Duration {
	if rate <= 0 || frames <= 0 {
		return Duration{}
	}
	total := frames / int64(rate)
	return Duration{
		Hours:   int(total / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// FormatInfo describes the loaded source
type FormatInfo struct {
	Title       string `json:"title,omitempty"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	SampleWidth int    `json:"sample_width"`
	Frames      int64  `json:"frames"`
	Position    int64  `json:"position"`
}

// GetResponse answers a GET command
type GetResponse struct {
	Command  string      `json:"command"`
	Duration Duration    `json:"duration"`
	Format   *FormatInfo `json:"format,omitempty"`
	Speed    int         `json:"speed"`
	Filter   int         `json:"filter"`
}

// Status is a short server notification such as end of stream
type Status struct {
	Command string `json:"command"`
	Message string `json:"message,omitempty"`
}
