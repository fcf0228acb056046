// Package protocol defines the JSON messages of the yaesud HTTP API,
// shared between the daemon handlers and the remote client.
package protocol

import (
	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/storage"
)

// Status is the daemon status report.
type Status struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Model   string  `json:"model"`
	Device  string  `json:"device"`
	Uptime  float64 `json:"uptime"`
	Busy    bool    `json:"busy"`
}

// CloneRequest starts a download. An empty model falls back to the
// daemon's configured model.
type CloneRequest struct {
	Model string `json:"model"`
}

// UploadRequest sends a stored session image back to a radio.
type UploadRequest struct {
	SessionID int64 `json:"session_id" binding:"required"`
}

// CloneStarted acknowledges an accepted transfer request.
type CloneStarted struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Direction string `json:"direction"`
	Session   int64  `json:"session,omitempty"`
}

// SessionList is a page of recorded clone sessions.
type SessionList struct {
	Sessions []storage.Session `json:"sessions"`
	Count    int               `json:"count"`
}

// ChannelList is the decoded channel table of one session image.
type ChannelList struct {
	Model    string              `json:"model"`
	Channels []codec.ChannelInfo `json:"channels"`
	Count    int                 `json:"count"`
}

// Progress is one websocket transfer update. Type is "progress",
// "done" or "error".
type Progress struct {
	Type        string `json:"type"`
	Model       string `json:"model"`
	Direction   string `json:"direction"`
	Transferred int    `json:"transferred"`
	Total       int    `json:"total"`
	Error       string `json:"error,omitempty"`
}

// ErrorResponse carries an error message on non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
