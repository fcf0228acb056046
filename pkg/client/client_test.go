package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dougsko/yaesutool/pkg/protocol"
	"github.com/dougsko/yaesutool/pkg/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(protocol.Status{
			Status: "running", Version: "0.1.0-dev", Device: "/dev/ttyUSB0",
		})
	})
	mux.HandleFunc("/api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(protocol.SessionList{
			Sessions: []storage.Session{{ID: 7, Model: "ft-60", Direction: "download"}},
			Count:    1,
		})
	})
	mux.HandleFunc("/api/v1/sessions/7/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Radio: Yaesu FT-60R\n"))
	})
	mux.HandleFunc("/api/v1/image/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("model") != "ft-60" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "no downloaded image"})
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x41, 0x48, 0x30, 0x31, 0x37, 0x24})
	})
	mux.HandleFunc("/api/v1/clone/download", func(w http.ResponseWriter, r *http.Request) {
		var req protocol.CloneRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(protocol.CloneStarted{
			Status: "started", Model: req.Model, Direction: "download",
		})
	})
	mux.HandleFunc("/api/v1/clone/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "a transfer is already running"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, New(server.URL)
}

func TestClient(t *testing.T) {
	_, c := newTestServer(t)

	t.Run("Status", func(t *testing.T) {
		status, err := c.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, "running", status.Status)
		assert.Equal(t, "/dev/ttyUSB0", status.Device)
	})

	t.Run("Sessions", func(t *testing.T) {
		sessions, err := c.GetSessions(50)
		require.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, int64(7), sessions[0].ID)
		assert.Equal(t, "ft-60", sessions[0].Model)
	})

	t.Run("Session Config", func(t *testing.T) {
		text, err := c.GetSessionConfig(7, false)
		require.NoError(t, err)
		assert.Contains(t, text, "Radio: Yaesu FT-60R")
	})

	t.Run("Latest Image", func(t *testing.T) {
		image, err := c.GetLatestImage("ft-60")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x41, 0x48, 0x30, 0x31, 0x37, 0x24}, image)

		_, err = c.GetLatestImage("vx-2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no downloaded image")
	})

	t.Run("Start Download", func(t *testing.T) {
		started, err := c.StartDownload("vx-2")
		require.NoError(t, err)
		assert.Equal(t, "started", started.Status)
		assert.Equal(t, "vx-2", started.Model)
	})

	t.Run("Daemon Error", func(t *testing.T) {
		_, err := c.StartUpload(7)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a transfer is already running")
	})

	t.Run("Unreachable Daemon", func(t *testing.T) {
		dead := New("http://127.0.0.1:1")
		_, err := dead.GetStatus()
		assert.Error(t, err)
	})
}
