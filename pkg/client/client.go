// Package client is a thin HTTP client for the yaesud API, used by the
// remote subcommand of yaesutool.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dougsko/yaesutool/pkg/protocol"
	"github.com/dougsko/yaesutool/pkg/storage"
)

// Client talks to one yaesud instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for a daemon base URL such as
// http://localhost:8080.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr protocol.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func (c *Client) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// GetStatus gets the current daemon status
func (c *Client) GetStatus() (*protocol.Status, error) {
	var status protocol.Status
	if err := c.get("/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetSessions lists recorded clone sessions, newest first.
func (c *Client) GetSessions(limit int) ([]storage.Session, error) {
	var list protocol.SessionList
	path := fmt.Sprintf("/api/v1/sessions?limit=%d", limit)
	if err := c.get(path, &list); err != nil {
		return nil, err
	}
	return list.Sessions, nil
}

// GetStats gets the history store statistics
func (c *Client) GetStats() (*storage.SessionStats, error) {
	var stats storage.SessionStats
	if err := c.get("/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// getRaw fetches a non-JSON response body.
func (c *Client) getRaw(path string) ([]byte, error) {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("daemon request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr protocol.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("daemon: %s", resp.Status)
	}
	return body, nil
}

// GetSessionConfig fetches a stored image rendered as a text
// configuration.
func (c *Client) GetSessionConfig(id int64, verbose bool) (string, error) {
	body, err := c.getRaw(fmt.Sprintf("/api/v1/sessions/%d/config?verbose=%v", id, verbose))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetLatestImage fetches the most recent downloaded image for a model.
// An empty model uses the daemon's configured one.
func (c *Client) GetLatestImage(model string) ([]byte, error) {
	path := "/api/v1/image/latest"
	if model != "" {
		path += "?model=" + url.QueryEscape(model)
	}
	return c.getRaw(path)
}

// GetChannels fetches the decoded channel table of a stored session.
func (c *Client) GetChannels(id int64) (*protocol.ChannelList, error) {
	var list protocol.ChannelList
	path := fmt.Sprintf("/api/v1/sessions/%d/channels", id)
	if err := c.get(path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// StartDownload asks the daemon to read a radio into a new session.
func (c *Client) StartDownload(model string) (*protocol.CloneStarted, error) {
	var started protocol.CloneStarted
	err := c.post("/api/v1/clone/download", protocol.CloneRequest{Model: model}, &started)
	if err != nil {
		return nil, err
	}
	return &started, nil
}

// StartUpload asks the daemon to send a stored session image to the
// radio.
func (c *Client) StartUpload(sessionID int64) (*protocol.CloneStarted, error) {
	var started protocol.CloneStarted
	err := c.post("/api/v1/clone/upload", protocol.UploadRequest{SessionID: sessionID}, &started)
	if err != nil {
		return nil, err
	}
	return &started, nil
}
