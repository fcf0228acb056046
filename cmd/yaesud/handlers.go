package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dougsko/yaesutool/pkg/clone"
	"github.com/dougsko/yaesutool/pkg/ft60"
	"github.com/dougsko/yaesutool/pkg/protocol"
	"github.com/dougsko/yaesutool/pkg/storage"
)

// handleGetStatus returns daemon status
func (d *Daemon) handleGetStatus(c *gin.Context) {
	d.transferMu.Lock()
	busy := d.transferBusy
	d.transferMu.Unlock()

	c.JSON(http.StatusOK, protocol.Status{
		Status:  "running",
		Version: Version,
		Model:   d.config.Device.Model,
		Device:  d.config.Device.Port,
		Uptime:  time.Since(d.started).Seconds(),
		Busy:    busy,
	})
}

// handleGetSessions returns recorded clone sessions
func (d *Daemon) handleGetSessions(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 50
	}
	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		offset = 0
	}

	sessions, err := d.history.GetSessions(storage.SessionQuery{
		Limit:     limit,
		Offset:    offset,
		Model:     c.Query("model"),
		Direction: c.Query("direction"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, protocol.SessionList{
		Sessions: sessions,
		Count:    len(sessions),
	})
}

// sessionImage fetches the raw image of the session in the :id param.
func (d *Daemon) sessionImage(c *gin.Context) ([]byte, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad session id"})
		return nil, false
	}
	image, err := d.history.GetImage(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return image, true
}

// handleGetSessionImage returns the raw memory image of a session
func (d *Daemon) handleGetSessionImage(c *gin.Context) {
	image, ok := d.sessionImage(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=session-%s.img", c.Param("id")))
	c.Data(http.StatusOK, "application/octet-stream", image)
}

// handleGetLatestImage returns the most recent downloaded image for a
// model, so a radio can be restored without looking up session ids
func (d *Daemon) handleGetLatestImage(c *gin.Context) {
	model := c.DefaultQuery("model", d.config.Device.Model)
	if model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no radio model configured"})
		return
	}
	image, err := d.history.GetLatestImage(model)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s-latest.img", model))
	c.Data(http.StatusOK, "application/octet-stream", image)
}

// handleGetSessionConfig returns a session's image as a text
// configuration
func (d *Daemon) handleGetSessionConfig(c *gin.Context) {
	image, ok := d.sessionImage(c)
	if !ok {
		return
	}
	radio, err := radioForImage(image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	verbose := c.Query("verbose") == "true"
	var buf bytes.Buffer
	radio.PrintConfig(&buf, verbose)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

// handleGetSessionChannels returns a session's decoded channel list
func (d *Daemon) handleGetSessionChannels(c *gin.Context) {
	image, ok := d.sessionImage(c)
	if !ok {
		return
	}
	radio, err := radioForImage(image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	channels := radio.Channels()
	c.JSON(http.StatusOK, protocol.ChannelList{
		Model:    radio.Name(),
		Channels: channels,
		Count:    len(channels),
	})
}

// handleCloneDownload starts a download from the radio
func (d *Daemon) handleCloneDownload(c *gin.Context) {
	var req protocol.CloneRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	model := req.Model
	if model == "" {
		model = d.config.Device.Model
	}

	radio, proto, err := newRadio(model)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !d.beginTransfer() {
		c.JSON(http.StatusConflict, gin.H{"error": "a transfer is already running"})
		return
	}
	d.wg.Add(1)
	go d.runClone(model, "download", radio, proto)

	c.JSON(http.StatusAccepted, protocol.CloneStarted{
		Status:    "started",
		Model:     model,
		Direction: "download",
	})
}

// handleCloneUpload sends a stored session image back to the radio
func (d *Daemon) handleCloneUpload(c *gin.Context) {
	var req protocol.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := d.history.GetImage(req.SessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	radio, err := radioForImage(image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	model := "vx-2"
	proto := &clone.VX2
	if radio.Magic() == ft60.New().Magic() {
		model = "ft-60"
		proto = &clone.FT60
	}

	if !d.beginTransfer() {
		c.JSON(http.StatusConflict, gin.H{"error": "a transfer is already running"})
		return
	}
	d.wg.Add(1)
	go d.runClone(model, "upload", radio, proto)

	c.JSON(http.StatusAccepted, protocol.CloneStarted{
		Status:    "started",
		Model:     model,
		Direction: "upload",
		Session:   req.SessionID,
	})
}

// handleGetStats returns history store statistics
func (d *Daemon) handleGetStats(c *gin.Context) {
	stats, err := d.history.GetSessionStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// handleProgressWebSocket streams transfer progress events
func (d *Daemon) handleProgressWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("Progress WebSocket client connected")

	events := d.subscribe()
	defer d.unsubscribe(events)

	// Drain client messages so pings are answered and closes noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
		case <-done:
			return
		case <-d.ctx.Done():
			log.Printf("Progress WebSocket client disconnected (context cancelled)")
			return
		}
	}
}
