package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dougsko/yaesutool/pkg/clone"
	"github.com/dougsko/yaesutool/pkg/codec"
	"github.com/dougsko/yaesutool/pkg/config"
	"github.com/dougsko/yaesutool/pkg/ft60"
	"github.com/dougsko/yaesutool/pkg/protocol"
	"github.com/dougsko/yaesutool/pkg/storage"
	"github.com/dougsko/yaesutool/pkg/vx2"
)

// Daemon serves the clone history and drives serial transfers over a
// small HTTP API. Only one transfer runs at a time; progress is pushed
// to websocket subscribers.
type Daemon struct {
	config *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	history   *storage.HistoryStore
	webServer *http.Server
	started   time.Time

	// Transfer state
	transferMu   sync.Mutex
	transferBusy bool

	// Websocket progress subscribers
	subMu       sync.Mutex
	subscribers map[chan protocol.Progress]struct{}
}

// NewDaemon creates a new daemon instance
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	history, err := storage.NewHistoryStore(cfg.History.DatabasePath, cfg.History.MaxEntries)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	daemon := &Daemon{
		config:      cfg,
		ctx:         ctx,
		cancel:      cancel,
		history:     history,
		started:     time.Now(),
		subscribers: make(map[chan protocol.Progress]struct{}),
	}

	if err := daemon.setupWebServer(); err != nil {
		history.Close()
		cancel()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the daemon
func (d *Daemon) Start() error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
		log.Printf("Starting web server on %s", addr)
		if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Web server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the daemon gracefully
func (d *Daemon) Stop() error {
	log.Printf("Stopping daemon...")

	d.cancel()

	if d.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
	}

	d.wg.Wait()

	if d.history != nil {
		if err := d.history.Close(); err != nil {
			log.Printf("History store shutdown error: %v", err)
		}
	}

	log.Printf("Daemon stopped")
	return nil
}

// setupWebServer initializes the web server and routes
func (d *Daemon) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// API routes
	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/sessions", d.handleGetSessions)
		api.GET("/sessions/:id/image", d.handleGetSessionImage)
		api.GET("/sessions/:id/config", d.handleGetSessionConfig)
		api.GET("/sessions/:id/channels", d.handleGetSessionChannels)
		api.GET("/image/latest", d.handleGetLatestImage)
		api.POST("/clone/download", d.handleCloneDownload)
		api.POST("/clone/upload", d.handleCloneUpload)
		api.GET("/stats", d.handleGetStats)
	}

	// WebSocket progress stream
	router.GET("/ws/progress", d.handleProgressWebSocket)

	addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
	d.webServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return nil
}

// newRadio builds a codec session for a model name.
func newRadio(model string) (codec.Radio, *clone.Protocol, error) {
	switch model {
	case "ft-60":
		return ft60.New(), &clone.FT60, nil
	case "vx-2":
		return vx2.New(), &clone.VX2, nil
	}
	return nil, nil, fmt.Errorf("unknown radio model %q", model)
}

// radioForImage decodes a stored image with the matching model codec.
func radioForImage(image []byte) (codec.Radio, error) {
	for _, model := range []string{"ft-60", "vx-2"} {
		radio, _, err := newRadio(model)
		if err != nil {
			return nil, err
		}
		data := radio.Image().Data()
		if len(image) != len(data) && len(image) != radio.Image().Size() {
			continue
		}
		copy(data, image)
		if radio.Image().HasMagic(radio.Magic()) {
			return radio, nil
		}
	}
	return nil, fmt.Errorf("stored image does not match any supported model")
}

// subscribe registers a websocket progress channel.
func (d *Daemon) subscribe() chan protocol.Progress {
	ch := make(chan protocol.Progress, 16)
	d.subMu.Lock()
	d.subscribers[ch] = struct{}{}
	d.subMu.Unlock()
	return ch
}

func (d *Daemon) unsubscribe(ch chan protocol.Progress) {
	d.subMu.Lock()
	delete(d.subscribers, ch)
	d.subMu.Unlock()
}

// publish fans a progress event out to all subscribers. Slow clients
// drop events rather than stall the transfer.
func (d *Daemon) publish(ev protocol.Progress) {
	d.subMu.Lock()
	for ch := range d.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	d.subMu.Unlock()
}

// beginTransfer claims the single transfer slot.
func (d *Daemon) beginTransfer() bool {
	d.transferMu.Lock()
	defer d.transferMu.Unlock()
	if d.transferBusy {
		return false
	}
	d.transferBusy = true
	return true
}

func (d *Daemon) endTransfer() {
	d.transferMu.Lock()
	d.transferBusy = false
	d.transferMu.Unlock()
}

// runClone executes one transfer in the background, recording the
// result in the history store and publishing progress.
func (d *Daemon) runClone(model, direction string, radio codec.Radio, proto *clone.Protocol) {
	defer d.wg.Done()
	defer d.endTransfer()

	session, err := clone.Open(d.config.Device.Port, proto.Baud,
		time.Duration(d.config.Device.ReadTimeout)*time.Millisecond)
	if err != nil {
		d.publish(protocol.Progress{Type: "error", Model: model, Direction: direction, Error: err.Error()})
		return
	}
	defer session.Close()

	session.SetHandshakeRetries(d.config.Device.HandshakeRetries)
	session.OnProgress(func(transferred, total int) {
		d.publish(protocol.Progress{
			Type:        "progress",
			Model:       model,
			Direction:   direction,
			Transferred: transferred,
			Total:       total,
		})
	})

	ctx, cancel := context.WithTimeout(d.ctx, 10*time.Minute)
	defer cancel()

	if direction == "download" {
		err = proto.Download(ctx, session, radio.Image())
		if err == nil && !radio.Image().HasMagic(radio.Magic()) {
			err = fmt.Errorf("received image is not a %s dump", radio.Name())
		}
	} else {
		err = proto.Upload(ctx, session, radio.Image())
	}
	if err != nil {
		d.publish(protocol.Progress{Type: "error", Model: model, Direction: direction, Error: err.Error()})
		return
	}

	img := radio.Image()
	if _, err := d.history.StoreSession(model, d.config.Device.Port, direction,
		img.Data(), img.Sum(), ""); err != nil {
		log.Printf("Failed to record %s session: %v", direction, err)
	}
	d.publish(protocol.Progress{Type: "done", Model: model, Direction: direction,
		Transferred: len(img.Data()), Total: len(img.Data())})
}
