// Package preview streams the indexed framebuffer to browsers over a
// WebSocket so an effect can be watched from another machine.
package preview

import (
	"context"
	_ "embed"
	"encoding/binary"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/cryguy/livefx/internal/screen"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("livefx.preview")

//go:embed page.html
var pageHTML []byte

const (
	headerSize   = 4
	paletteBytes = 3 * screen.PaletteSize

	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// EncodeFrame builds one wire frame: width and height as little-endian
// uint16, the 768-byte palette, then width*height palette indices.
func EncodeFrame(width, height int, palette, pixels []byte) []byte {
	out := make([]byte, headerSize+len(palette)+len(pixels))
	binary.LittleEndian.PutUint16(out[0:], uint16(width))
	binary.LittleEndian.PutUint16(out[2:], uint16(height))
	n := copy(out[headerSize:], palette)
	copy(out[headerSize+n:], pixels)
	return out
}

// client holds at most one pending frame. Publish replaces a frame the
// client has not picked up yet, so slow viewers skip frames instead of
// stalling the host.
type client struct {
	frames chan []byte
}

func (c *client) offer(frame []byte) {
	for {
		select {
		case c.frames <- frame:
			return
		default:
		}
		select {
		case <-c.frames:
		default:
		}
	}
}

// Server fans out frames from one screen to any number of viewers.
type Server struct {
	scr *screen.Screen

	mu      sync.Mutex
	clients map[*client]struct{}
	pixels  []byte
	palette []byte
}

// New creates a preview server for scr.
func New(scr *screen.Screen) *Server {
	return &Server{
		scr:     scr,
		clients: make(map[*client]struct{}),
		pixels:  make([]byte, scr.Width()*scr.Height()),
		palette: make([]byte, paletteBytes),
	}
}

// Clients returns the number of connected viewers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Publish snapshots the screen and queues the frame for every viewer. It
// does nothing when no one is connected.
func (s *Server) Publish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return nil
	}
	if err := s.scr.Snapshot(s.pixels, s.palette); err != nil {
		return err
	}
	frame := EncodeFrame(s.scr.Width(), s.scr.Height(), s.palette, s.pixels)
	for c := range s.clients {
		c.offer(frame)
	}
	return nil
}

// Handler serves the viewer page on / and the frame stream on /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(pageHTML)
	})
	mux.HandleFunc("GET /ws", s.serveWS)
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Warningf("accept from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.CloseNow()

	// Viewers never send anything; CloseRead handles control frames and
	// cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	c := &client{frames: make(chan []byte, 1)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	log.Infof("viewer connected: %s", r.RemoteAddr)
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		log.Infof("viewer disconnected: %s", r.RemoteAddr)
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-c.frames:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageBinary, frame)
			cancel()
			if err != nil {
				log.Debugf("write to %s: %v", r.RemoteAddr, err)
				return
			}
		case <-pingTicker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// ListenAndServe serves the preview on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Noticef("preview listening on http://%s/", ln.Addr())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
