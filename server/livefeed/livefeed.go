// Package livefeed serves detector results over HTTP and websockets, while the pipeline is running
package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/motionwatch/pkg/motion"
	"github.com/cyclopcam/motionwatch/pkg/mvrender"
	"github.com/cyclopcam/motionwatch/pkg/www"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// Polling endpoints are limited to this many requests per IP per minute
const RequestsPerMinute = 600

// Server publishes the latest frame result, and streams every result to websocket clients
type Server struct {
	Log logs.Log

	router     *httprouter.Router
	wsUpgrader websocket.Upgrader
	httpServer *http.Server
	closed     chan struct{}
	closeOnce  sync.Once

	latestLock sync.RWMutex
	latest     *motion.FrameResult

	watchersLock sync.RWMutex
	watchers     []chan *motion.FrameResult
	dropped      atomic.Int64
}

func NewServer(log logs.Log) *Server {
	s := &Server{
		Log:    log,
		router: httprouter.New(),
		closed: make(chan struct{}),
	}
	s.httpServer = &http.Server{Handler: s.router}

	limited := func(method, route string, handle httprouter.Handle) {
		limiter := httprate.Limit(RequestsPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, s.router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	limited("GET", "/api/latest", s.httpLatest)
	limited("GET", "/api/tracks", s.httpTracks)
	limited("GET", "/api/snapshot", s.httpSnapshot)
	www.Handle(s.Log, s.router, "GET", "/api/ws", s.httpWebSocket)
	return s
}

// Handler returns the HTTP handler for all of our routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until Shutdown is called, or the listener fails.
// If Shutdown has already been called, it returns nil immediately.
// addr example: ":8080"
func (s *Server) ListenAndServe(addr string) error {
	select {
	case <-s.closed:
		return nil
	default:
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("Live feed listen on %v: %w", addr, err)
	}
	s.Log.Infof("Live feed listening on %v", ln.Addr())
	// Serve closes ln and returns ErrServerClosed if Shutdown got here first
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown disconnects websocket clients, and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	return s.httpServer.Shutdown(ctx)
}

// Publish makes res the latest result, and sends it to every watcher.
// res must not be modified afterwards.
func (s *Server) Publish(res *motion.FrameResult) {
	s.latestLock.Lock()
	s.latest = res
	s.latestLock.Unlock()

	s.watchersLock.RLock()
	defer s.watchersLock.RUnlock()
	// Dropping is preferable to stalling the pipeline for the sake of one slow client
	for _, ch := range s.watchers {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			s.dropped.Add(1)
			s.Log.Warnf("Live feed watcher is falling behind. Dropping frame %v", res.FrameNumber)
		} else {
			ch <- res
		}
	}
}

// Latest returns the most recently published result, or nil
func (s *Server) Latest() *motion.FrameResult {
	s.latestLock.RLock()
	defer s.latestLock.RUnlock()
	return s.latest
}

// Dropped returns the number of results that were not delivered to slow watchers
func (s *Server) Dropped() int64 {
	return s.dropped.Load()
}

// AddWatcher registers to receive every published result
func (s *Server) AddWatcher() chan *motion.FrameResult {
	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()
	ch := make(chan *motion.FrameResult, WatcherChannelSize)
	s.watchers = append(s.watchers, ch)
	return ch
}

// RemoveWatcher unregisters a channel that was returned by AddWatcher
func (s *Server) RemoveWatcher(ch chan *motion.FrameResult) {
	s.watchersLock.Lock()
	defer s.watchersLock.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers[i] = s.watchers[len(s.watchers)-1]
			s.watchers = s.watchers[:len(s.watchers)-1]
			return
		}
	}
	s.Log.Warnf("Live feed RemoveWatcher failed to find channel")
}

func (s *Server) NumWatchers() int {
	s.watchersLock.RLock()
	defer s.watchersLock.RUnlock()
	return len(s.watchers)
}

func (s *Server) latestOrNoContent() *motion.FrameResult {
	res := s.Latest()
	if res == nil {
		www.PanicNoContent()
	}
	return res
}

func (s *Server) httpLatest(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	res := s.latestOrNoContent()
	www.CacheNever(w)
	www.SendJSONOpt(w, res, www.QueryInt(r, "pretty") != 0)
}

type tracksResponse struct {
	FrameNumber int                    `json:"frameNumber"`
	Tracked     []motion.TrackedObject `json:"tracked"`
}

func (s *Server) httpTracks(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	res := s.latestOrNoContent()
	www.CacheNever(w)
	www.SendJSON(w, &tracksResponse{
		FrameNumber: res.FrameNumber,
		Tracked:     res.Tracked,
	})
}

func (s *Server) httpSnapshot(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	res := s.latestOrNoContent()
	scale := www.QueryInt(r, "scale")
	if scale == 0 {
		scale = 8
	}
	if scale < 1 || scale > 64 {
		www.PanicBadRequestf("scale must be between 1 and 64")
	}
	www.CacheNever(w)
	w.Header().Set("Content-Type", "image/png")
	www.Check(mvrender.EncodePNG(w, res, scale))
}

func (s *Server) httpWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("Live feed websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := s.AddWatcher()
	defer s.RemoveWatcher(ch)

	// We don't expect anything from the client, but we must read in order to notice that it has gone away
	clientGone := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(clientGone)
				return
			}
		}
	}()

	for {
		select {
		case <-s.closed:
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		case <-clientGone:
			return
		case res := <-ch:
			j, err := json.Marshal(res)
			if err != nil {
				s.Log.Errorf("Failed to marshal frame result: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, j); err != nil {
				s.Log.Infof("Error writing to live feed websocket: %v", err)
				return
			}
		}
	}
}
