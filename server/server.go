// Package server exposes a network view to browser clients: frames are
// pushed over a websocket and interaction events come back the same way.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/TFMV/assaynet/cluster"
	"github.com/TFMV/assaynet/ingest"
	"github.com/TFMV/assaynet/models"
	"github.com/TFMV/assaynet/network"
	"github.com/TFMV/assaynet/render"
	"github.com/TFMV/assaynet/storage"
)

// Config for the server
type Config struct {
	Addr    string
	Cluster cluster.Options
}

// Server pushes the frames recorded for one view to every client.
type Server struct {
	config   Config
	loop     *network.Loop
	recorder *render.Recorder
	repo     models.DatasetRepository
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// New creates a server for a view driven by loop and rendering into
// recorder. repo may be nil, which disables saving.
func New(loop *network.Loop, recorder *render.Recorder, repo models.DatasetRepository, config Config) *Server {
	s := &Server{
		config:   config,
		loop:     loop,
		recorder: recorder,
		repo:     repo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  slog.Default().With("component", "server"),
		clients: make(map[string]*client),
	}
	loop.AfterEach(s.broadcast)
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex())
	mux.HandleFunc("GET /api/network", s.handleNetwork())
	mux.HandleFunc("GET /api/export", s.handleExport())
	mux.HandleFunc("POST /api/save", s.handleSave())
	mux.HandleFunc("POST /api/upload", s.handleUpload())
	mux.HandleFunc("POST /api/events", s.handleEvent())
	mux.HandleFunc("GET /ws", s.handleSocket)
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	if err := server.Shutdown(shutdown); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// Summary is the JSON description of the served view.
type Summary struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Nodes       int                  `json:"nodes"`
	Edges       int                  `json:"edges"`
	Rendered    int                  `json:"rendered"`
	State       string               `json:"state"`
	Detail      render.LevelOfDetail `json:"detail"`
	Threshold   float64              `json:"threshold"`
	Cutoff      float64              `json:"cutoff"`
	Temperature float64              `json:"temperature"`
	Transform   models.Transform     `json:"transform"`
	Fields      []models.Field       `json:"fields"`
	Clients     int                  `json:"clients"`
}

func (s *Server) summary(v *network.View) Summary {
	nodes, _ := v.Sync().Rendered()
	s.mu.RLock()
	clients := len(s.clients)
	s.mu.RUnlock()
	return Summary{
		ID:          v.ID(),
		Name:        v.Name(),
		Nodes:       len(v.Model().Nodes()),
		Edges:       len(v.Model().Edges()),
		Rendered:    len(nodes),
		State:       v.State().String(),
		Detail:      v.Detail(),
		Threshold:   v.Model().NetworkThreshold(),
		Cutoff:      v.Model().Cutoff(),
		Temperature: v.Temperature(),
		Transform:   v.Model().Transform(),
		Fields:      append([]models.Field(nil), v.Fields()...),
		Clients:     clients,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

// handleIndex renders the landing page
func (s *Server) handleIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sum Summary
		err := s.loop.Do(r.Context(), func(v *network.View) error {
			sum = s.summary(v)
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, indexPage, sum.Name, sum.Nodes, sum.Edges, sum.State)
	}
}

const indexPage = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>assaynet</title></head>
<body>
  <h1>%s</h1>
  <p>%d compounds, %d similarity edges, layout %s.</p>
  <p>Frames stream from <code>/ws</code>; the view is described at <a href="/api/network">/api/network</a>.</p>
</body>
</html>
`

func (s *Server) handleNetwork() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sum Summary
		err := s.loop.Do(r.Context(), func(v *network.View) error {
			sum = s.summary(v)
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "json"
		}
		var d *models.Dataset
		err := s.loop.Do(r.Context(), func(v *network.View) error {
			d = v.Export()
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if format == "json" {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "application/yaml")
		}
		if err := storage.Encode(w, d, format); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
}

func (s *Server) handleSave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.repo == nil {
			http.Error(w, "saving is disabled", http.StatusNotImplemented)
			return
		}
		err := s.loop.Do(r.Context(), func(v *network.View) error {
			// the save outlives the request
			v.Save(context.WithoutCancel(r.Context()), s.repo)
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) handleUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, "Error parsing form: "+err.Error(), http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("dataFile")
		if err != nil {
			http.Error(w, "Error retrieving file: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		d, err := ingest.Load(file, ingest.FormatOf(filepath.Base(header.Filename)))
		if err != nil {
			http.Error(w, "Error processing file: "+err.Error(), http.StatusBadRequest)
			return
		}
		var sum Summary
		err = s.loop.Do(r.Context(), func(v *network.View) error {
			if err := v.Reload(d); err != nil {
				return err
			}
			sum = s.summary(v)
			return nil
		})
		if err != nil {
			http.Error(w, "Error building network: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Info("dataset uploaded", "file", header.Filename, "nodes", sum.Nodes)
		writeJSON(w, http.StatusOK, sum)
	}
}

func (s *Server) handleEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "Error parsing event: "+err.Error(), http.StatusBadRequest)
			return
		}
		err := s.loop.Do(r.Context(), func(v *network.View) error {
			return Apply(v, ev, s.config.Cluster)
		})
		if errors.Is(err, network.ErrLoopStopped) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// broadcast runs on the loop after every event and tick.
func (s *Server) broadcast(*network.View) {
	f, ok := s.recorder.Flush()
	if !ok {
		return
	}
	msg, err := json.Marshal(message{Type: "frame", Frame: &f})
	if err != nil {
		s.logger.Error("encoding frame", "error", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.queue(msg)
	}
}

// message is a server to client websocket message.
type message struct {
	Type  string        `json:"type"`
	Frame *render.Frame `json:"frame,omitempty"`
	Error string        `json:"error,omitempty"`
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	c := &client{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.logger.Info("client connected", "client", c.id, "remote", r.RemoteAddr)

	go c.writer()
	// a new client needs the whole picture
	_ = s.loop.Post(r.Context(), func(v *network.View) { v.Resync() })

	s.read(c)

	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()
	s.logger.Info("client disconnected", "client", c.id)
}

func (s *Server) read(c *client) {
	c.conn.SetReadLimit(1 << 20)
	for {
		var ev Event
		if err := c.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("unexpected close", "client", c.id, "error", err)
			}
			return
		}
		err := s.loop.Post(context.Background(), func(v *network.View) {
			if err := Apply(v, ev, s.config.Cluster); err != nil {
				s.logger.Debug("event rejected", "client", c.id, "type", ev.Type, "error", err)
				if msg, merr := json.Marshal(message{Type: "error", Error: err.Error()}); merr == nil {
					c.queue(msg)
				}
			}
		})
		if err != nil {
			return
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
}
