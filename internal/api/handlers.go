package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arsalan924/trajlens/internal/store"
	"github.com/arsalan924/trajlens/internal/trajectory"
)

// TrajectoryStore is the store access the handlers need.
type TrajectoryStore interface {
	List() ([]string, error)
	Raw(name string) ([]byte, error)
	Load(name string) (*trajectory.Document, error)
	Label() string
	Stats() (*store.Stats, error)
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	hub    *Hub
	store  TrajectoryStore
	opts   trajectory.RenderOptions
	logger *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(hub *Hub, st TrajectoryStore, opts trajectory.RenderOptions, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:    hub,
		store:  st,
		opts:   opts,
		logger: logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local viewer tool, allow all origins
	},
}

// HandleWebSocket handles websocket connections for change notifications.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Failed to upgrade connection", http.StatusInternalServerError)
		return
	}

	client := NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}

// HandleFiles handles GET /api/files - the trajectory directory listing.
func (h *Handler) HandleFiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		h.logger.Error("list trajectories", zap.Error(err))
		http.Error(w, "failed to list trajectories", http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, names)
}

// HandleTrajectory handles GET /api/trajectory/{name}. The raw document is
// returned by default; ?rendered=1 returns the display-ready tree instead.
func (h *Handler) HandleTrajectory(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/trajectory/")

	if r.URL.Query().Get("rendered") != "" {
		doc, err := h.store.Load(name)
		if err != nil {
			h.writeStoreError(w, name, err)
			return
		}
		writeJSON(w, trajectory.RenderTrajectory(doc, h.opts))
		return
	}

	data, err := h.store.Raw(name)
	if err != nil {
		h.writeStoreError(w, name, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

// HandleDirectory handles GET /api/directory - the collection label.
func (h *Handler) HandleDirectory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"label": h.store.Label()})
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		h.logger.Error("aggregate stats", zap.Error(err))
		http.Error(w, "failed to aggregate stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "trajectory not found", http.StatusNotFound)
	case errors.Is(err, store.ErrBadName):
		http.Error(w, "invalid trajectory name", http.StatusBadRequest)
	default:
		h.logger.Error("load trajectory", zap.String("name", name), zap.Error(err))
		http.Error(w, "failed to load trajectory: "+err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}

// HandleCORS handles CORS preflight requests.
func (h *Handler) HandleCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/events", h.HandleWebSocket)

	withCORS := func(fn http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				h.HandleCORS(w, r)
				return
			}
			fn(w, r)
		}
	}

	mux.HandleFunc("/api/files", withCORS(h.HandleFiles))
	mux.HandleFunc("/api/trajectory/", withCORS(h.HandleTrajectory))
	mux.HandleFunc("/api/directory", withCORS(h.HandleDirectory))
	mux.HandleFunc("/api/stats", withCORS(h.HandleStats))
}
