// Package server exposes editor instances over HTTP.
//
// Editors are not safe for concurrent use, so every instance-scoped handler
// holds a per-instance lock for the duration of the request. The instance
// registry itself is shared and concurrency-safe.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flowcanvas/flowcanvas/pkg/editor"
	flowerrors "github.com/flowcanvas/flowcanvas/pkg/errors"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/snapshot"
	"github.com/flowcanvas/flowcanvas/pkg/transform"
)

// EditorFactory builds a fresh editor for POST /api/instances.
type EditorFactory func() (*editor.Editor, error)

// Options configures the server.
type Options struct {
	Registry  *editor.Registry
	Snapshots snapshot.Store
	// NewEditor is required; it decides node types, config, and engine for
	// instances created over the API.
	NewEditor EditorFactory
	Logger    *log.Logger
}

// Server routes editor and snapshot operations.
type Server struct {
	registry  *editor.Registry
	snapshots snapshot.Store
	newEditor EditorFactory
	logger    *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a server. Registry and Snapshots default to empty in-memory
// values; NewEditor must be supplied.
func New(opts Options) (*Server, error) {
	if opts.NewEditor == nil {
		return nil, errors.New("server: NewEditor is required")
	}
	if opts.Registry == nil {
		opts.Registry = editor.NewRegistry()
	}
	if opts.Snapshots == nil {
		opts.Snapshots = snapshot.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Server{
		registry:  opts.Registry,
		snapshots: opts.Snapshots,
		newEditor: opts.NewEditor,
		logger:    opts.Logger,
		locks:     make(map[string]*sync.Mutex),
	}, nil
}

// Handler assembles the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/instances", func(r chi.Router) {
			r.Post("/", s.createInstance)
			r.Get("/", s.listInstances)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", s.deleteInstance)
				r.Get("/state", s.getState)
				r.Put("/state", s.putState)
				r.Get("/scene", s.getScene)
				r.Post("/nodes", s.addNode)
				r.Delete("/nodes/{nodeID}", s.removeNode)
				r.Post("/edges", s.addEdge)
				r.Delete("/edges/{edgeID}", s.removeEdge)
				r.Post("/layout", s.autoLayout)
				r.Post("/fit", s.fitView)
				r.Get("/transforms", s.getTransforms)
				r.Put("/transforms", s.putTransforms)
				r.Post("/snapshots", s.saveSnapshot)
			})
		})
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.listSnapshots)
			r.Route("/{snapID}", func(r chi.Router) {
				r.Get("/", s.getSnapshot)
				r.Delete("/", s.deleteSnapshot)
				r.Post("/restore", s.restoreSnapshot)
			})
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// lockInstance serializes access to one editor.
func (s *Server) lockInstance(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Server) dropLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// =============================================================================
// Instances
// =============================================================================

func (s *Server) createInstance(w http.ResponseWriter, r *http.Request) {
	e, err := s.newEditor()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	id := s.registry.Add(e)
	s.logger.Info("instance created", "id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) listInstances(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"ids": s.registry.IDs()})
}

func (s *Server) deleteInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.registry.Get(id); err != nil {
		writeError(w, http.StatusNotFound, flowerrors.Wrap(flowerrors.ErrCodeInstanceNotFound, err, "instance %s", id))
		return
	}
	s.registry.Remove(id)
	s.dropLock(id)
	w.WriteHeader(http.StatusNoContent)
}

// withEditor resolves the instance, locks it, and runs fn.
func (s *Server) withEditor(w http.ResponseWriter, r *http.Request, fn func(e *editor.Editor)) {
	id := chi.URLParam(r, "id")
	e, err := s.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, flowerrors.Wrap(flowerrors.ErrCodeInstanceNotFound, err, "instance %s", id))
		return
	}
	unlock := s.lockInstance(id)
	defer unlock()
	fn(e)
}

// =============================================================================
// State and Scene
// =============================================================================

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		writeJSON(w, http.StatusOK, e.GetState())
	})
}

func (s *Server) putState(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		var st graph.State
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		e.SetState(st)
		writeJSON(w, http.StatusOK, e.GetState())
	})
}

func (s *Server) getScene(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		writeJSON(w, http.StatusOK, e.Scene())
	})
}

// =============================================================================
// Nodes and Edges
// =============================================================================

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		var spec graph.NodeSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, e.AddNode(spec))
	})
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		e.RemoveNode(chi.URLParam(r, "nodeID"))
		w.WriteHeader(http.StatusNoContent)
	})
}

type edgeRequest struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourcePort string `json:"source_port"`
	TargetPort string `json:"target_port"`
	Label      string `json:"label"`
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		var req edgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		edge, err := e.AddEdge(req.Source, req.Target, req.SourcePort, req.TargetPort, req.Label)
		if err != nil {
			status, code := edgeStatus(err)
			writeError(w, status, &flowerrors.Error{Code: code, Message: err.Error(), Cause: err})
			return
		}
		writeJSON(w, http.StatusCreated, edge)
	})
}

// edgeStatus maps edge rejections to HTTP statuses and error codes: missing
// endpoints are 404, structural conflicts are 409.
func edgeStatus(err error) (int, flowerrors.Code) {
	switch {
	case errors.Is(err, graph.ErrUnknownSourceNode), errors.Is(err, graph.ErrUnknownTargetNode):
		return http.StatusNotFound, flowerrors.ErrCodeNodeNotFound
	case errors.Is(err, graph.ErrEdgeWouldCycle):
		return http.StatusConflict, flowerrors.ErrCodeCycleRejected
	case errors.Is(err, graph.ErrDuplicateEdge), errors.Is(err, graph.ErrSelfLoop):
		return http.StatusConflict, flowerrors.ErrCodeDuplicateEdge
	case errors.Is(err, graph.ErrEdgeVetoed):
		return http.StatusConflict, flowerrors.ErrCodeEdgeVetoed
	default:
		return http.StatusInternalServerError, flowerrors.ErrCodeInternal
	}
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		e.RemoveEdge(chi.URLParam(r, "edgeID"))
		w.WriteHeader(http.StatusNoContent)
	})
}

// =============================================================================
// Layout and Viewport
// =============================================================================

func (s *Server) autoLayout(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		if err := e.AutoLayout(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, e.GetState())
	})
}

func (s *Server) fitView(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		e.FitView()
		writeJSON(w, http.StatusOK, e.GetState().Viewport)
	})
}

// =============================================================================
// Transforms
// =============================================================================

func (s *Server) getTransforms(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		ts, err := e.Transforms()
		if err != nil {
			if errors.Is(err, transform.ErrIncompleteOrder) {
				writeError(w, http.StatusConflict, err)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"transforms": ts})
	})
}

type transformsRequest struct {
	Source     string                `json:"source"`
	Transforms []transform.Transform `json:"transforms"`
}

func (s *Server) putTransforms(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		var req transformsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		e.LoadTransforms(req.Source, req.Transforms)
		writeJSON(w, http.StatusOK, e.GetState())
	})
}

// =============================================================================
// Snapshots
// =============================================================================

type saveSnapshotRequest struct {
	Name string `json:"name"`
}

func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) {
		var req saveSnapshotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		snap := snapshot.New(req.Name, e.GetState())
		if err := s.snapshots.Put(r.Context(), snap); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.logger.Info("snapshot saved", "id", snap.ID, "name", snap.Name)
		writeJSON(w, http.StatusCreated, snap)
	})
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.snapshots.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "snapID"))
	if errors.Is(err, snapshot.ErrNotFound) {
		writeError(w, http.StatusNotFound, flowerrors.Wrap(flowerrors.ErrCodeSnapshotNotFound, err, "snapshot %s", chi.URLParam(r, "snapID")))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) deleteSnapshot(w http.ResponseWriter, r *http.Request) {
	err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "snapID"))
	if errors.Is(err, snapshot.ErrNotFound) {
		writeError(w, http.StatusNotFound, flowerrors.Wrap(flowerrors.ErrCodeSnapshotNotFound, err, "snapshot %s", chi.URLParam(r, "snapID")))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type restoreRequest struct {
	InstanceID string `json:"instance_id"`
}

func (s *Server) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Get(r.Context(), chi.URLParam(r, "snapID"))
	if errors.Is(err, snapshot.ErrNotFound) {
		writeError(w, http.StatusNotFound, flowerrors.Wrap(flowerrors.ErrCodeSnapshotNotFound, err, "snapshot %s", chi.URLParam(r, "snapID")))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := s.registry.Get(req.InstanceID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	unlock := s.lockInstance(req.InstanceID)
	defer unlock()
	e.SetState(snap.State)
	writeJSON(w, http.StatusOK, e.GetState())
}

// =============================================================================
// JSON Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := flowerrors.GetCode(err)
	if code == "" {
		code = codeForStatus(status)
	}
	writeJSON(w, status, map[string]string{
		"error": flowerrors.UserMessage(err),
		"code":  string(code),
	})
}

// codeForStatus supplies a code for errors that were never wrapped.
func codeForStatus(status int) flowerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return flowerrors.ErrCodeInvalidInput
	case http.StatusNotFound:
		return flowerrors.ErrCodeNotFound
	case http.StatusConflict:
		return flowerrors.ErrCodeConflict
	default:
		return flowerrors.ErrCodeInternal
	}
}
