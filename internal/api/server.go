package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/parley/internal/chat"
	"github.com/MikeSquared-Agency/parley/internal/transcript"
)

const (
	maxUploadBytes  = 100 << 20
	uploadFormField = "file"
)

// Actions is the part of the chat controller driven from the browser.
type Actions interface {
	SubmitText(ctx context.Context, text string)
	FileSelected(ctx context.Context, kind chat.Kind, files []chat.File)
}

// Server exposes the chat to browser clients: gestures come in over HTTP,
// transcript appends go out over a WebSocket.
type Server struct {
	router     *chi.Mux
	port       int
	actions    Actions
	transcript *transcript.Transcript
	hub        *Hub
	logger     *slog.Logger
	httpSrv    *http.Server
	inflight   sync.WaitGroup
}

func NewServer(port int, actions Actions, tr *transcript.Transcript, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)

	s := &Server{
		router:     router,
		port:       port,
		actions:    actions,
		transcript: tr,
		hub:        NewHub(logger),
		logger:     logger,
	}
	tr.Observe(s.hub.Broadcast)

	router.Get("/health", s.health)
	router.Get("/ws", s.hub.HandleWebSocket)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/transcript", s.getTranscript)
		r.Post("/messages", s.postMessage)
		r.Post("/uploads/{kind}", s.postUpload)
	})

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, closes WebSocket clients and waits
// for dispatched chat actions to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.hub.Close()
	s.Wait()
	return err
}

// Wait blocks until every dispatched chat action has completed.
func (s *Server) Wait() {
	s.inflight.Wait()
}

// dispatch runs fn detached from the request: actions are never cancelled
// once accepted.
func (s *Server) dispatch(r *http.Request, fn func(ctx context.Context)) {
	ctx := context.WithoutCancel(r.Context())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn(ctx)
	}()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.transcript.Messages())
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	s.dispatch(r, func(ctx context.Context) {
		s.actions.SubmitText(ctx, req.Message)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// uploadedFile holds a browser upload in memory; the request body is gone
// by the time the dispatched action reads it.
type uploadedFile struct {
	name string
	data []byte
}

func (f uploadedFile) Name() string { return f.name }

func (f uploadedFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (s *Server) postUpload(w http.ResponseWriter, r *http.Request) {
	kind, ok := chat.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown upload kind"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Warn("read upload failed", "kind", kind, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read file"})
		return
	}

	f := uploadedFile{name: header.Filename, data: data}
	s.dispatch(r, func(ctx context.Context) {
		s.actions.FileSelected(ctx, kind, []chat.File{f})
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
