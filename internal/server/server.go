// Package server exposes the draft store to a browser editor over HTTP.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/draftkeep/internal/config"
	"github.com/debemdeboas/draftkeep/internal/draft"
	"github.com/debemdeboas/draftkeep/internal/render"
	"github.com/debemdeboas/draftkeep/internal/routes"
	"github.com/debemdeboas/draftkeep/internal/sse"
)

// MaxDraftBytes bounds request bodies.
const MaxDraftBytes = 8 << 20

var serverLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	serverLogger = l
}

type Server struct {
	store     draft.Store
	previewer *render.Previewer
	clients   *sse.SSEClients

	router *mux.Router
}

func New(store draft.Store, previewer *render.Previewer, clients *sse.SSEClients) *Server {
	s := &Server{
		store:     store,
		previewer: previewer,
		clients:   clients,
		router:    mux.NewRouter(),
	}

	s.router.HandleFunc(routes.APIHealth, s.serveHealth).Methods(http.MethodGet)
	s.router.HandleFunc(routes.APIDraft, s.serveGetDraft).Methods(http.MethodGet)
	s.router.HandleFunc(routes.APIDraft, s.serveHeadDraft).Methods(http.MethodHead)
	s.router.HandleFunc(routes.APIDraft, s.servePutDraft).Methods(http.MethodPut)
	s.router.HandleFunc(routes.APIDraft, s.serveDeleteDraft).Methods(http.MethodDelete)
	s.router.HandleFunc(routes.APIPreviewCSS, s.servePreviewCSS).Methods(http.MethodGet)
	s.router.HandleFunc(routes.APIDraftPreview, s.servePreview).Methods(http.MethodPost)
	s.router.HandleFunc(routes.SSEPath, s.serveEvents).Methods(http.MethodGet)

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
	})
	s.router.Use(secureHeaders, logRequests)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Notify tells connected editors about a draft change.
func (s *Server) Notify(name, data string) {
	n := s.clients.Broadcast(sse.TopicDraft, sse.Event{Name: name, Data: data})
	serverLogger.Debug().Str("event", name).Int("clients", n).Msg("Draft event broadcast")
}

// EncodingBase64 marks content that is not valid UTF-8 and travels base64
// encoded. An empty encoding means plain text.
const EncodingBase64 = "base64"

// DraftResponse is the JSON form of the stored draft.
type DraftResponse struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Encoding string         `json:"encoding,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
	SavedAt  time.Time      `json:"saved_at"`
	Hash     string         `json:"hash"`
	Title    string         `json:"title,omitempty"`
}

// DraftRequest is the body of a save.
type DraftRequest struct {
	Content  string         `json:"content"`
	Encoding string         `json:"encoding,omitempty"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// encodeContent keeps the bytes intact over JSON: text stays readable and
// anything else is base64 encoded so the hash still matches.
func encodeContent(b []byte) (content, encoding string) {
	if utf8.Valid(b) {
		return string(b), ""
	}
	return base64.StdEncoding.EncodeToString(b), EncodingBase64
}

func (req *DraftRequest) bytes() ([]byte, error) {
	switch req.Encoding {
	case "":
		return []byte(req.Content), nil
	case EncodingBase64:
		return base64.StdEncoding.DecodeString(req.Content)
	default:
		return nil, fmt.Errorf("unknown content encoding %q", req.Encoding)
	}
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) serveGetDraft(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.getDraft(w, r)
	if !ok {
		return
	}

	etag := `"` + rec.Hash + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set(config.HCType, config.CTypeJSON)
	w.Header().Set(config.HETag, etag)
	w.Header().Set(config.HLastModified, rec.SavedAt.Format(http.TimeFormat))
	w.Header().Set(config.HCacheControl, "no-cache")

	content, encoding := encodeContent(rec.Content)
	json.NewEncoder(w).Encode(DraftResponse{
		ID:       rec.ID,
		Content:  content,
		Encoding: encoding,
		Fields:   rec.Fields,
		SavedAt:  rec.SavedAt,
		Hash:     rec.Hash,
		Title:    rec.Title(),
	})
}

func (s *Server) serveHeadDraft(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.getDraft(w, r)
	if !ok {
		return
	}
	w.Header().Set(config.HETag, `"`+rec.Hash+`"`)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) (*draft.Record, bool) {
	rec, err := s.store.Get(r.Context())
	if errors.Is(err, draft.ErrNotFound) {
		http.Error(w, config.ErrDraftNotFound, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		serverLogger.Error().Err(err).Msg("Error reading draft")
		http.Error(w, config.ErrStorageUnavailable, http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}

func (s *Server) servePutDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxDraftBytes)).Decode(&req); err != nil {
		http.Error(w, config.ErrInvalidDraftBody, http.StatusBadRequest)
		return
	}
	content, err := req.bytes()
	if err != nil {
		serverLogger.Debug().Err(err).Msg("Rejected draft body")
		http.Error(w, config.ErrInvalidDraftBody, http.StatusBadRequest)
		return
	}

	rec := draft.NewRecord(content, req.Fields)
	if err := s.store.Put(r.Context(), rec); err != nil {
		serverLogger.Error().Err(err).Msg("Error saving draft")
		http.Error(w, config.ErrDraftNotSaved, http.StatusInternalServerError)
		return
	}

	s.Notify(sse.EventSaved, rec.Hash)
	w.Header().Set(config.HETag, `"`+rec.Hash+`"`)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Remove(r.Context()); err != nil {
		serverLogger.Error().Err(err).Msg("Error deleting draft")
		http.Error(w, config.ErrDraftNotDeleted, http.StatusInternalServerError)
		return
	}

	s.Notify(sse.EventDeleted, draft.RecordID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) servePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxDraftBytes)

	var content []byte
	if strings.HasPrefix(r.Header.Get(config.HCType), config.CTypeJSON) {
		var req DraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, config.ErrInvalidDraftBody, http.StatusBadRequest)
			return
		}
		var err error
		if content, err = req.bytes(); err != nil {
			http.Error(w, config.ErrInvalidDraftBody, http.StatusBadRequest)
			return
		}
	} else {
		content = []byte(r.FormValue("content"))
	}
	if len(content) == 0 {
		content = []byte("Start typing in the editor to see a preview here.")
	}

	html, title := s.previewer.Preview(content)

	w.Header().Set(config.HCType, config.CTypeHTML)
	if title != "" {
		w.Header().Set("X-Draft-Title", title)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

func (s *Server) servePreviewCSS(w http.ResponseWriter, r *http.Request) {
	theme := r.URL.Query().Get("theme")
	if theme == "" {
		theme = s.previewer.SyntaxTheme()
	}

	w.Header().Set(config.HCType, "text/css")
	w.Header().Set(config.HCacheControl, "public, max-age=3600")
	w.Write([]byte(render.SyntaxCSS(theme)))
}

func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, config.CTypeEvent)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := sse.NewClient(sse.TopicDraft)
	s.clients.Add(client)
	serverLogger.Debug().Str("client", client.ID).Msg("SSE client connected")
	defer func() {
		s.clients.Delete(client)
		serverLogger.Debug().Str("client", client.ID).Msg("SSE client disconnected")
	}()

	sse.Event{Name: sse.EventConnected, Data: client.ID}.Write(w)
	flusher.Flush()

	for {
		select {
		case ev := <-client.Msg:
			if err := ev.Write(w); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// ListenAndServe runs the handler until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		serverLogger.Info().Str("addr", addr).Msg("Starting server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		serverLogger.Info().Msg("Shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
