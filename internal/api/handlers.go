package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/responder"
	"github.com/strrl/polar-persona/internal/store"
	"github.com/strrl/polar-persona/internal/topics"
)

const maxBodyBytes = 1 << 16

type replyRequest struct {
	Message  string                 `json:"message"`
	Language string                 `json:"lang,omitempty"`
	History  []conversation.Message `json:"history,omitempty"`
}

type replyResponse struct {
	responder.Reply
	Language topics.Language `json:"lang"`
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Normalized string       `json:"normalized"`
	Topic      topics.Label `json:"topic,omitempty"`
	Matched    bool         `json:"matched"`
}

// handleReply answers one user turn. It never fails on the message content:
// an empty message still gets a reply from the general pool.
func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	lang := s.requestLanguage(r, req.Language)
	history := validHistory(req.History)
	reply := s.deps.Responder.Reply(r.Context(), req.Message, history, lang)

	if s.deps.Recorder != nil {
		now := time.Now()
		err := s.deps.Recorder.Append(
			conversation.Message{Role: conversation.RoleUser, Content: req.Message, Timestamp: now},
			conversation.Message{Role: conversation.RoleAssistant, Content: reply.Text, Timestamp: now},
		)
		if err != nil {
			s.log.Warn("failed to record turn", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, replyResponse{Reply: reply, Language: lang})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	normalized := s.deps.Normalizer.Normalize(req.Text)
	topic, ok := s.deps.Classifier.Classify(normalized)
	writeJSON(w, http.StatusOK, classifyResponse{Normalized: normalized, Topic: topic, Matched: ok})
}

func (s *Server) handleBlueprint(w http.ResponseWriter, r *http.Request) {
	if s.deps.Pipeline == nil {
		jsonError(w, "blueprint pipeline is not configured", http.StatusServiceUnavailable)
		return
	}

	snap, _, err := s.deps.Pipeline.Build(r.Context(), s.requestLanguage(r, ""))
	if err != nil {
		jsonError(w, "failed to build blueprint: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		jsonError(w, "snapshot store is not configured", http.StatusServiceUnavailable)
		return
	}

	params := store.ListParams{}
	if raw := r.URL.Query().Get("lang"); raw != "" {
		lang, ok := topics.ParseLanguage(raw)
		if !ok {
			jsonError(w, "unsupported language: "+raw, http.StatusBadRequest)
			return
		}
		params.Language = lang
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		params.Limit = limit
	}

	snapshots, err := s.deps.Store.List(r.Context(), params)
	if err != nil {
		jsonError(w, "failed to list snapshots: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		jsonError(w, "snapshot store is not configured", http.StatusServiceUnavailable)
		return
	}

	snap, err := s.deps.Store.Latest(r.Context(), s.requestLanguage(r, ""))
	s.writeSnapshot(w, snap, err)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		jsonError(w, "snapshot store is not configured", http.StatusServiceUnavailable)
		return
	}

	snap, err := s.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	s.writeSnapshot(w, snap, err)
}

func (s *Server) writeSnapshot(w http.ResponseWriter, snap any, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case err != nil:
		jsonError(w, "failed to load snapshot: "+err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

// requestLanguage resolves the reply language from the body, the lang query
// parameter, then Accept-Language, falling back to the server default.
func (s *Server) requestLanguage(r *http.Request, fromBody string) topics.Language {
	candidates := []string{fromBody, r.URL.Query().Get("lang")}
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(part, ";")
		candidates = append(candidates, tag)
	}

	for _, raw := range candidates {
		if lang, ok := topics.ParseLanguage(raw); ok {
			return lang
		}
	}
	return s.deps.Language
}

func validHistory(history []conversation.Message) []conversation.Message {
	valid := make([]conversation.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role.IsValid() {
			valid = append(valid, msg)
		}
	}
	return valid
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
