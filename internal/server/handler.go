package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/source"
	"github.com/msto63/chomsky/internal/store"
	chkerr "github.com/msto63/chomsky/pkg/core/error"
	"github.com/msto63/chomsky/pkg/core/health"
	"github.com/msto63/chomsky/pkg/core/logging"
	"github.com/msto63/chomsky/pkg/core/version"
)

const maxBodyBytes = 1 << 20

// CheckRequest is the body of POST /api/v1/check
type CheckRequest struct {
	Sentence  string   `json:"sentence,omitempty"`
	Sentences []string `json:"sentences,omitempty"`
}

// CheckResponse answers a check request
type CheckResponse struct {
	Verdicts []checker.Verdict `json:"verdicts"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Comments int               `json:"comments,omitempty"`
}

// RunResponse is a stored run with its results
type RunResponse struct {
	Run     *store.Run      `json:"run"`
	Results []*store.Result `json:"results"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Handler serves the REST API
type Handler struct {
	checker SentenceChecker
	prefix  string
	store   store.Store
	health  *health.Registry
	logger  *logging.Logger
}

// NewHandler creates the REST handler. The store may be nil.
func NewHandler(c SentenceChecker, st store.Store, registry *health.Registry, commentPrefix string) *Handler {
	return &Handler{
		checker: c,
		prefix:  commentPrefix,
		store:   st,
		health:  registry,
		logger:  logging.New("http-handler"),
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)
	case path == "health":
		h.handleHealth(w, r)
	case path == "check":
		h.handleCheck(w, r)
	case path == "lexicon":
		h.handleLexicon(w, r)
	case path == "runs":
		h.handleRuns(w, r)
	case path == "stats":
		h.handleStats(w, r)
	case strings.HasPrefix(path, "runs/"):
		h.handleRun(w, r, strings.TrimPrefix(path, "runs/"))
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", r.URL.Path)
	}
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"name":    "chomsky",
		"version": version.Get(),
		"grammar": []string{
			"S  ::= NP V NP EOS",
			"NP ::= A AN",
			"AN ::= ADJ N | N",
		},
	}
	if cached, ok := h.checker.(*cachedChecker); ok {
		resp["cache"] = cached.stats()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	report := h.health.Check(ctx)
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use POST", "")
		return
	}

	var req CheckRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read body", err.Error())
		return
	}
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON", err.Error())
		return
	}

	input := req.Sentences
	if req.Sentence != "" {
		input = append([]string{req.Sentence}, input...)
	}

	var resp CheckResponse
	sentences := make([]string, 0, len(input))
	for _, text := range input {
		item, ok := source.Classify(text, h.prefix)
		if !ok {
			continue
		}
		if item.Kind == source.KindComment {
			resp.Comments++
			continue
		}
		sentences = append(sentences, item.Text)
	}
	if len(sentences) == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "sentence or sentences is required", "")
		return
	}

	resp.Verdicts = make([]checker.Verdict, 0, len(sentences))
	for _, s := range sentences {
		v := h.checker.Check(s)
		if v.Err != nil {
			h.logger.Error("Check failed", "sentence", s, "error", v.Err)
			h.writeError(w, http.StatusInternalServerError, "internal_error", "Check failed", v.Err.Error())
			return
		}
		if v.Accepted {
			resp.Passed++
		} else {
			resp.Failed++
		}
		resp.Verdicts = append(resp.Verdicts, v)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLexicon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return
	}

	lex := h.checker.Parser().Lexicon()
	words := make(map[string][]string)
	for _, c := range grammar.WordCategories() {
		words[c.String()] = lex.Words(c)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"size":  lex.Size(),
		"words": words,
	})
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer", v)
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "total": len(runs)})
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request, id string) {
	if !h.requireStore(w, r) {
		return
	}

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	results, err := h.store.ListResults(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, RunResponse{Run: run, Results: results})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w, r) {
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET", "")
		return false
	}
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "Result store is disabled", "")
		return false
	}
	return true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if chkerr.HasCode(err, chkerr.CodeNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "Run not found", err.Error())
		return
	}
	h.logger.Error("Store request failed", "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal_error", "Store request failed", err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
