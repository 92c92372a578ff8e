package levels

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/polypixel/polypixel/backend-go/internal/auth"
	"github.com/polypixel/polypixel/backend-go/internal/engine"
	"github.com/polypixel/polypixel/backend-go/internal/level"
	"github.com/polypixel/polypixel/backend-go/internal/play"
	"github.com/polypixel/polypixel/backend-go/internal/preview"
)

const (
	maxDocumentSize = 1 << 20
	maxPreviewScale = 2
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type scoreRequest struct {
	SessionID string  `json:"sessionId"`
	Lines     int     `json:"lines"`
	Parts     int     `json:"parts"`
	Gap       float64 `json:"gap"`
	Stars     int     `json:"stars"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(r.Context(), mux.Vars(r)["levelId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Preview renders the level in its initial state as a PNG. The optional
// "scale" query parameter shrinks or enlarges the image.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Get(r.Context(), mux.Vars(r)["levelId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}

	scale := 1.0
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > maxPreviewScale {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "scale must be in (0, 2]"})
			return
		}
		scale = f
	}

	e := engine.NewEngine()
	if err := e.LoadLevel(l); err != nil {
		handleServiceError(w, err)
		return
	}
	snap := e.Snapshot()
	img := preview.NewRenderer(scale).Render(snap.Width, snap.Height, engine.CompileDrawCommands(snap, nil))

	var buf bytes.Buffer
	if err := preview.EncodePNG(&buf, img); err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	l, err := h.service.Create(r.Context(), doc, playerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), mux.Vars(r)["levelId"], playerID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	scores, err := h.service.ListScores(r.Context(), mux.Vars(r)["levelId"], limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	entry, err := h.service.SubmitScore(r.Context(), play.Score{
		LevelID:   mux.Vars(r)["levelId"],
		PlayerID:  playerID,
		SessionID: req.SessionID,
		Lines:     req.Lines,
		Parts:     req.Parts,
		Gap:       req.Gap,
		Stars:     req.Stars,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrInvalid), errors.Is(err, level.ErrInvalidLevel):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("levels request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
