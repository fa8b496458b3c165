// Package pageedits serves per-block content overrides for marketing pages.
package pageedits

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/httpjson"
	"mxdrAdvisor/internal/storage"
)

// Handler exposes GET and PUT /api/page-edits. Store may be nil, in which
// case both endpoints report the missing database.
type Handler struct {
	Store storage.Store
	Log   zerolog.Logger
}

type blockEdit struct {
	Content   *string   `json:"content"`
	Deleted   bool      `json:"deleted"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Get handles GET /api/page-edits?page_id=.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	pageID := strings.TrimSpace(r.URL.Query().Get("page_id"))
	if pageID == "" {
		httpjson.Error(w, http.StatusBadRequest, "page_id required")
		return
	}
	if h.Store == nil {
		httpjson.Error(w, http.StatusInternalServerError, storage.ErrNotConfigured.Error())
		return
	}

	rows, err := h.Store.PageEdits(r.Context(), pageID)
	if err != nil {
		h.Log.Error().Err(err).Str("page_id", pageID).Msg("failed to fetch page edits")
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	edits := make(map[string]blockEdit, len(rows))
	for _, row := range rows {
		edits[row.BlockID] = blockEdit{Content: row.Content, Deleted: row.Deleted, UpdatedAt: row.UpdatedAt}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"edits": edits})
}

type putRequest struct {
	PageID    string          `json:"page_id"`
	BlockID   string          `json:"block_id"`
	Content   *string         `json:"content"`
	Deleted   json.RawMessage `json:"deleted"`
	UpdatedBy *string         `json:"updated_by"`
}

// Put handles PUT /api/page-edits. The whole row is replaced: an absent
// content clears it, and only a literal true marks the block deleted.
func (h Handler) Put(w http.ResponseWriter, r *http.Request) {
	var req putRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PageID) == "" || strings.TrimSpace(req.BlockID) == "" {
		httpjson.Error(w, http.StatusBadRequest, "page_id and block_id required")
		return
	}
	if h.Store == nil {
		httpjson.Error(w, http.StatusInternalServerError, storage.ErrNotConfigured.Error())
		return
	}

	edit := storage.PageEdit{
		PageID:    req.PageID,
		BlockID:   req.BlockID,
		Content:   req.Content,
		Deleted:   strings.TrimSpace(string(req.Deleted)) == "true",
		UpdatedBy: req.UpdatedBy,
	}
	if _, err := h.Store.UpsertPageEdit(r.Context(), edit); err != nil {
		h.Log.Error().Err(err).Str("page_id", req.PageID).Str("block_id", req.BlockID).Msg("failed to save page edit")
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Success(w)
}
