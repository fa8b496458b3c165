package pageedits

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mxdrAdvisor/internal/storage"
)

func put(t *testing.T, h Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Put(rec, httptest.NewRequest(http.MethodPut, "/api/page-edits", strings.NewReader(body)))
	return rec
}

func TestPutThenGet(t *testing.T) {
	h := Handler{Store: storage.NewInMemoryStore(), Log: zerolog.Nop()}

	require.Equal(t, http.StatusOK, put(t, h, `{"page_id":"home","block_id":"hero","content":"Sleep at night"}`).Code)
	require.Equal(t, http.StatusOK, put(t, h, `{"page_id":"home","block_id":"cta","content":"x","deleted":"yes"}`).Code)
	require.Equal(t, http.StatusOK, put(t, h, `{"page_id":"home","block_id":"faq","deleted":true}`).Code)
	rec := put(t, h, `{"page_id":"home","block_id":"hero","content":"24/7 eyes on your network"}`)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/page-edits?page_id=home", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Edits map[string]struct {
			Content   *string `json:"content"`
			Deleted   bool    `json:"deleted"`
			UpdatedAt string  `json:"updated_at"`
		} `json:"edits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Edits, 3)
	assert.Equal(t, "24/7 eyes on your network", *body.Edits["hero"].Content)
	assert.False(t, body.Edits["cta"].Deleted)
	assert.True(t, body.Edits["faq"].Deleted)
	assert.Nil(t, body.Edits["faq"].Content)
	assert.NotEmpty(t, body.Edits["hero"].UpdatedAt)
}

func TestValidation(t *testing.T) {
	h := Handler{Store: storage.NewInMemoryStore(), Log: zerolog.Nop()}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/page-edits", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"page_id required"}`, rec.Body.String())

	rec = put(t, h, `{"page_id":"home"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"page_id and block_id required"}`, rec.Body.String())
}

func TestWithoutDatabase(t *testing.T) {
	h := Handler{Log: zerolog.Nop()}

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/page-edits?page_id=home", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"DATABASE_URL not configured"}`, rec.Body.String())

	rec = put(t, h, `{"page_id":"home","block_id":"hero"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
