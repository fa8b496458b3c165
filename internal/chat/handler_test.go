package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mxdrAdvisor/internal/gateway"
	"mxdrAdvisor/internal/imagegen"
	"mxdrAdvisor/internal/leads"
	"mxdrAdvisor/internal/storage"
)

type fakeProvider struct {
	chatCalls    int
	systemPrompt string
	history      []gateway.Message
	reply        string
	chatErr      error

	prompt   string
	image    imagegen.Result
	imageErr error
}

func (f *fakeProvider) CompleteChat(_ context.Context, systemPrompt string, history []gateway.Message) (string, error) {
	f.chatCalls++
	f.systemPrompt = systemPrompt
	f.history = history
	return f.reply, f.chatErr
}

func (f *fakeProvider) GenerateImage(_ context.Context, prompt string) (imagegen.Result, error) {
	f.prompt = prompt
	return f.image, f.imageErr
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestChatLeadDataWithoutMessagesSkipsModel(t *testing.T) {
	store := storage.NewInMemoryStore()
	provider := &fakeProvider{}
	h := Handler{Gateway: provider, Leads: leads.NewRecorder(store, nil, zerolog.Nop()), Log: zerolog.Nop()}

	rec := post(h.Chat, `{"leadData":{"company":"Unknown","industry":"medical","employees":"40","email":"a@b.example","phone":"","summary":"user: hi","score":8,"recommendation":"MXDR"},"messages":[]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Zero(t, provider.chatCalls)

	stored, err := store.ListLeads(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 40, *stored[0].EmployeeCount)
	assert.Equal(t, 8, stored[0].QualificationScore)
	assert.Nil(t, stored[0].ContactPhone)
}

func TestChatLeadDataPersistFailureStillSucceeds(t *testing.T) {
	provider := &fakeProvider{}
	h := Handler{Gateway: provider, Leads: leads.NewRecorder(nil, nil, zerolog.Nop()), Log: zerolog.Nop()}

	rec := post(h.Chat, `{"leadData":{"employees":null,"score":"n/a"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Zero(t, provider.chatCalls)
}

func TestChatForwardsConversation(t *testing.T) {
	provider := &fakeProvider{reply: "[STAGE: discovery] Hi there"}
	h := Handler{Gateway: provider, Log: zerolog.Nop()}

	rec := post(h.Chat, `{"systemPrompt":"custom","messages":[{"role":"user","content":"hello"},{"role":"image","content":""}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"[STAGE: discovery] Hi there"}`, rec.Body.String())
	assert.Equal(t, "custom", provider.systemPrompt)
	assert.Len(t, provider.history, 2)
}

func TestChatDefaultsSystemPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	h := Handler{Gateway: provider, Log: zerolog.Nop()}

	post(h.Chat, `{"messages":[{"role":"user","content":"hello"}]}`)
	assert.Contains(t, provider.systemPrompt, "[STAGE: discovery]")
}

func TestChatErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		body   string
		status int
		want   string
	}{
		{"no messages", nil, `{}`, http.StatusBadRequest, `{"error":"Messages required"}`},
		{"bad json", nil, `[`, http.StatusBadRequest, `{"error":"invalid request body"}`},
		{"no key", gateway.ErrChatNotConfigured, `{"messages":[{"role":"user","content":"x"}]}`, http.StatusInternalServerError, `{"error":"API key not configured"}`},
		{"upstream", errors.New("gemini status 429: quota"), `{"messages":[{"role":"user","content":"x"}]}`, http.StatusInternalServerError, `{"error":"AI service error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Handler{Gateway: &fakeProvider{chatErr: tc.err}, Log: zerolog.Nop()}
			rec := post(h.Chat, tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestImage(t *testing.T) {
	provider := &fakeProvider{image: imagegen.Result{Image: "https://replicate.delivery/x.webp", Provider: "replicate"}}
	h := Handler{Gateway: provider, Log: zerolog.Nop()}

	rec := post(h.Image, `{"prompt":"a shield"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"image":"https://replicate.delivery/x.webp","provider":"replicate"}`, rec.Body.String())
	assert.Equal(t, "a shield", provider.prompt)

	rec = post(h.Image, `{"scene":{"scene_goal":"Cloud security","hero":"cloud","supporting_elements":["lock"],"context_cue":"hybrid","emotion":"calm"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, provider.prompt, "SCENE PAYLOAD:")
	assert.Contains(t, provider.prompt, `"hero": "cloud"`)

	rec = post(h.Image, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Prompt required"}`, rec.Body.String())
}

func TestImageErrors(t *testing.T) {
	h := Handler{Gateway: &fakeProvider{imageErr: imagegen.ErrNotConfigured}, Log: zerolog.Nop()}
	rec := post(h.Image, `{"prompt":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"No image API configured. Set TOGETHER_API_KEY or REPLICATE_API_TOKEN"}`, rec.Body.String())

	h = Handler{Gateway: &fakeProvider{imageErr: fmt.Errorf("together: %w", imagegen.ErrNoImage)}, Log: zerolog.Nop()}
	rec = post(h.Image, `{"prompt":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"No image returned"}`, rec.Body.String())

	h = Handler{Gateway: &fakeProvider{imageErr: errors.New("Invalid API key provided")}, Log: zerolog.Nop()}
	rec = post(h.Image, `{"prompt":"p"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid API key provided"}`, rec.Body.String())
}

func TestAdvisor(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler{Log: zerolog.Nop()}.Advisor(rec, httptest.NewRequest(http.MethodGet, "/api/advisor", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Greeting string `json:"greeting"`
		Samples  []struct {
			Label string `json:"label"`
		} `json:"samples"`
		Stages []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Greeting, "Hi! I'm your AI security advisor."))
	assert.Len(t, body.Samples, 4)
	require.Len(t, body.Stages, 4)
	assert.Equal(t, "deep-dive", body.Stages[2].ID)
}
