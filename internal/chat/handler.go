// Package chat serves the browser-facing provider endpoints: chat turns,
// image renders and the advisor's static script.
package chat

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/conversation"
	"mxdrAdvisor/internal/gateway"
	"mxdrAdvisor/internal/httpjson"
	"mxdrAdvisor/internal/imagegen"
	"mxdrAdvisor/internal/prompts"
	"mxdrAdvisor/internal/protocol"
	"mxdrAdvisor/internal/storage"
)

// Provider is the gateway surface the handlers use.
type Provider interface {
	gateway.ChatCompleter
	gateway.ImageRenderer
}

// Handler exposes POST /api/chat, POST /api/image and GET /api/advisor.
type Handler struct {
	Gateway Provider
	Leads   conversation.LeadSink
	Log     zerolog.Logger
}

type chatRequest struct {
	SystemPrompt string            `json:"systemPrompt"`
	Messages     []gateway.Message `json:"messages"`
	LeadData     *leadData         `json:"leadData"`
}

// leadData is the lead form payload. Numbers may arrive as strings.
type leadData struct {
	Company        string  `json:"company"`
	Industry       string  `json:"industry"`
	Employees      flexInt `json:"employees"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Summary        string  `json:"summary"`
	Score          flexInt `json:"score"`
	Recommendation string  `json:"recommendation"`
}

func (d leadData) input() storage.LeadInput {
	return storage.LeadInput{
		CompanyName:         d.Company,
		Industry:            d.Industry,
		EmployeeCount:       d.Employees.Value,
		ContactName:         d.Name,
		ContactEmail:        d.Email,
		ContactPhone:        d.Phone,
		QualificationScore:  d.Score.Value,
		RecommendedSolution: d.Recommendation,
		ChatSummary:         d.Summary,
	}
}

// flexInt accepts 40, "40" or null. Anything unparsable is treated as absent.
type flexInt struct {
	Value *int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if raw == "" || raw == "null" {
		f.Value = nil
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(raw, 64); ferr == nil {
			n = int(fl)
		} else {
			f.Value = nil
			return nil
		}
	}
	f.Value = &n
	return nil
}

// Chat handles POST /api/chat. A request carrying leadData persists the
// lead first; with no messages it returns without calling the model.
func (h Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.LeadData != nil {
		if h.Leads != nil {
			h.Leads.Capture(r.Context(), req.LeadData.input())
		} else {
			h.Log.Warn().Msg("lead data received but lead capture is disabled")
		}
		if len(req.Messages) == 0 {
			httpjson.Success(w)
			return
		}
	}

	if len(req.Messages) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "Messages required")
		return
	}

	systemPrompt := req.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = prompts.AdvisorSystemPrompt()
	}

	text, err := h.Gateway.CompleteChat(r.Context(), systemPrompt, req.Messages)
	switch {
	case errors.Is(err, gateway.ErrChatNotConfigured):
		httpjson.Error(w, http.StatusInternalServerError, err.Error())
		return
	case err != nil:
		h.Log.Error().Err(err).Int("messages", len(req.Messages)).Msg("chat completion failed")
		httpjson.Error(w, http.StatusInternalServerError, "AI service error")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"response": text})
}

type imageRequest struct {
	Prompt string                 `json:"prompt"`
	Scene  *protocol.ScenePayload `json:"scene"`
}

// Image handles POST /api/image. Callers send either a finished prompt or a
// scene payload to be wrapped in the house style.
func (h Handler) Image(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" && req.Scene != nil {
		built, err := prompts.ImagePrompt(*req.Scene)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		prompt = built
	}
	if prompt == "" {
		httpjson.Error(w, http.StatusBadRequest, "Prompt required")
		return
	}

	res, err := h.Gateway.GenerateImage(r.Context(), prompt)
	if err != nil {
		if !errors.Is(err, imagegen.ErrNotConfigured) {
			h.Log.Error().Err(err).Msg("image generation failed")
		}
		httpjson.Error(w, http.StatusInternalServerError, imageErrorMessage(err))
		return
	}
	httpjson.Write(w, http.StatusOK, res)
}

// imageErrorMessage is the text shown to callers of /api/image. Provider
// errors pass through as-is.
func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, imagegen.ErrNotConfigured):
		return "No image API configured. Set TOGETHER_API_KEY or REPLICATE_API_TOKEN"
	case errors.Is(err, imagegen.ErrNoImage):
		return "No image returned"
	}
	return err.Error()
}

type stageInfo struct {
	ID    protocol.Stage `json:"id"`
	Label string         `json:"label"`
}

// Advisor handles GET /api/advisor with the greeting, sample openers and
// stage labels a front end needs to render the chat.
func (h Handler) Advisor(w http.ResponseWriter, _ *http.Request) {
	stages := []stageInfo{}
	for _, s := range []protocol.Stage{protocol.StageDiscovery, protocol.StageAssessment, protocol.StageDeepDive, protocol.StageRecommendation} {
		stages = append(stages, stageInfo{ID: s, Label: s.Label()})
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"greeting":     prompts.Greeting,
		"systemPrompt": prompts.AdvisorSystemPrompt(),
		"avatarScene":  prompts.AvatarScene,
		"samples":      prompts.Samples(),
		"stages":       stages,
	})
}
