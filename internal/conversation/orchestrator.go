package conversation

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"mxdrAdvisor/internal/gateway"
	"mxdrAdvisor/internal/prompts"
	"mxdrAdvisor/internal/protocol"
	"mxdrAdvisor/internal/storage"
)

var (
	// ErrBusy is returned when a turn is already in flight.
	ErrBusy = errors.New("conversation: a reply is still pending")
	// ErrEmptyInput is returned for blank user input.
	ErrEmptyInput = errors.New("conversation: empty input")
	// ErrClosed is returned after the chat was closed or the lead submitted.
	ErrClosed = errors.New("conversation: chat is closed")
)

// ConnectionTrouble replaces the reply when the model call fails. Raw
// provider errors are never shown to the prospect.
const ConnectionTrouble = "I apologize, but I'm having trouble connecting. Please try again."

// LeadSink persists captured leads on a best-effort basis.
type LeadSink interface {
	Capture(ctx context.Context, in storage.LeadInput) bool
}

// Options configures an Orchestrator.
type Options struct {
	// SystemPrompt defaults to the advisor prompt.
	SystemPrompt string
	// Leads receives captured leads; nil disables capture.
	Leads LeadSink
	// AutoCapture stores a lead after every completed turn.
	AutoCapture bool
	// OnMessage is called, outside any lock, for each appended message.
	OnMessage func(Message)
	Log       zerolog.Logger
}

// Orchestrator runs the idle → awaiting-reply → rendering-image → idle turn
// cycle over an explicit Session.
type Orchestrator struct {
	chat   gateway.ChatCompleter
	images gateway.ImageRenderer
	opts   Options
	log    zerolog.Logger
}

// New builds an orchestrator. images may be nil, in which case image
// directives are parsed but never rendered.
func New(chat gateway.ChatCompleter, images gateway.ImageRenderer, opts Options) *Orchestrator {
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = prompts.AdvisorSystemPrompt()
	}
	return &Orchestrator{
		chat:   chat,
		images: images,
		opts:   opts,
		log:    opts.Log.With().Str("component", "conversation").Logger(),
	}
}

// Start renders the advisor avatar, best effort, then appends the greeting.
// No model call is made.
func (o *Orchestrator) Start(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateRenderingImage
	s.mu.Unlock()

	avatar, _ := o.render(ctx, prompts.AvatarScene)

	s.mu.Lock()
	s.avatar = avatar
	s.state = StateIdle
	s.mu.Unlock()

	o.emit(s, Message{Role: RoleAssistant, Content: prompts.Greeting})
	return nil
}

// Reset clears the transcript, stage, recommendation flag and avatar, then
// starts over.
func (o *Orchestrator) Reset(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.resetLocked()
	s.mu.Unlock()
	return o.Start(ctx, s)
}

// Submit runs one turn for the user's input and returns the messages it
// appended, in order. A failed model call appends ConnectionTrouble instead
// of returning an error; a failed render is dropped silently.
func (o *Orchestrator) Submit(ctx context.Context, s *Session, input string) ([]Message, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return nil, ErrClosed
	case s.state != StateIdle:
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.state = StateAwaitingReply
	s.mu.Unlock()

	appended := []Message{o.emit(s, Message{Role: RoleUser, Content: input})}
	history := toGateway(s.Messages())

	reply, err := o.chat.CompleteChat(ctx, o.opts.SystemPrompt, history)
	if err != nil {
		o.log.Error().Err(err).Msg("chat completion failed")
		appended = append(appended, o.emit(s, Message{Role: RoleAssistant, Content: ConnectionTrouble}))
		o.finishTurn(s)
		return appended, nil
	}

	parsed := protocol.Parse(reply)
	if parsed.HasStage() {
		s.mu.Lock()
		s.stage = parsed.Stage
		s.mu.Unlock()
		o.log.Debug().Str("stage", string(parsed.Stage)).Msg("stage changed")
	}

	if parsed.Before != "" {
		appended = append(appended, o.emit(s, Message{Role: RoleAssistant, Content: parsed.Before}))
	}

	if parsed.Image != nil {
		s.mu.Lock()
		s.state = StateRenderingImage
		s.mu.Unlock()

		if image, ok := o.render(ctx, *parsed.Image); ok {
			appended = append(appended, o.emit(s, Message{Role: RoleImage, Image: image, Scene: parsed.Image}))
		}
	}

	if parsed.After != "" {
		appended = append(appended, o.emit(s, Message{Role: RoleAssistant, Content: parsed.After}))
	}

	o.finishTurn(s)
	if o.opts.AutoCapture {
		o.capture(ctx, s, Contact{})
	}
	return appended, nil
}

// Close ends the chat and captures a lead from the transcript. A session is
// captured at most once: later calls return ErrClosed, and a turn still in
// flight returns ErrBusy.
func (o *Orchestrator) Close(ctx context.Context, s *Session) error {
	return o.closeAndCapture(ctx, s, Contact{})
}

// SubmitContact captures a lead with the prospect's contact details and
// ends the chat. It follows the same rules as Close.
func (o *Orchestrator) SubmitContact(ctx context.Context, s *Session, contact Contact) error {
	return o.closeAndCapture(ctx, s, contact)
}

func (o *Orchestrator) closeAndCapture(ctx context.Context, s *Session, contact Contact) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.state != StateIdle:
		s.mu.Unlock()
		return ErrBusy
	}
	s.closed = true
	s.mu.Unlock()

	o.capture(ctx, s, contact)
	return nil
}

func (o *Orchestrator) capture(ctx context.Context, s *Session, contact Contact) {
	if o.opts.Leads == nil {
		return
	}
	lead := ExtractLead(s.Messages(), s.RecommendationAvailable(), contact)
	o.opts.Leads.Capture(ctx, lead)
}

// render turns a scene into an image reference. ok is false when no
// renderer is configured or the provider failed.
func (o *Orchestrator) render(ctx context.Context, scene protocol.ScenePayload) (string, bool) {
	if o.images == nil {
		return "", false
	}
	prompt, err := prompts.ImagePrompt(scene)
	if err != nil {
		o.log.Warn().Err(err).Msg("could not build image prompt")
		return "", false
	}
	res, err := o.images.GenerateImage(ctx, prompt)
	if err != nil {
		o.log.Warn().Err(err).Str("scene_goal", scene.SceneGoal).Msg("image generation failed, skipping image")
		return "", false
	}
	if res.Image == "" {
		return "", false
	}
	return res.Image, true
}

func (o *Orchestrator) emit(s *Session, msg Message) Message {
	s.mu.Lock()
	s.appendLocked(msg)
	s.mu.Unlock()
	if o.opts.OnMessage != nil {
		o.opts.OnMessage(msg)
	}
	return msg
}

func (o *Orchestrator) finishTurn(s *Session) {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

func toGateway(messages []Message) []gateway.Message {
	out := make([]gateway.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, gateway.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
