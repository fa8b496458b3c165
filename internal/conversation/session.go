// Package conversation drives one advisor chat: it sends turns through the
// gateway, splits replies into text and illustrations, tracks the sales
// stage and decides when a lead is worth capturing.
package conversation

import (
	"sync"

	"mxdrAdvisor/internal/protocol"
)

// Role identifies who produced a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleImage     Role = "image"
)

// Message is one transcript entry. Image entries always carry an image
// reference; failed renders are never appended.
type Message struct {
	Role    Role                   `json:"role"`
	Content string                 `json:"content,omitempty"`
	Image   string                 `json:"image,omitempty"`
	Scene   *protocol.ScenePayload `json:"scene,omitempty"`
}

// State is the turn-taking state of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
	StateRenderingImage
)

func (s State) String() string {
	switch s {
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateRenderingImage:
		return "rendering-image"
	default:
		return "idle"
	}
}

// Session is the state of one conversation. It is safe for concurrent use,
// but the orchestrator allows only one turn in flight at a time.
type Session struct {
	mu             sync.Mutex
	messages       []Message
	stage          protocol.Stage
	recommendation bool
	avatar         string
	state          State
	closed         bool
}

// NewSession returns an empty session in the discovery stage.
func NewSession() *Session {
	return &Session{stage: protocol.StageDiscovery}
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Stage returns the current conversation stage.
func (s *Session) Stage() protocol.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// RecommendationAvailable reports whether the advisor has made its pitch.
// Once set it stays set until Reset.
func (s *Session) RecommendationAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recommendation
}

// Avatar returns the advisor portrait, or "" if it could not be rendered.
func (s *Session) Avatar() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.avatar
}

// State returns the turn-taking state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Closed reports whether the chat was closed or the lead form submitted.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// appendLocked adds msg and re-runs recommendation detection. Callers hold mu.
func (s *Session) appendLocked(msg Message) {
	s.messages = append(s.messages, msg)
	if msg.Role == RoleAssistant && !s.recommendation && mentionsRecommendation(msg.Content) {
		s.recommendation = true
	}
}

func (s *Session) resetLocked() {
	s.messages = nil
	s.stage = protocol.StageDiscovery
	s.recommendation = false
	s.avatar = ""
	s.state = StateIdle
	s.closed = false
}
