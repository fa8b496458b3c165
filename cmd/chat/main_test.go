package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mxdrAdvisor/internal/gateway"
	"mxdrAdvisor/internal/leads"
	"mxdrAdvisor/internal/prompts"
	"mxdrAdvisor/internal/storage"
)

type cannedChat struct {
	mu      sync.Mutex
	reply   string
	history [][]gateway.Message
}

func (c *cannedChat) CompleteChat(_ context.Context, _ string, history []gateway.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, history)
	return c.reply, nil
}

func newApp(t *testing.T, chat gateway.ChatCompleter) (app, storage.Store) {
	t.Helper()
	store, err := storage.NewStore(context.Background(), "memory://")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return app{Chat: chat, Leads: leads.NewRecorder(store, nil, zerolog.Nop()), Log: zerolog.Nop()}, store
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestRunCommands(t *testing.T) {
	chat := &cannedChat{reply: "[STAGE: assessment] Tell me more about your team."}
	a, store := newApp(t, chat)
	var out bytes.Buffer

	err := run(context.Background(), a, script(
		"/samples",
		"/sample 1",
		"/close",
		"/close",
		"/lead late@clinic.example",
		"after close",
		"/reset",
		"/lead owner@clinic.example 0400 000 000",
		"/quit",
	), &out)
	require.NoError(t, err)

	text := out.String()
	for _, s := range prompts.Samples() {
		assert.Contains(t, text, s.Label)
	}
	assert.Contains(t, text, "advisor: Tell me more about your team.")
	assert.Contains(t, text, "[Security Assessment] > ")
	assert.Contains(t, text, "chat closed; use /reset to start over")
	assert.Equal(t, 2, strings.Count(text, "chat is already closed"))
	assert.Contains(t, text, "chat is closed; use /reset to start over")
	assert.Contains(t, text, "thanks, a specialist will be in touch")
	assert.Equal(t, 2, strings.Count(text, "advisor: "+prompts.Greeting))

	require.Len(t, chat.history, 1)
	sent := chat.history[0]
	assert.Equal(t, gateway.Message{Role: "user", Content: prompts.Samples()[0].Message}, sent[len(sent)-1])

	stored, err := store.ListLeads(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	var closed, contact *storage.Lead
	for i := range stored {
		if stored[i].ContactEmail == nil {
			closed = &stored[i]
		} else {
			contact = &stored[i]
		}
	}
	require.NotNil(t, closed)
	require.NotNil(t, contact)

	require.NotNil(t, closed.Industry)
	assert.Equal(t, "medical", *closed.Industry)
	require.NotNil(t, closed.EmployeeCount)
	assert.Equal(t, 40, *closed.EmployeeCount)

	assert.Equal(t, "owner@clinic.example", *contact.ContactEmail)
	require.NotNil(t, contact.ContactPhone)
	assert.Equal(t, "0400 000 000", *contact.ContactPhone)
	assert.Nil(t, contact.Industry)
}

func TestRunRejectsBadArguments(t *testing.T) {
	chat := &cannedChat{reply: "ok"}
	a, store := newApp(t, chat)
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), a, script("/sample 9", "/sample x", "/lead"), &out))

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, "pick a sample between 1 and 4"))
	assert.Contains(t, text, "usage: /lead <email> [phone]")
	assert.Empty(t, chat.history)

	stored, err := store.ListLeads(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRunShowsRecommendationHint(t *testing.T) {
	a, _ := newApp(t, &cannedChat{reply: "[STAGE: recommendation] I'd recommend MXDR."})
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), a, script("what should we do?"), &out))
	assert.Contains(t, out.String(), "(a recommendation is ready")
	assert.Contains(t, out.String(), "[Your Recommendation] > ")
}
