// Package core runs the coach conversation: it feeds a user's transcript and
// new message to the generative model, executes the calculation the model
// asks for, and persists the finished turn.
package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/yashfitness/backend/internal/fitness"
	"github.com/yashfitness/backend/internal/store"
)

// maxTranscriptMessages caps the retained history at 20 turns. Older
// messages are evicted oldest-first.
const maxTranscriptMessages = 40

// TranscriptStore is the per-user conversation log the orchestrator reads and
// rewrites each turn.
type TranscriptStore interface {
	Load(ctx context.Context, userID int64) []store.ChatMessage
	Save(ctx context.Context, userID int64, history []store.ChatMessage) error
	Clear(ctx context.Context, userID int64) error
}

// ModelClient is the external generative capability. One ModelChat spans one
// logical turn, including the tool-result round-trip.
type ModelClient interface {
	StartChat(history []store.ChatMessage) ModelChat
}

type ModelChat interface {
	Send(ctx context.Context, text string) (*ModelReply, error)
	SendToolResult(ctx context.Context, name string, result fitness.Result) (*ModelReply, error)
}

// ToolCall is a model-issued request to run a named local calculation.
type ToolCall struct {
	Name string
	Args map[string]any
}

// ModelReply is one model response: its text, plus the first function call it
// requested when it wants grounding instead of answering directly.
type ModelReply struct {
	Text string
	Call *ToolCall
}

type ChatService struct {
	transcripts TranscriptStore
	model       ModelClient

	// Serializes turns per user so two concurrent requests cannot overwrite
	// each other's transcript save.
	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewChatService(transcripts TranscriptStore, model ModelClient) *ChatService {
	return &ChatService{
		transcripts: transcripts,
		model:       model,
		userLocks:   make(map[int64]*sync.Mutex),
	}
}

func (s *ChatService) lockFor(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// Ask runs one chat turn for an authenticated user and returns the model's
// final text. The turn is all-or-nothing: any model or persistence failure
// aborts it with an error and no text.
func (s *ChatService) Ask(ctx context.Context, userID int64, message string) (string, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	history := s.transcripts.Load(ctx, userID)

	chat := s.model.StartChat(history)
	reply, err := chat.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("model turn failed: %w", err)
	}

	finalText := reply.Text
	if reply.Call != nil {
		result := dispatchTool(reply.Call)
		followUp, err := chat.SendToolResult(ctx, reply.Call.Name, result)
		if err != nil {
			return "", fmt.Errorf("tool result turn failed: %w", err)
		}
		finalText = followUp.Text
	}

	// Only the user/model text pair is persisted; the tool sub-exchange
	// stays inside this turn.
	updated := append(history,
		store.ChatMessage{Role: store.RoleUser, Text: message},
		store.ChatMessage{Role: store.RoleModel, Text: finalText},
	)
	updated = trimTranscript(updated, maxTranscriptMessages)

	if err := s.transcripts.Save(ctx, userID, updated); err != nil {
		return "", fmt.Errorf("persist transcript: %w", err)
	}
	return finalText, nil
}

// ClearHistory forgets the user's conversation. Safe to call repeatedly.
func (s *ChatService) ClearHistory(ctx context.Context, userID int64) error {
	return s.transcripts.Clear(ctx, userID)
}

// trimTranscript keeps the most recent max messages. When a cut lands inside
// a turn pair, leading messages are dropped until the window opens on a user
// message, so a stray unmatched entry cannot leave a model reply orphaned at
// the front.
func trimTranscript(history []store.ChatMessage, max int) []store.ChatMessage {
	if len(history) <= max {
		return history
	}
	history = history[len(history)-max:]
	for len(history) > 0 && history[0].Role != store.RoleUser {
		history = history[1:]
	}
	return history
}
