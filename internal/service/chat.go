package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatgw/internal/backend"
	"chatgw/internal/cache"
	"chatgw/internal/model"
)

var (
	// ErrNoActiveChat is returned when an operation requires an active
	// conversation and none exists.
	ErrNoActiveChat = errors.New("no active conversation")

	// ErrChatNotFound is returned when the referenced conversation does not exist.
	ErrChatNotFound = errors.New("conversation not found")
)

const seedMessage = "I am your AI assistant. How can I help?"

// ChatService owns the conversation collection and the active-conversation
// pointer, and orchestrates calls to the chat endpoint with assembled
// context. Conversations and messages have a single in-memory authority
// here, mirrored to the persisted cache on every mutation.
type ChatService interface {
	// Create allocates a conversation seeded with one system message and
	// makes it active. An empty title gets a generated default.
	Create(ctx context.Context, title string) (*model.Chat, error)

	// SetActive switches the active pointer. An unknown id clears it.
	SetActive(id string)

	// Active returns a copy of the active conversation, or nil.
	Active() *model.Chat

	// Chats returns a copy of the collection in its current order.
	Chats() []model.Chat

	// Send appends a user message to the active conversation, invokes the
	// chat endpoint with the full history, the conversation's document ids
	// and the question, and appends the assistant's answer. The user
	// message is kept even when the endpoint call fails: preserving input
	// wins over transactional consistency. Sends on the same conversation
	// are serialized; sends on different conversations may interleave.
	Send(ctx context.Context, content string) (*model.Chat, error)

	// Delete removes the conversation. If it was active, the first
	// remaining conversation becomes active, or none.
	Delete(ctx context.Context, id string) error

	// SetDocuments replaces the document association wholesale.
	SetDocuments(ctx context.Context, id string, documentIDs []string) error

	// DocumentsForActive resolves the active conversation's document ids
	// through the directory, in directory order. Dangling ids are dropped
	// silently, never repaired.
	DocumentsForActive() []model.Document
}

type chatService struct {
	cache     cache.Cache
	backend   backend.ChatBackend
	directory DocumentDirectory

	mu       sync.RWMutex
	chats    []model.Chat
	activeID string
	sendMu   map[string]*sync.Mutex
}

// NewChatService constructs the chat store and hydrates conversations from
// the persisted cache; the first conversation becomes active. A corrupt
// record is purged and the store starts empty.
func NewChatService(ctx context.Context, c cache.Cache, b backend.ChatBackend, dir DocumentDirectory) ChatService {
	s := &chatService{cache: c, backend: b, directory: dir, sendMu: make(map[string]*sync.Mutex)}

	data, err := c.Get(ctx, cache.KeyChats)
	if err != nil {
		return s
	}
	var chats []model.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		_ = c.Delete(ctx, cache.KeyChats)
		return s
	}
	s.chats = chats
	if len(chats) > 0 {
		s.activeID = chats[0].ID
	}
	return s
}

func (s *chatService) Create(ctx context.Context, title string) (*model.Chat, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	if title == "" {
		title = fmt.Sprintf("New Chat %d", len(s.chats)+1)
	}
	chat := model.Chat{
		ID:    uuid.NewString(),
		Title: title,
		Messages: []model.Message{{
			ID:        uuid.NewString(),
			Role:      model.RoleSystem,
			Content:   seedMessage,
			Timestamp: now,
		}},
		DocumentIDs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.chats = append(s.chats, chat)
	s.activeID = chat.ID
	data, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, cache.KeyChats, data); err != nil {
		return nil, fmt.Errorf("persist chats: %w", err)
	}
	return &chat, nil
}

func (s *chatService) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		s.activeID = ""
		return
	}
	s.activeID = id
}

func (s *chatService) Active() *model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(s.activeID)
	if i < 0 {
		return nil
	}
	chat := copyChat(s.chats[i])
	return &chat
}

func (s *chatService) Chats() []model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = copyChat(c)
	}
	return out
}

func (s *chatService) Send(ctx context.Context, content string) (*model.Chat, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content", ErrValidation)
	}

	s.mu.Lock()
	i := s.indexLocked(s.activeID)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrNoActiveChat
	}
	chatID := s.chats[i].ID
	lock := s.sendLockLocked(chatID)
	s.mu.Unlock()

	// Advisory per-conversation lock: overlapping sends on one conversation
	// serialize here while other conversations proceed.
	lock.Lock()
	defer lock.Unlock()

	// Append the user message. The conversation may have been deleted while
	// we waited for the lock.
	s.mu.Lock()
	i = s.indexLocked(chatID)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrChatNotFound
	}
	now := time.Now().UTC()
	s.chats[i].Messages = append(s.chats[i].Messages, model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleUser,
		Content:   content,
		Timestamp: now,
	})
	s.chats[i].UpdatedAt = now
	req := backend.AskRequest{
		ChatID:      chatID,
		History:     append([]model.Message(nil), s.chats[i].Messages...),
		DocumentIDs: append([]string(nil), s.chats[i].DocumentIDs...),
		Question:    content,
	}
	data, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, cache.KeyChats, data); err != nil {
		return nil, fmt.Errorf("persist chats: %w", err)
	}

	answer, err := s.backend.Ask(ctx, req)
	if err != nil {
		// No rollback: the user message stays appended.
		return nil, err
	}

	s.mu.Lock()
	i = s.indexLocked(chatID)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrChatNotFound
	}
	now = time.Now().UTC()
	s.chats[i].Messages = append(s.chats[i].Messages, model.Message{
		ID:        uuid.NewString(),
		Role:      model.RoleAssistant,
		Content:   answer,
		Timestamp: now,
	})
	s.chats[i].UpdatedAt = now
	chat := copyChat(s.chats[i])
	data, err = s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, cache.KeyChats, data); err != nil {
		return nil, fmt.Errorf("persist chats: %w", err)
	}
	return &chat, nil
}

func (s *chatService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrChatNotFound
	}
	s.chats = append(s.chats[:i], s.chats[i+1:]...)
	delete(s.sendMu, id)
	if s.activeID == id {
		if len(s.chats) > 0 {
			s.activeID = s.chats[0].ID
		} else {
			s.activeID = ""
		}
	}
	empty := len(s.chats) == 0
	data, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if empty {
		return s.cache.Delete(ctx, cache.KeyChats)
	}
	return s.cache.Put(ctx, cache.KeyChats, data)
}

func (s *chatService) SetDocuments(ctx context.Context, id string, documentIDs []string) error {
	if id == "" {
		return ErrIDRequired
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrChatNotFound
	}
	s.chats[i].DocumentIDs = append([]string(nil), documentIDs...)
	s.chats[i].UpdatedAt = time.Now().UTC()
	data, err := s.encodeLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.cache.Put(ctx, cache.KeyChats, data)
}

func (s *chatService) DocumentsForActive() []model.Document {
	s.mu.RLock()
	i := s.indexLocked(s.activeID)
	var wanted map[string]struct{}
	if i >= 0 {
		wanted = make(map[string]struct{}, len(s.chats[i].DocumentIDs))
		for _, id := range s.chats[i].DocumentIDs {
			wanted[id] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := []model.Document{}
	if len(wanted) == 0 {
		return out
	}
	// Directory order, not association order. Dangling ids simply never match.
	for _, doc := range s.directory.All() {
		if _, ok := wanted[doc.ID]; ok {
			out = append(out, doc)
		}
	}
	return out
}

// indexLocked returns the position of id in the collection, or -1.
func (s *chatService) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == id {
			return i
		}
	}
	return -1
}

// sendLockLocked returns the advisory lock for a conversation id.
func (s *chatService) sendLockLocked(id string) *sync.Mutex {
	if l, ok := s.sendMu[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.sendMu[id] = l
	return l
}

func (s *chatService) encodeLocked() ([]byte, error) {
	data, err := json.Marshal(s.chats)
	if err != nil {
		return nil, fmt.Errorf("encode chats: %w", err)
	}
	return data, nil
}

func copyChat(c model.Chat) model.Chat {
	out := c
	out.Messages = append([]model.Message(nil), c.Messages...)
	out.DocumentIDs = append([]string(nil), c.DocumentIDs...)
	return out
}
