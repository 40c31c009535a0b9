// Package rag answers questions about ingested papers by retrieving chunks
// from the store and handing them to the LLM as grounding context.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"paper-rag/internal/cache"
	"paper-rag/internal/llm"
	"paper-rag/internal/store"
)

// ErrNoQuestion is returned when the conversation has no user turn.
var ErrNoQuestion = errors.New("conversation has no user message")

// Source points at a stored chunk that grounded an answer.
type Source struct {
	ObjectID   string `json:"object_id"`
	Collection string `json:"collection"`
}

// Response is the answer returned to chat clients.
type Response struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Answerer answers a conversation.
type Answerer interface {
	Answer(ctx context.Context, messages []llm.Message) (Response, error)
}

// Options tune retrieval.
type Options struct {
	TopK     int
	CacheTTL time.Duration
}

// Service is the default Answerer.
type Service struct {
	store store.Store
	llm   llm.Client
	cache cache.Cache
	log   *slog.Logger
	opts  Options
}

// NewService wires a Service. A nil cache disables caching.
func NewService(st store.Store, client llm.Client, c cache.Cache, log *slog.Logger, opts Options) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Service{store: st, llm: client, cache: c, log: log, opts: opts}
}

func (s *Service) Answer(ctx context.Context, messages []llm.Message) (Response, error) {
	question := LastUserMessage(messages)
	if question == "" {
		return Response{}, ErrNoQuestion
	}

	key := conversationKey(messages)
	var cached Response
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("answer cache lookup failed", "err", err)
	} else if hit {
		s.log.Debug("answer cache hit", "key", key)
		return cached, nil
	}

	hits, err := s.store.Search(ctx, question, s.opts.TopK)
	if err != nil {
		return Response{}, fmt.Errorf("search chunks: %w", err)
	}
	answer, err := s.llm.Answer(ctx, messages, BuildContext(hits))
	if err != nil {
		return Response{}, fmt.Errorf("generate answer: %w", err)
	}

	resp := Response{Response: answer, Sources: make([]Source, 0, len(hits))}
	for _, h := range hits {
		resp.Sources = append(resp.Sources, Source{ObjectID: h.ObjectID, Collection: h.Collection})
	}
	if err := s.cache.Set(ctx, key, resp, s.opts.CacheTTL); err != nil {
		s.log.Warn("answer cache store failed", "err", err)
	}
	s.log.Info("answered question", "hits", len(hits), "turns", len(messages))
	return resp, nil
}

// LastUserMessage returns the content of the latest user turn, or "".
func LastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

// BuildContext renders hits as numbered excerpts.
func BuildContext(hits []store.Hit) string {
	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, h.DocTitle, h.Text)
	}
	return b.String()
}

func conversationKey(messages []llm.Message) string {
	parts := make([]string, 0, 2*len(messages))
	for _, m := range messages {
		parts = append(parts, m.Role, m.Content)
	}
	return cache.Key(parts...)
}
