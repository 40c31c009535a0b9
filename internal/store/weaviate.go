package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"paper-rag/internal/chunker"
)

// WeaviateStore keeps papers and chunks in two Weaviate collections. Chunk
// vectors are computed by the collection's vectorizer module.
type WeaviateStore struct {
	client     *weaviate.Client
	cols       Collections
	vectorizer string
}

// WeaviateOptions configures NewWeaviate.
type WeaviateOptions struct {
	URL        string // with or without scheme; https is assumed when missing
	APIKey     string
	Vectorizer string
	Headers    map[string]string // e.g. X-OpenAI-Api-Key for the vectorizer
}

func NewWeaviate(opts WeaviateOptions, cols Collections) (*WeaviateStore, error) {
	scheme, host, err := splitURL(opts.URL)
	if err != nil {
		return nil, err
	}
	cfg := weaviate.Config{
		Host:    host,
		Scheme:  scheme,
		Headers: opts.Headers,
	}
	if opts.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: opts.APIKey}
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}
	return &WeaviateStore{client: client, cols: cols, vectorizer: opts.Vectorizer}, nil
}

func splitURL(raw string) (scheme, host string, err error) {
	if raw == "" {
		return "", "", errors.New("weaviate url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid weaviate url: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid weaviate url %q", raw)
	}
	return u.Scheme, u.Host, nil
}

func (s *WeaviateStore) Collections() Collections { return s.cols }

func (s *WeaviateStore) Close() error { return nil }

// EnsureSchema creates the paper and chunk collections when missing.
func (s *WeaviateStore) EnsureSchema(ctx context.Context) error {
	for _, class := range []*models.Class{s.paperClass(), s.chunkClass()} {
		exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(class.Class).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", class.Class, err)
		}
		if exists {
			continue
		}
		if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", class.Class, err)
		}
	}
	return nil
}

func (s *WeaviateStore) paperClass() *models.Class {
	return &models.Class{
		Class:       s.cols.Papers,
		Description: "Papers downloaded from arXiv.",
		Properties: []*models.Property{
			s.property(PropTitle, "text", "The title of the paper", false),
			s.property(PropAbstract, "text", "The abstract of the paper", false),
			s.property(PropPDFURL, "text", "The URL of the PDF", true),
			s.property(PropDate, "text", "The date of the paper", true),
			s.property(PropAuthors, "text", "The authors of the paper", true),
			s.property(PropFilePath, "text", "The local file path of the PDF", true),
			s.property(PropContent, "text", "The extracted text of the paper", true),
		},
	}
}

func (s *WeaviateStore) chunkClass() *models.Class {
	return &models.Class{
		Class:       s.cols.Chunks,
		Description: "Chunks of the papers. doc_id is the id of the paper in the papers collection.",
		Vectorizer:  s.vectorizer,
		Properties: []*models.Property{
			s.property(PropChunkID, "int", "The position of the chunk in its paper", true),
			s.property(PropDocID, "uuid", "The id of the paper the chunk belongs to", true),
			s.property(PropChunkText, "text", "The text of the chunk", false),
			s.property(PropDocTitle, "text", "The title of the paper", true),
			s.property(PropStartIndex, "int", "The start offset of the chunk in the paper text", true),
			s.property(PropEndIndex, "int", "The end offset of the chunk in the paper text", true),
		},
	}
}

func (s *WeaviateStore) property(name, dataType, description string, skip bool) *models.Property {
	p := &models.Property{
		Name:        name,
		DataType:    []string{dataType},
		Description: description,
	}
	if skip && s.vectorizer != "" && s.vectorizer != "none" {
		p.ModuleConfig = map[string]any{
			s.vectorizer: map[string]any{"skip": true},
		}
	}
	return p
}

func (s *WeaviateStore) CreatePaper(ctx context.Context, p Paper) (string, error) {
	id := uuid.NewString()
	_, err := s.client.Data().Creator().
		WithClassName(s.cols.Papers).
		WithID(id).
		WithProperties(paperProperties(p)).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create paper: %w", err)
	}
	return id, nil
}

func (s *WeaviateStore) InsertChunks(ctx context.Context, docTitle string, chunks []chunker.Chunk) ([]InsertFailure, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	objects := make([]*models.Object, len(chunks))
	chunkIDs := make(map[strfmt.UUID]int, len(chunks))
	for i, c := range chunks {
		id := strfmt.UUID(uuid.NewString())
		chunkIDs[id] = c.ID
		objects[i] = &models.Object{
			Class:      s.cols.Chunks,
			ID:         id,
			Properties: chunkProperties(docTitle, c),
		}
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chunk batch: %w", err)
	}

	var failures []InsertFailure
	for _, r := range resp {
		if r.Result == nil || r.Result.Errors == nil || len(r.Result.Errors.Error) == 0 {
			continue
		}
		msgs := make([]string, 0, len(r.Result.Errors.Error))
		for _, e := range r.Result.Errors.Error {
			msgs = append(msgs, e.Message)
		}
		failures = append(failures, InsertFailure{
			ChunkID: chunkIDs[r.ID],
			Message: strings.Join(msgs, "; "),
		})
	}
	return failures, nil
}

func (s *WeaviateStore) GetObject(ctx context.Context, collection, id string) (map[string]any, error) {
	if collection != s.cols.Papers && collection != s.cols.Chunks {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	objs, err := s.client.Data().ObjectsGetter().
		WithClassName(collection).
		WithID(id).
		Do(ctx)
	if err != nil {
		var clientErr *fault.WeaviateClientError
		if errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
		}
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", collection, id, err)
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	props, _ := objs[0].Properties.(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	return props, nil
}

// Search runs a nearText query over the chunk collection.
func (s *WeaviateStore) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	nearText := s.client.GraphQL().NearTextArgBuilder().WithConcepts([]string{query})
	fields := []graphql.Field{
		{Name: PropChunkID},
		{Name: PropDocID},
		{Name: PropChunkText},
		{Name: PropDocTitle},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}
	result, err := s.client.GraphQL().Get().
		WithClassName(s.cols.Chunks).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("search failed: %s", result.Errors[0].Message)
	}
	return parseHits(result.Data, s.cols.Chunks), nil
}

// parseHits reads the Get.<collection> list of a GraphQL response.
func parseHits(data map[string]models.JSONObject, collection string) []Hit {
	get, _ := data["Get"].(map[string]any)
	items, _ := get[collection].([]any)
	hits := make([]Hit, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		h := Hit{
			Collection: collection,
			ChunkID:    asInt(obj[PropChunkID]),
			DocID:      asString(obj[PropDocID]),
			DocTitle:   asString(obj[PropDocTitle]),
			Text:       asString(obj[PropChunkText]),
		}
		if add, ok := obj["_additional"].(map[string]any); ok {
			h.ObjectID = asString(add["id"])
			if d, ok := add["distance"].(float64); ok {
				h.Score = float32(1 - d)
			}
		}
		hits = append(hits, h)
	}
	return hits
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
