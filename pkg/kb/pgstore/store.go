package pgstore

import (
	"context"
	"fmt"
	"log"

	"regen-advisor-be/internal/repository/specification"
	"regen-advisor-be/internal/repository/unitofwork"
	"regen-advisor-be/pkg/embedding"
	"regen-advisor-be/pkg/kb"
	"regen-advisor-be/pkg/llm"

	"github.com/google/uuid"
)

// Config encapsulates search parameters for the pgvector store.
type Config struct {
	TopK      int
	Threshold float64
}

func DefaultConfig() Config {
	return Config{
		TopK:      5,
		Threshold: 0.30,
	}
}

// Store implements kb.Retriever over pgvector knowledge collections:
// embed the query, cosine-search the collection, then (for generation)
// answer from the retrieved passages conditioned on the rendered
// conversation.
type Store struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	llm        llm.LLMProvider
	cfg        Config
	logger     *log.Logger
}

var _ kb.Retriever = &Store{}

func NewStore(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	cfg Config,
	logger *log.Logger,
) *Store {
	return &Store{
		uowFactory: uowFactory,
		embedder:   embedder,
		llm:        llmProvider,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *Store) Retrieve(ctx context.Context, collection, query string, topK int) ([]kb.Passage, error) {
	if query == "" {
		return nil, kb.ErrEmptyQuery
	}
	if topK < 1 {
		return nil, kb.ErrInvalidTopK
	}

	embeddingRes, err := s.embedder.Generate(query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, &kb.RetrievalFailedError{Collection: collection, Err: fmt.Errorf("embedding generation: %w", err)}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.KnowledgeEmbeddingRepository().SearchSimilarWithScore(
		ctx,
		embeddingRes.Embedding.Values,
		topK,
		collection,
		s.cfg.Threshold,
	)
	if err != nil {
		return nil, &kb.RetrievalFailedError{Collection: collection, Err: err}
	}

	s.logger.Printf("[KB] Collection %s: %d raw hits for %q", collection, len(scored), truncate(query, 60))

	// One passage per entry, best chunk wins; hits are already score-ordered.
	var passages []kb.Passage
	seen := make(map[string]bool)
	entryIds := make([]uuid.UUID, 0, len(scored))
	for _, hit := range scored {
		entryId := hit.Embedding.EntryId.String()
		if seen[entryId] {
			continue
		}
		seen[entryId] = true
		entryIds = append(entryIds, hit.Embedding.EntryId)
		passages = append(passages, kb.Passage{
			EntryID: entryId,
			Content: hit.Embedding.Document,
			Score:   float32(hit.Similarity),
		})
	}

	if err := s.hydrateTitles(ctx, uow, entryIds, passages); err != nil {
		s.logger.Printf("[WARN] Failed to hydrate passage titles: %v", err)
	}

	return passages, nil
}

func (s *Store) RetrieveAndGenerate(ctx context.Context, req kb.GenerateRequest) (*kb.GeneratedAnswer, error) {
	passages, err := s.Retrieve(ctx, req.Collection, req.Query, s.cfg.TopK)
	if err != nil {
		return nil, err
	}

	prompt := buildGroundedPrompt(req.Conversation, passages, req.Query)

	var opts []llm.Option
	if req.ModelRef != "" {
		opts = append(opts, llm.WithModel(req.ModelRef))
	}
	opts = append(opts, llm.WithTemperature(0.1))

	answer, err := s.llm.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, &kb.RetrievalFailedError{Collection: req.Collection, Err: fmt.Errorf("generation: %w", err)}
	}

	citations := make([]kb.Citation, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, kb.Citation{EntryID: p.EntryID, Title: p.Title})
	}

	return &kb.GeneratedAnswer{Text: answer, Citations: citations}, nil
}

func (s *Store) hydrateTitles(ctx context.Context, uow unitofwork.UnitOfWork, entryIds []uuid.UUID, passages []kb.Passage) error {
	if len(entryIds) == 0 {
		return nil
	}

	entries, err := uow.KnowledgeEntryRepository().FindAll(ctx, specification.ByIDs{IDs: entryIds})
	if err != nil {
		return err
	}

	titles := make(map[string]string, len(entries))
	for _, e := range entries {
		titles[e.Id.String()] = e.Title
	}
	for i := range passages {
		passages[i].Title = titles[passages[i].EntryID]
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
