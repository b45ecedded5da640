package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/core/ports/driven"
	"github.com/grounded-labs/grounder/internal/core/ports/driving"
	"github.com/grounded-labs/grounder/internal/events"
	"github.com/grounded-labs/grounder/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.Answerer = (*AnswerService)(nil)

// Answering defaults.
const (
	DefaultRetrievalChunks = 5

	// previewLen caps the excerpt length in source references.
	previewLen = 200
)

// DefaultSystemPrompt instructs the model to stay inside the retrieved
// context.
const DefaultSystemPrompt = `You are a helpful assistant that answers questions using only the provided context.
Each context chunk is labelled [CHUNK n]. Base your answer strictly on the chunks;
if they do not contain the answer, say so plainly. Cite chunk numbers where relevant.`

// emptyStoreAnswer is returned when the session has no documents yet.
const emptyStoreAnswer = "I don't have any documents to work from yet. Ingest some sources first, then ask again."

// AnswerService answers questions grounded in the session's knowledge
// base: retrieve the most relevant chunks, hand them to the language
// model as numbered context and return the answer with source
// references.
type AnswerService struct {
	store        driven.VectorStore
	llm          driven.LLMService
	events       *events.Broadcaster
	systemPrompt string
}

// AnswerOption configures the answer service.
type AnswerOption func(*AnswerService)

// WithSystemPrompt overrides the default answering instructions.
func WithSystemPrompt(prompt string) AnswerOption {
	return func(s *AnswerService) {
		if prompt != "" {
			s.systemPrompt = prompt
		}
	}
}

// WithAnswerEvents attaches a progress broadcaster.
func WithAnswerEvents(b *events.Broadcaster) AnswerOption {
	return func(s *AnswerService) {
		s.events = b
	}
}

// NewAnswerService creates a new answer service.
func NewAnswerService(store driven.VectorStore, llm driven.LLMService, opts ...AnswerOption) *AnswerService {
	s := &AnswerService{
		store:        store,
		llm:          llm,
		systemPrompt: DefaultSystemPrompt,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask retrieves the numChunks most relevant chunks for the question and
// generates a grounded answer. An empty knowledge base yields a
// friendly answer rather than an error.
func (s *AnswerService) Ask(ctx context.Context, question string, numChunks int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("ask: %w: empty question", domain.ErrInvalidInput)
	}
	if numChunks <= 0 {
		numChunks = DefaultRetrievalChunks
	}

	logger.Section("Question Answering")
	logger.Debug("question: %q, retrieving %d chunks", question, numChunks)

	s.events.Emit(events.PhaseRetrieval, events.TypeInfo, "retrieving relevant chunks")
	entries, err := s.store.Search(ctx, question, numChunks)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(entries) == 0 {
		logger.Info("ask: empty knowledge base")
		return &domain.Answer{Text: emptyStoreAnswer, Sources: []domain.SourceRef{}}, nil
	}

	prompt := buildPrompt(question, entries)

	s.events.Emit(events.PhaseGeneration, events.TypeInfo,
		fmt.Sprintf("generating answer from %d chunks with %s", len(entries), s.llm.ModelName()))
	text, err := s.llm.Complete(ctx, s.systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &domain.Answer{
		Text:    text,
		Sources: sourceRefs(entries),
	}
	s.events.Emit(events.PhaseComplete, events.TypeSuccess, "answer ready")
	return answer, nil
}

// buildPrompt lays retrieved chunks out as numbered context blocks
// followed by the question.
func buildPrompt(question string, entries []domain.DocumentEntry) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, entry := range entries {
		fmt.Fprintf(&b, "[CHUNK %d] (source: %s)\n%s\n\n", i+1, entry.Metadata.Source, entry.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// sourceRefs converts retrieved entries into answer source references
// with truncated previews.
func sourceRefs(entries []domain.DocumentEntry) []domain.SourceRef {
	refs := make([]domain.SourceRef, len(entries))
	for i, entry := range entries {
		refs[i] = domain.SourceRef{
			ID:         i,
			Preview:    preview(entry.Text),
			Source:     entry.Metadata.Source,
			SourceType: entry.Metadata.SourceType,
			Title:      entry.Metadata.Title,
		}
	}
	return refs
}

// preview truncates text for display, breaking at a rune boundary.
func preview(text string) string {
	if len(text) <= previewLen {
		return text
	}
	cut := previewLen
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut] + "..."
}
