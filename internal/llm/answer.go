package llm

import (
	"context"
	"fmt"
	"strings"
)

// Generation parameters for grounded answers. Lower temperature keeps the
// model close to the supplied context.
const (
	answerTemperature = 0.5
	answerMaxTokens   = 1000
)

// ContextDocument is one retrieved document handed to the generator as
// answer context.
type ContextDocument struct {
	Title   string
	Content string
	Score   float64 // squared L2 distance; lower is more relevant
}

// Generator produces natural-language answers grounded in retrieved
// documents.
type Generator struct {
	llm Service
}

// NewGenerator creates a new answer generator.
func NewGenerator(llm Service) *Generator {
	return &Generator{llm: llm}
}

// GenerateAnswer asks the model to answer the query using the given
// documents as context. An empty document list is valid input: the prompt
// instructs the model to state the limitation rather than invent an answer.
func (g *Generator) GenerateAnswer(ctx context.Context, query string, docs []ContextDocument, elaborate bool) (string, error) {
	system := systemPromptConcise
	if elaborate {
		system = systemPromptElaborate
	}

	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: userPrompt(query, buildContext(docs))},
	}

	answer, err := g.llm.Complete(ctx, messages, CompletionOptions{
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return strings.TrimSpace(answer), nil
}

// buildContext formats the retrieved documents as numbered context blocks.
func buildContext(docs []ContextDocument) string {
	var sb strings.Builder

	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&sb, "Document %d:\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", title)
		fmt.Fprintf(&sb, "Content: %s\n", doc.Content)
		fmt.Fprintf(&sb, "Relevance Score: %.4f\n\n", doc.Score)
	}

	return sb.String()
}

// userPrompt combines the query with the prepared context.
func userPrompt(query, context string) string {
	return fmt.Sprintf(`Question: %s

Context information from relevant documents:
%s
Please answer the question based on the context information provided above.`, query, context)
}

const systemPromptConcise = `You are a medical research assistant with expertise in genetics and medicine.
Your task is to answer questions concisely based on the scientific documents provided as context.
Be accurate and focus on the key information relevant to the query.
Always cite the specific documents you're drawing information from in your answer.
If the context doesn't contain enough information to answer the query, clearly state this limitation.`

const systemPromptElaborate = `You are a medical research assistant with expertise in genetics and medicine.
Your task is to provide comprehensive, detailed answers based on the scientific documents provided as context.
Include relevant medical terminology and explain concepts thoroughly.
Always cite the specific documents you're drawing information from in your answer.
If the context doesn't contain enough information to answer fully, clearly state this limitation.`
