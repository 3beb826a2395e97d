package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM records the last request and returns a canned completion.
type fakeLLM struct {
	lastMessages []Message
	lastOpts     CompletionOptions
	response     string
	err          error
}

func (f *fakeLLM) Complete(_ context.Context, messages []Message, opts CompletionOptions) (string, error) {
	f.lastMessages = messages
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Provider() Provider { return Provider("fake") }
func (f *fakeLLM) ModelName() string  { return "fake-model" }

func TestGenerateAnswer(t *testing.T) {
	fake := &fakeLLM{response: "  BRCA1 mutations raise breast cancer risk [Document 1].  "}
	gen := NewGenerator(fake)

	docs := []ContextDocument{
		{Title: "BRCA1 Overview", Content: "BRCA1 is a tumor suppressor.", Score: 0.1234},
		{Title: "", Content: "Second doc content.", Score: 0.9},
	}

	answer, err := gen.GenerateAnswer(context.Background(), "What does BRCA1 do?", docs, false)
	require.NoError(t, err)
	assert.Equal(t, "BRCA1 mutations raise breast cancer risk [Document 1].", answer)

	// System + user message, concise prompt
	require.Len(t, fake.lastMessages, 2)
	assert.Equal(t, "system", fake.lastMessages[0].Role)
	assert.Equal(t, systemPromptConcise, fake.lastMessages[0].Content)

	user := fake.lastMessages[1].Content
	assert.Contains(t, user, "Question: What does BRCA1 do?")
	assert.Contains(t, user, "Document 1:")
	assert.Contains(t, user, "Title: BRCA1 Overview")
	assert.Contains(t, user, "Relevance Score: 0.1234")
	// Untitled documents get a placeholder title
	assert.Contains(t, user, "Title: Untitled")

	// Generation parameters
	assert.Equal(t, answerTemperature, fake.lastOpts.Temperature)
	assert.Equal(t, answerMaxTokens, fake.lastOpts.MaxTokens)
}

func TestGenerateAnswerElaborate(t *testing.T) {
	fake := &fakeLLM{response: "detailed answer"}
	gen := NewGenerator(fake)

	_, err := gen.GenerateAnswer(context.Background(), "q", nil, true)
	require.NoError(t, err)

	assert.Equal(t, systemPromptElaborate, fake.lastMessages[0].Content)
}

func TestGenerateAnswerEmptyContext(t *testing.T) {
	fake := &fakeLLM{response: "I don't have enough context to answer."}
	gen := NewGenerator(fake)

	// No documents is valid input, not an error
	answer, err := gen.GenerateAnswer(context.Background(), "What is XYZ?", nil, false)
	require.NoError(t, err)
	assert.NotEmpty(t, answer)

	user := fake.lastMessages[1].Content
	assert.Contains(t, user, "Question: What is XYZ?")
	assert.NotContains(t, user, "Document 1:")
}

func TestGenerateAnswerPropagatesError(t *testing.T) {
	fake := &fakeLLM{err: errors.New("upstream unavailable")}
	gen := NewGenerator(fake)

	_, err := gen.GenerateAnswer(context.Background(), "q", nil, false)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate answer")
}

func TestBuildContextOrdering(t *testing.T) {
	docs := []ContextDocument{
		{Title: "First", Content: "aa", Score: 0.1},
		{Title: "Second", Content: "bb", Score: 0.2},
		{Title: "Third", Content: "cc", Score: 0.3},
	}

	out := buildContext(docs)

	// Blocks appear in ranking order
	prev := -1
	for i, want := range []string{"Document 1:\nTitle: First", "Document 2:\nTitle: Second", "Document 3:\nTitle: Third"} {
		idx := strings.Index(out, want)
		require.GreaterOrEqual(t, idx, 0, "block %d missing", i+1)
		assert.Greater(t, idx, prev)
		prev = idx
	}
}
