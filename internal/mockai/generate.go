package mockai

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

const embeddingDimensions = 1536

var cannedReplies = []string{
	"Hello! I'm a mock assistant. How can I help you today?",
	"I understand you're looking for assistance. While I'm a simulation, I'll do my best to provide helpful responses.",
	"That's an interesting question! As a mock AI, I can provide sample responses for testing purposes.",
	"I'm here to help! Please note that this is a mock API server for development and testing.",
	"Thank you for your message. This is a simulated response from the mock API server.",
}

// Generator produces randomized response payloads. The now hook exists
// for tests; everything else draws from the shared math/rand source.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// ChatCompletion builds a mock completion. Prompt tokens approximate the
// request by whitespace-splitting message content; completion tokens are
// random but bounded by max_tokens.
func (g *Generator) ChatCompletion(req ChatRequest) ChatResponse {
	promptTokens := 0
	for _, msg := range req.Messages {
		promptTokens += len(strings.Fields(msg.Content))
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}
	ceiling := maxTokens / 10
	if ceiling <= 10 {
		ceiling = 11
	}
	completionTokens := 10 + rand.Intn(ceiling-10)

	content := cannedReplies[rand.Intn(len(cannedReplies))]
	if len(req.Messages) > 0 {
		last := strings.ToLower(req.Messages[len(req.Messages)-1].Content)
		switch {
		case strings.Contains(last, "hello"), strings.Contains(last, "hi"):
			content = "Hello! How can I assist you today?"
		case strings.Contains(last, "test"):
			content = "This is a test response from the mock server."
		}
	}

	return ChatResponse{
		ID:      "chatcmpl-" + hexID(29),
		Object:  "chat.completion",
		Created: g.now().Unix(),
		Model:   req.Model,
		Choices: []ChatChoice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
}

// Embeddings returns one 1536-dimensional random vector per input text.
func (g *Generator) Embeddings(req EmbeddingsRequest) EmbeddingsResponse {
	data := make([]Embedding, 0, len(req.Input))
	tokens := 0
	for i, text := range req.Input {
		tokens += len(strings.Fields(text))
		vector := make([]float64, embeddingDimensions)
		for d := range vector {
			vector[d] = rand.Float64()*2 - 1
		}
		data = append(data, Embedding{Object: "embedding", Index: i, Embedding: vector})
	}

	return EmbeddingsResponse{
		Object: "list",
		Data:   data,
		Model:  req.Model,
		Usage:  Usage{PromptTokens: tokens, TotalTokens: tokens},
	}
}

// moderationTriggers maps category names to the keywords that flag them.
var moderationTriggers = map[string][]string{
	"hate":       {"hate", "racist", "discrimination"},
	"harassment": {"harassment"},
	"self-harm":  {"self-harm", "suicide"},
	"sexual":     {"sexual", "porn"},
	"violence":   {"violence", "kill"},
}

var moderationCategories = []string{
	"hate", "hate/threatening",
	"harassment", "harassment/threatening",
	"self-harm", "self-harm/intent", "self-harm/instructions",
	"sexual", "sexual/minors",
	"violence", "violence/graphic",
}

// Moderation flags inputs on simple keyword matches; flagged categories
// get high random scores, clean ones get low random scores.
func (g *Generator) Moderation(req ModerationRequest) ModerationResponse {
	text := strings.ToLower(strings.Join(req.Input, " "))

	categories := make(map[string]bool, len(moderationCategories))
	scores := make(map[string]float64, len(moderationCategories))
	flagged := false
	for _, category := range moderationCategories {
		hit := false
		for _, keyword := range moderationTriggers[category] {
			if strings.Contains(text, keyword) {
				hit = true
				break
			}
		}
		categories[category] = hit
		if hit {
			flagged = true
			scores[category] = 0.7 + rand.Float64()*0.2
		} else {
			scores[category] = rand.Float64() * 0.1
		}
	}

	return ModerationResponse{
		ID:    "modr-" + hexID(24),
		Model: "text-moderation-latest",
		Results: []ModerationResult{{
			Flagged:        flagged,
			Categories:     categories,
			CategoryScores: scores,
		}},
	}
}

// Images returns n placeholder image URLs sized per the request.
func (g *Generator) Images(req ImageRequest) ImageResponse {
	n := req.N
	if n <= 0 {
		n = 1
	}
	size := req.Size
	if size == "" {
		size = "1024x1024"
	}
	path := strings.Replace(size, "x", "/", 1)

	data := make([]ImageData, 0, n)
	for i := 0; i < n; i++ {
		data = append(data, ImageData{
			URL: fmt.Sprintf("https://picsum.photos/%s?random=%s", path, hexID(8)),
		})
	}
	return ImageResponse{Created: g.now().Unix(), Data: data}
}

func hexID(length int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	for len(id) < length {
		id += strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return id[:length]
}
