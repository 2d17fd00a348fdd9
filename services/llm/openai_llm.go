package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianAnswers/services/assistant/datatypes"
	"github.com/sashabaranov/go-openai"
)

// generationTemperature keeps answers close to the retrieved context.
const generationTemperature = 0.2

// OpenAIClient implements Embedder and Generator against the OpenAI API.
type OpenAIClient struct {
	client     *openai.Client
	chatModel  string
	embedModel string
}

// Compile-time interface implementation checks.
var (
	_ Embedder  = (*OpenAIClient)(nil)
	_ Generator = (*OpenAIClient)(nil)
)

// NewOpenAIClient creates a client for both generation and embeddings.
// Model names come from the injected configuration, not the process
// environment, so tests and alternate deployments can swap them freely.
func NewOpenAIClient(apiKey, chatModel, embedModel string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not configured")
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
		slog.Warn("Chat model not set, defaulting", "model", chatModel)
	}
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
		slog.Warn("Embedding model not set, defaulting", "model", embedModel)
	}
	slog.Info("Initializing OpenAI client", "chatModel", chatModel, "embedModel", embedModel)
	return &OpenAIClient{
		client:     openai.NewClient(apiKey),
		chatModel:  chatModel,
		embedModel: embedModel,
	}, nil
}

// openaiRole maps the closed internal role vocabulary to OpenAI's. The
// mapping is total over the two variants; anything else is a caller bug and
// is sent as a user turn rather than dropped.
func openaiRole(r datatypes.Role) string {
	if r == datatypes.RoleAssistant {
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

// Chat implements the Generator interface.
func (o *OpenAIClient) Chat(ctx context.Context, instructions string, messages []datatypes.Message) (GenerationResult, error) {
	slog.Debug("Generating answer via OpenAI", "model", o.chatModel, "messages", len(messages))

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: instructions,
	})
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openaiRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.chatModel,
		Messages:    chatMessages,
		Temperature: generationTemperature,
	})
	if err != nil {
		slog.Error("OpenAI chat completion failed", "error", err)
		return GenerationResult{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices")
		return GenerationResult{}, fmt.Errorf("OpenAI returned no choices")
	}

	model := resp.Model
	if model == "" {
		model = o.chatModel
	}
	return GenerationResult{Text: resp.Choices[0].Message.Content, Model: model}, nil
}

// Embed implements the Embedder interface.
func (o *OpenAIClient) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	slog.Debug("Embedding text via OpenAI", "model", o.embedModel, "bytes", len(text))

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.embedModel),
	})
	if err != nil {
		slog.Error("OpenAI embedding call failed", "error", err)
		return EmbeddingResult{}, fmt.Errorf("OpenAI embedding call failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return EmbeddingResult{}, fmt.Errorf("embedding missing in OpenAI response")
	}

	return EmbeddingResult{Vector: resp.Data[0].Embedding, Model: o.embedModel}, nil
}
