package llm

import (
	"context"
	"strings"

	"github.com/ragforge/ragcore/internal/domain/rag"
)

// ProviderLLM adapts Client to the rag.LLM port.
type ProviderLLM struct {
	Client *Client
}

func toMessages(messages []rag.LLMMessage) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func toRequest(messages []rag.LLMMessage, params rag.GenerationParams) ChatCompletionRequest {
	return ChatCompletionRequest{
		Model:            params.Model,
		Messages:         toMessages(messages),
		Temperature:      params.Temperature,
		MaxTokens:        params.MaxTokens,
		TopP:             params.TopP,
		FrequencyPenalty: params.FrequencyPenalty,
		PresencePenalty:  params.PresencePenalty,
	}
}

func (a ProviderLLM) Chat(ctx context.Context, messages []rag.LLMMessage, params rag.GenerationParams) (string, error) {
	resp, err := a.Client.CreateChatCompletion(ctx, toRequest(messages, params))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (a ProviderLLM) ChatStream(ctx context.Context, messages []rag.LLMMessage, params rag.GenerationParams, onDelta func(string) error) (string, error) {
	stream, err := a.Client.CreateChatCompletionStream(ctx, toRequest(messages, params))
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, err := stream.Recv()
		if err != nil {
			break
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return full.String(), err
			}
		}
		select {
		case <-ctx.Done():
			return full.String(), ctx.Err()
		default:
		}
	}
	return full.String(), nil
}

var _ rag.LLM = ProviderLLM{}

// EchoLLM is an offline fallback that echoes the last user message.
type EchoLLM struct{}

func (EchoLLM) Chat(_ context.Context, messages []rag.LLMMessage, _ rag.GenerationParams) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return "Answer: " + messages[len(messages)-1].Content, nil
}

func (e EchoLLM) ChatStream(ctx context.Context, messages []rag.LLMMessage, params rag.GenerationParams, onDelta func(string) error) (string, error) {
	answer, _ := e.Chat(ctx, messages, params)
	if onDelta != nil {
		if err := onDelta(answer); err != nil {
			return answer, err
		}
	}
	return answer, nil
}

var _ rag.LLM = EchoLLM{}
