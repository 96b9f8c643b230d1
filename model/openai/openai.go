// Package openai implements the model.Client boundary on top of the OpenAI
// Chat Completions API. Transcript messages are flattened into chat messages;
// agent authorship is preserved by prefixing the author name, since group
// transcripts interleave multiple assistant identities.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/codemesh/core"
)

// Options configure the OpenAI adapter. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind model.Client.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates a new adapter using the default SDK client (API key from env).
func New(optFns ...func(o *Options)) *Client {
	c := openai.NewClient()
	return NewFromClient(&c, optFns...)
}

// NewFromClient creates a new adapter from an existing SDK client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements model.Completer.
func (c *Client) Complete(ctx context.Context, instructions string, transcript []core.Message, participant string) (string, error) {
	messages := buildMessages(instructions, transcript, participant)
	return c.call(ctx, messages)
}

// Decide implements model.Decider. The decision prompt becomes the system
// message and the rendered transcript the sole user message.
func (c *Client) Decide(ctx context.Context, transcript []core.Message, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt),
		openai.UserMessage(renderTranscript(transcript)),
	}
	return c.call(ctx, messages)
}

func (c *Client) call(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api error: empty choice list")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages converts a group transcript into chat messages from the
// acting participant's point of view: its own prior messages become
// assistant turns, everything else user turns labeled with the author.
func buildMessages(instructions string, transcript []core.Message, participant string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript)+1)
	if instructions != "" {
		messages = append(messages, openai.SystemMessage(instructions))
	}
	for _, m := range transcript {
		switch {
		case m.Role == core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case m.Role == core.RoleAgent && m.Author == participant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(fmt.Sprintf("%s: %s", m.Author, m.Content)))
		}
	}
	return messages
}

func renderTranscript(transcript []core.Message) string {
	t := core.NewTranscript()
	for _, m := range transcript {
		t.Append(m)
	}
	return t.Render()
}
