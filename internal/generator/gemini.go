package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const notesPrompt = `You are an expert note-taker. Given the following transcript, create well-organized, clear, and comprehensive notes.

Format the notes with:
- Main topics and headings
- Key points and important details
- Action items (if any)
- Summary at the end

Make the notes easy to read and well-structured. Use bullet points and proper formatting.

Transcript:
%s

Generate the notes:`

type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// Make sure we conform to the Generator interface
var _ Generator = (*GeminiGenerator)(nil)

func NewGeminiGenerator(ctx context.Context, apiKey string, modelName string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *GeminiGenerator) GenerateNotes(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(notesPrompt, transcript)

	notes, err := g.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate notes: %w", err)
	}

	zap.S().Named("generator").Info("notes generated")
	return notes, nil
}

func (g *GeminiGenerator) GenerateChatResponse(ctx context.Context, userMessage string, transcript string, notes string, history []Turn) (string, error) {
	var sb strings.Builder

	sb.WriteString("You are a helpful AI assistant helping a user understand their recorded audio content.\n\n")
	sb.WriteString("Context - Transcript:\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\nContext - Notes:\n")
	sb.WriteString(notes)
	sb.WriteString("\n\n")

	if len(history) > 0 {
		sb.WriteString("Previous conversation:\n")
		for _, turn := range history {
			sb.WriteString(turn.Role)
			sb.WriteString(": ")
			sb.WriteString(turn.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("User question: ")
	sb.WriteString(userMessage)
	sb.WriteString("\n\nProvide a helpful, accurate response based on the transcript and notes. If the question cannot be answered from the provided context, politely let the user know.\n\nResponse:")

	answer, err := g.generate(ctx, sb.String())
	if err != nil {
		return "", fmt.Errorf("failed to generate chat response: %w", err)
	}

	return answer, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		// only the first candidate is of interest
		break
	}

	if sb.Len() == 0 {
		return "", errors.New("model returned no text")
	}

	return sb.String(), nil
}
