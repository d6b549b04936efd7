package generator

import "context"

// Turn is one entry of the chat history handed to the model as context.
type Turn struct {
	Role string
	Text string
}

// Generator produces the AI side of a conversation: structured notes from a
// transcript and answers grounded in the transcript, the notes and the chat
// history.
type Generator interface {
	GenerateNotes(ctx context.Context, transcript string) (string, error)
	GenerateChatResponse(ctx context.Context, userMessage string, transcript string, notes string, history []Turn) (string, error)
}
