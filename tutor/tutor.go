package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/aulalabs/aula/rag/types"
	"github.com/aulalabs/aula/store"
	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

// Persona selects which tutor a student message is routed to.
type Persona string

const (
	PersonaChatbot       Persona = "chatbot"
	PersonaModelTraining Persona = "model-training"
	PersonaProgramming   Persona = "programming"
)

var systemPrompts = map[Persona]string{
	PersonaChatbot:       "You are a patient tutor teaching students how chatbots and conversational AI work. Guide with questions rather than direct answers, and keep explanations simple.",
	PersonaModelTraining: "You are a patient tutor teaching students how machine learning models are trained. Use simple analogies and encourage hands-on experimentation.",
	PersonaProgramming:   "You are a patient programming tutor for students learning to code. Break problems into small steps and celebrate progress.",
}

// Personas lists the available tutor personas.
func Personas() []Persona {
	return []Persona{PersonaChatbot, PersonaModelTraining, PersonaProgramming}
}

// Valid reports whether p names a known persona.
func Valid(p Persona) bool {
	_, ok := systemPrompts[p]
	return ok
}

// ContextProvider supplies grounding documents for a query.
type ContextProvider interface {
	GetContext(ctx context.Context, query string) ([]types.Document, types.AugmentationDecision)
}

// Recorder persists interactions. Recording is best-effort; a failing
// recorder never blocks a reply.
type Recorder interface {
	RecordInteraction(ctx context.Context, in store.Interaction) (int64, error)
}

// Tutor answers student messages for one persona, grounding each answer
// with retrieved context.
type Tutor struct {
	client    *openai.Client
	model     string
	persona   Persona
	augmenter ContextProvider
	recorder  Recorder
}

func New(client *openai.Client, model string, persona Persona, augmenter ContextProvider, recorder Recorder) *Tutor {
	return &Tutor{
		client:    client,
		model:     model,
		persona:   persona,
		augmenter: augmenter,
		recorder:  recorder,
	}
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Answer    string                     `json:"answer"`
	StudentID string                     `json:"student_id"`
	Persona   Persona                    `json:"persona"`
	Sources   []map[string]string        `json:"sources,omitempty"`
	Decision  types.AugmentationDecision `json:"decision"`
}

// Chat answers one student message. A missing student ID is generated so
// follow-up progress can be attributed.
func (t *Tutor) Chat(ctx context.Context, studentID, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, fmt.Errorf("message is empty")
	}
	if studentID == "" {
		studentID = uuid.NewString()
	}

	docs, decision := t.augmenter.GetContext(ctx, message)

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompts[t.persona]},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(message, docs)},
		},
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("no completion returned")
	}
	answer := resp.Choices[0].Message.Content

	if t.recorder != nil {
		if _, err := t.recorder.RecordInteraction(ctx, store.Interaction{
			StudentID: studentID,
			Question:  message,
			Answer:    answer,
			TutorType: string(t.persona),
		}); err != nil {
			xlog.Warn("Failed to record interaction", "student", studentID, "error", err)
		}
	}

	reply := Reply{
		Answer:    answer,
		StudentID: studentID,
		Persona:   t.persona,
		Decision:  decision,
	}
	for i, d := range docs {
		if i >= 3 {
			break
		}
		reply.Sources = append(reply.Sources, d.Metadata)
	}
	return reply, nil
}

func buildPrompt(message string, docs []types.Document) string {
	if len(docs) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString("Use the following context to ground your answer.\n\nContext:\n")
	for _, d := range docs {
		title := d.Metadata["title"]
		if title == "" {
			title = string(d.Source)
		}
		fmt.Fprintf(&b, "Source: %s\nContent: %s\n\n", title, d.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(message)
	return b.String()
}
