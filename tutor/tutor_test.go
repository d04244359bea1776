package tutor_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/aulalabs/aula/rag/types"
	"github.com/aulalabs/aula/store"
	. "github.com/aulalabs/aula/tutor"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sashabaranov/go-openai"
)

type fakeContext struct {
	docs     []types.Document
	decision types.AugmentationDecision
}

func (f *fakeContext) GetContext(ctx context.Context, query string) ([]types.Document, types.AugmentationDecision) {
	return f.docs, f.decision
}

type fakeRecorder struct {
	mu           sync.Mutex
	interactions []store.Interaction
	err          error
}

func (f *fakeRecorder) RecordInteraction(ctx context.Context, in store.Interaction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.interactions = append(f.interactions, in)
	return int64(len(f.interactions)), nil
}

func (f *fakeRecorder) recorded() []store.Interaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Interaction, len(f.interactions))
	copy(out, f.interactions)
	return out
}

var _ = Describe("Tutor", func() {
	var (
		server     *httptest.Server
		client     *openai.Client
		lastPrompt string
	)

	BeforeEach(func() {
		lastPrompt = ""
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var req openai.ChatCompletionRequest
			Expect(json.Unmarshal(body, &req)).To(Succeed())
			lastPrompt = req.Messages[len(req.Messages)-1].Content

			resp := openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{
					{Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: "A loop repeats a block of instructions.",
					}},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
		}))

		config := openai.DefaultConfig("test")
		config.BaseURL = server.URL + "/v1"
		client = openai.NewClientWithConfig(config)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should reject an empty message", func() {
		t := New(client, "gpt-4o-mini", PersonaChatbot, &fakeContext{}, nil)
		_, err := t.Chat(context.Background(), "student-1", "   ")
		Expect(err).To(HaveOccurred())
	})

	It("should generate a student ID when none is given", func() {
		t := New(client, "gpt-4o-mini", PersonaChatbot, &fakeContext{}, nil)
		reply, err := t.Chat(context.Background(), "", "What is a loop?")
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.StudentID).ToNot(BeEmpty())
		Expect(reply.Persona).To(Equal(PersonaChatbot))
		Expect(reply.Answer).To(ContainSubstring("A loop repeats"))
	})

	It("should ground the prompt on retrieved context", func() {
		provider := &fakeContext{
			docs: []types.Document{
				{
					Content:  "A for loop runs a fixed number of times.",
					Source:   types.SourceLocal,
					Metadata: map[string]string{"title": "For loops"},
				},
			},
			decision: types.AugmentationDecision{Query: "What is a loop?", Sufficient: true},
		}

		t := New(client, "gpt-4o-mini", PersonaProgramming, provider, nil)
		reply, err := t.Chat(context.Background(), "student-1", "What is a loop?")
		Expect(err).ToNot(HaveOccurred())

		Expect(lastPrompt).To(ContainSubstring("A for loop runs a fixed number of times."))
		Expect(lastPrompt).To(ContainSubstring("What is a loop?"))
		Expect(reply.Sources).To(HaveLen(1))
		Expect(reply.Sources[0]).To(HaveKeyWithValue("title", "For loops"))
		Expect(reply.Decision.Sufficient).To(BeTrue())
	})

	It("should cap the reported sources at three", func() {
		provider := &fakeContext{}
		for i := 0; i < 5; i++ {
			provider.docs = append(provider.docs, types.Document{
				Content:  fmt.Sprintf("chunk %d", i),
				Source:   types.SourceLocal,
				Metadata: map[string]string{"file": fmt.Sprintf("lesson-%d.md", i)},
			})
		}

		t := New(client, "gpt-4o-mini", PersonaChatbot, provider, nil)
		reply, err := t.Chat(context.Background(), "student-1", "What is a loop?")
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.Sources).To(HaveLen(3))
	})

	It("should record the interaction", func() {
		recorder := &fakeRecorder{}
		t := New(client, "gpt-4o-mini", PersonaModelTraining, &fakeContext{}, recorder)

		_, err := t.Chat(context.Background(), "student-7", "How is a model trained?")
		Expect(err).ToNot(HaveOccurred())

		recorded := recorder.recorded()
		Expect(recorded).To(HaveLen(1))
		Expect(recorded[0].StudentID).To(Equal("student-7"))
		Expect(recorded[0].Question).To(Equal("How is a model trained?"))
		Expect(recorded[0].TutorType).To(Equal("model-training"))
	})

	It("should still answer when recording fails", func() {
		recorder := &fakeRecorder{err: fmt.Errorf("connection refused")}
		t := New(client, "gpt-4o-mini", PersonaChatbot, &fakeContext{}, recorder)

		reply, err := t.Chat(context.Background(), "student-1", "What is a loop?")
		Expect(err).ToNot(HaveOccurred())
		Expect(reply.Answer).ToNot(BeEmpty())
	})

	It("should know its personas", func() {
		Expect(Personas()).To(HaveLen(3))
		Expect(Valid(PersonaProgramming)).To(BeTrue())
		Expect(Valid(Persona("astrology"))).To(BeFalse())
	})
})
