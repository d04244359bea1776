package engine_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aulalabs/aula/pkg/fingerprint"
	. "github.com/aulalabs/aula/rag/engine"
	"github.com/aulalabs/aula/rag/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	chromem "github.com/philippgille/chromem-go"
)

// stubEmbedding maps known texts to fixed unit vectors so similarity is
// fully deterministic without a network dependency.
func stubEmbedding(vectors map[string][]float32) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("no embedding for %q", text)
	}
}

func localDoc(content string) types.Document {
	fp := fingerprint.Sum(content)
	return types.Document{
		ID:          fp,
		Content:     content,
		Source:      types.SourceLocal,
		Fingerprint: fp,
	}
}

var _ = Describe("ChromemIndex", func() {
	var (
		tempDir string
		index   *ChromemIndex
		vectors map[string][]float32
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "chromem_index_test_*")
		Expect(err).ToNot(HaveOccurred())

		vectors = map[string][]float32{
			"a loop repeats instructions": {1, 0, 0},
			"a variable stores a value":   {0, 1, 0},
			"loops":                       {1, 0, 0},
			"variables":                   {0, 1, 0},
		}

		collectionName := fmt.Sprintf("test_collection_%d", time.Now().UnixNano())
		index, err = NewChromemIndexWithEmbedding(collectionName, tempDir, stubEmbedding(vectors))
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Query", func() {
		It("should report maximum distance on an empty index", func() {
			result, err := index.Query(context.Background(), "loops", 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Documents).To(BeEmpty())
			Expect(result.Distance).To(Equal(types.MaxDistance))
		})

		It("should return the nearest document first", func() {
			Expect(index.Upsert(context.Background(), []types.Document{
				localDoc("a loop repeats instructions"),
				localDoc("a variable stores a value"),
			})).To(Succeed())

			result, err := index.Query(context.Background(), "loops", 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Documents).To(HaveLen(2))
			Expect(result.Documents[0].Content).To(Equal("a loop repeats instructions"))
			Expect(result.Distance).To(BeNumerically("~", 0.0, 0.001))
		})

		It("should clamp the limit to the collection size", func() {
			Expect(index.Upsert(context.Background(), []types.Document{
				localDoc("a loop repeats instructions"),
			})).To(Succeed())

			result, err := index.Query(context.Background(), "loops", 10)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Documents).To(HaveLen(1))
		})

		It("should degrade to an empty result when embedding fails", func() {
			Expect(index.Upsert(context.Background(), []types.Document{
				localDoc("a loop repeats instructions"),
			})).To(Succeed())

			result, err := index.Query(context.Background(), "text with no embedding", 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Documents).To(BeEmpty())
			Expect(result.Distance).To(Equal(types.MaxDistance))
		})
	})

	Describe("Upsert", func() {
		It("should skip documents whose fingerprint already exists", func() {
			d := localDoc("a loop repeats instructions")

			Expect(index.Upsert(context.Background(), []types.Document{d})).To(Succeed())
			Expect(index.Upsert(context.Background(), []types.Document{d})).To(Succeed())
			Expect(index.Count()).To(Equal(1))
		})

		It("should skip empty documents", func() {
			Expect(index.Upsert(context.Background(), []types.Document{{ID: "x", Fingerprint: "x"}})).To(Succeed())
			Expect(index.Count()).To(Equal(0))
		})

		It("should reject documents without a fingerprint", func() {
			err := index.Upsert(context.Background(), []types.Document{{ID: "x", Content: "some text"}})
			Expect(err).To(HaveOccurred())
		})

		It("should preserve source and metadata through a query", func() {
			d := localDoc("a loop repeats instructions")
			d.Source = types.SourceBreadth
			d.Metadata = map[string]string{"title": "Loop tutorial"}

			Expect(index.Upsert(context.Background(), []types.Document{d})).To(Succeed())

			result, err := index.Query(context.Background(), "loops", 1)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Documents).To(HaveLen(1))
			Expect(result.Documents[0].Source).To(Equal(types.SourceBreadth))
			Expect(result.Documents[0].Metadata).To(HaveKeyWithValue("title", "Loop tutorial"))
		})
	})

	Describe("Reset", func() {
		It("should empty the collection", func() {
			Expect(index.Upsert(context.Background(), []types.Document{
				localDoc("a loop repeats instructions"),
			})).To(Succeed())
			Expect(index.Count()).To(Equal(1))

			Expect(index.Reset()).To(Succeed())
			Expect(index.Count()).To(Equal(0))
		})
	})
})
