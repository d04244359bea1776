package chunk_test

import (
	"strings"

	. "github.com/aulalabs/aula/pkg/chunk"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Chunk", func() {
	Describe("SplitParagraphIntoChunks", func() {
		It("should split text into chunks", func() {
			text := "This is a test. This is another sentence. And one more."
			chunks := SplitParagraphIntoChunks(text, 20)
			Expect(len(chunks)).To(BeNumerically(">", 1))
		})

		It("should handle empty text", func() {
			Expect(SplitParagraphIntoChunks("", 100)).To(BeEmpty())
			Expect(SplitParagraphIntoChunks("   ", 100)).To(BeEmpty())
		})

		It("should respect max chunk size", func() {
			text := "This is a very long text that should be split into multiple chunks. " +
				"Each chunk should not exceed the maximum size specified. " +
				"This ensures that the text is properly divided for processing."
			chunks := SplitParagraphIntoChunks(text, 50)
			Expect(chunks).ToNot(BeEmpty())
			for _, c := range chunks {
				Expect(len(c)).To(BeNumerically("<=", 50))
			}
		})

		It("should not break words", func() {
			text := "alpha beta gamma delta epsilon zeta"
			for _, c := range SplitParagraphIntoChunks(text, 12) {
				for _, w := range strings.Fields(c) {
					Expect(text).To(ContainSubstring(w))
				}
			}
		})

		It("should keep an oversized word as its own chunk", func() {
			chunks := SplitParagraphIntoChunks("short supercalifragilisticexpialidocious word", 10)
			Expect(chunks).To(ContainElement("supercalifragilisticexpialidocious"))
		})

		It("should handle text smaller than chunk size", func() {
			text := "Short text"
			chunks := SplitParagraphIntoChunks(text, 100)
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0]).To(Equal(text))
		})
	})
})
