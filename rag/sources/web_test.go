package sources_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/aulalabs/aula/rag/sources"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GetWebPage", func() {
	It("should extract the text of a page", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body><p>A loop repeats instructions.</p></body></html>")
		}))
		defer server.Close()

		content, err := GetWebPage(context.Background(), server.URL+"/lesson")
		Expect(err).ToNot(HaveOccurred())
		Expect(content).To(ContainSubstring("A loop repeats instructions."))
	})

	It("should error on a non-200 response", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "<html><body><h1>404 Not Found</h1></body></html>")
		}))
		defer server.Close()

		_, err := GetWebPage(context.Background(), server.URL+"/gone")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SourceRouter", func() {
	It("should route plain URLs to the page fetcher", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>Plain page.</body></html>")
		}))
		defer server.Close()

		content, err := SourceRouter(context.Background(), server.URL+"/page")
		Expect(err).ToNot(HaveOccurred())
		Expect(content).To(ContainSubstring("Plain page."))
	})

	It("should expand sitemap URLs into every listed page", func() {
		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%s/one</loc></url>
  <url><loc>%s/two</loc></url>
</urlset>`, server.URL, server.URL)
		})
		mux.HandleFunc("/one", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>First page.</body></html>")
		})
		mux.HandleFunc("/two", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>Second page.</body></html>")
		})

		content, err := SourceRouter(context.Background(), server.URL+"/sitemap.xml")
		Expect(err).ToNot(HaveOccurred())
		Expect(content).To(ContainSubstring("First page."))
		Expect(content).To(ContainSubstring("Second page."))
	})
})
