package sources

import (
	"context"
	"strings"

	"github.com/mudler/xlog"
)

// SourceRouter downloads curriculum content from a URL, dispatching on the
// kind of source it points at: a sitemap, a git repository, or a plain page.
func SourceRouter(ctx context.Context, url string) (string, error) {
	xlog.Info("Downloading content from", "url", url)
	switch {
	case strings.HasSuffix(url, "sitemap.xml"):
		content, err := GetWebSitemapContent(ctx, url)
		if err != nil {
			return "", err
		}
		xlog.Info("Downloaded all content from sitemap", "url", url, "pages", len(content))
		return strings.Join(content, "\n"), nil
	case strings.HasSuffix(url, ".git"):
		return GetGitRepositoryContent(url, "")
	}

	return GetWebPage(ctx, url)
}
