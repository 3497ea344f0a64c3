package artifacts

import (
	"bytes"
	"fmt"
	"html"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(ghtml.WithHardWraps()),
)

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Georgia, serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
h1, h2, h3 { font-family: Helvetica, Arial, sans-serif; }
code { background: #f4f4f4; padding: 0 .2em; }
</style>
</head>
<body>
%s</body>
</html>
`

// renderHTML converts the artifact body to a standalone HTML page next to
// the markdown file.
func (w *Writer) renderHTML(jobID string, kind pipeline.ArtifactKind, body string) error {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return errors.InternalError("render artifact html", err)
	}
	title := fmt.Sprintf("%s: %s", jobID, string(kind))
	page := fmt.Sprintf(pageTemplate, html.EscapeString(title), buf.String())
	htmlPath := w.HTMLPath(jobID, kind)
	if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
		return errors.StorageError("write artifact html", err).WithContext("path", htmlPath)
	}
	return nil
}
