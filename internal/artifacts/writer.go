// Package artifacts owns the generated-document tree:
// artifacts/<job-id>/<kind>.md plus a rendered .html sibling. Every markdown
// write stamps a content fingerprint into the frontmatter; overwrites verify
// the stamp so hand-edited files are never clobbered silently.
package artifacts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

// Writer manages artifact files under <root>/artifacts.
type Writer struct {
	root string
	now  func() time.Time
}

// NewWriter creates a Writer rooted at dataDir.
func NewWriter(dataDir string) *Writer {
	return &Writer{
		root: filepath.Join(dataDir, "artifacts"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Dir returns the artifact directory for one job.
func (w *Writer) Dir(jobID string) string {
	return filepath.Join(w.root, jobID)
}

// MarkdownPath returns the markdown path for one artifact.
func (w *Writer) MarkdownPath(jobID string, kind pipeline.ArtifactKind) string {
	return filepath.Join(w.Dir(jobID), string(kind)+".md")
}

// HTMLPath returns the rendered HTML path for one artifact.
func (w *Writer) HTMLPath(jobID string, kind pipeline.ArtifactKind) string {
	return filepath.Join(w.Dir(jobID), string(kind)+".html")
}

// frontmatter is the stamp written atop every generated artifact.
type frontmatter struct {
	JobID       string `yaml:"job_id"`
	Kind        string `yaml:"kind"`
	GeneratedAt string `yaml:"generated_at"`
	Fingerprint string `yaml:"fingerprint"`
}

// Write stores body as the artifact markdown (and renders HTML beside it).
// When the file already exists, the stored fingerprint is verified first: a
// mismatch means the file was hand-edited, which is a conflict unless force
// is set. Returns the markdown path relative to the data dir root.
func (w *Writer) Write(jobID string, kind pipeline.ArtifactKind, body string, force bool) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", errors.ValidationFailed("body", "must not be blank")
	}
	mdPath := w.MarkdownPath(jobID, kind)

	if !force {
		edited, err := w.handEdited(mdPath)
		if err != nil {
			return "", err
		}
		if edited {
			return "", errors.Conflict("artifact was edited by hand; use force to overwrite").
				WithContext("path", mdPath)
		}
	}

	if err := os.MkdirAll(w.Dir(jobID), 0o755); err != nil {
		return "", errors.StorageError("create artifact directory", err).WithContext("path", w.Dir(jobID))
	}

	body = strings.TrimRight(body, "\n") + "\n"
	fm := frontmatter{
		JobID:       jobID,
		Kind:        string(kind),
		GeneratedAt: w.now().Format(time.RFC3339),
		Fingerprint: mdfp.CalculateFingerprintFromParts("", body),
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return "", errors.InternalError("encode artifact frontmatter", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")
	buf.WriteString(body)

	if err := os.WriteFile(mdPath, buf.Bytes(), 0o644); err != nil {
		return "", errors.StorageError("write artifact", err).WithContext("path", mdPath)
	}
	if err := w.renderHTML(jobID, kind, body); err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.Dir(w.root), mdPath)
	if err != nil {
		rel = mdPath
	}
	return rel, nil
}

// handEdited reports whether an existing artifact's body no longer matches
// its stamped fingerprint. Missing files and files without a stamp are not
// considered edited.
func (w *Writer) handEdited(mdPath string) (bool, error) {
	data, err := os.ReadFile(mdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.StorageError("read artifact", err).WithContext("path", mdPath)
	}
	stamped, body, ok := splitFrontmatter(string(data))
	if !ok || stamped.Fingerprint == "" {
		return false, nil
	}
	return mdfp.CalculateFingerprintFromParts("", body) != stamped.Fingerprint, nil
}

// VerifyFingerprint reports whether the artifact body still matches its
// stamp. Unknown artifacts return not_found.
func (w *Writer) VerifyFingerprint(jobID string, kind pipeline.ArtifactKind) (bool, error) {
	mdPath := w.MarkdownPath(jobID, kind)
	if _, err := os.Stat(mdPath); err != nil {
		if os.IsNotExist(err) {
			return false, errors.NotFound("artifact", fmt.Sprintf("%s/%s", jobID, kind))
		}
		return false, errors.StorageError("stat artifact", err).WithContext("path", mdPath)
	}
	edited, err := w.handEdited(mdPath)
	if err != nil {
		return false, err
	}
	return !edited, nil
}

// ReadMarkdown returns the artifact body without its frontmatter stamp.
func (w *Writer) ReadMarkdown(jobID string, kind pipeline.ArtifactKind) (string, error) {
	mdPath := w.MarkdownPath(jobID, kind)
	data, err := os.ReadFile(mdPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NotFound("artifact", fmt.Sprintf("%s/%s", jobID, kind))
		}
		return "", errors.StorageError("read artifact", err).WithContext("path", mdPath)
	}
	_, body, ok := splitFrontmatter(string(data))
	if !ok {
		return string(data), nil
	}
	return body, nil
}

// RenderExisting re-renders the HTML sibling from the current (possibly
// hand-edited) markdown body.
func (w *Writer) RenderExisting(jobID string, kind pipeline.ArtifactKind) (string, error) {
	body, err := w.ReadMarkdown(jobID, kind)
	if err != nil {
		return "", err
	}
	if err := w.renderHTML(jobID, kind, body); err != nil {
		return "", err
	}
	return w.HTMLPath(jobID, kind), nil
}

// List returns the artifact kinds present for one job.
func (w *Writer) List(jobID string) ([]pipeline.ArtifactKind, error) {
	entries, err := os.ReadDir(w.Dir(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageError("list artifacts", err).WithContext("path", w.Dir(jobID))
	}
	var kinds []pipeline.ArtifactKind
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if kind, err := pipeline.ParseArtifactKind(strings.TrimSuffix(name, ".md")); err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// RemoveAll deletes a job's artifact directory. Idempotent.
func (w *Writer) RemoveAll(jobID string) error {
	if err := os.RemoveAll(w.Dir(jobID)); err != nil {
		return errors.StorageError("remove artifacts", err).WithContext("path", w.Dir(jobID))
	}
	return nil
}

// splitFrontmatter separates a stamped artifact into frontmatter and body.
func splitFrontmatter(content string) (frontmatter, string, bool) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---\n") {
		return fm, content, false
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return fm, content, false
	}
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return fm, content, false
	}
	body := strings.TrimPrefix(rest[end+5:], "\n")
	return fm, body, true
}
