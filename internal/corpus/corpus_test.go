package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/talentscout/internal/errors"
)

func TestExtractBullets(t *testing.T) {
	doc := "# Notes\n\n" +
		"- Led migration of CI pipeline to self-hosted runners\n" +
		"* Cut deploy time from 40 to 6 minutes\n" +
		"- [ ] follow up with team\n" +
		"- short\n" +
		"plain paragraph text\n"

	bullets := ExtractBullets(doc)
	require.Equal(t, []string{
		"Led migration of CI pipeline to self-hosted runners",
		"Cut deploy time from 40 to 6 minutes",
	}, bullets)
}

func TestHarvestDirMergesAndDedupes(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "work.md"), []byte(
		"- Built internal deployment tooling in Go\n- Operated a 30-node Kubernetes fleet\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "more.md"), []byte(
		"- Built internal deployment tooling in Go\n- Mentored two junior engineers\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "ignore.txt"), []byte(
		"- Not markdown, not harvested\n"), 0o644))

	c := New(t.TempDir(), nil)
	added, err := c.HarvestDir(src)
	require.NoError(t, err)
	require.Equal(t, 3, added)

	// Re-harvesting the same tree adds nothing.
	added, err = c.HarvestDir(src)
	require.NoError(t, err)
	require.Zero(t, added)

	entries, err := c.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		require.Equal(t, []string{filepath.Base(src)}, e.Tags)
		require.False(t, e.Harvested.IsZero())
	}
}

func TestHarvestDirRejectsNonDirectory(t *testing.T) {
	c := New(t.TempDir(), nil)
	_, err := c.HarvestDir(filepath.Join(t.TempDir(), "missing"))
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestStats(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.md"), []byte(
		"- Designed event-driven ingestion service\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.md"), []byte(
		"- Reduced cloud spend by thirty percent\n"), 0o644))

	c := New(t.TempDir(), nil)
	_, err := c.HarvestDir(src)
	require.NoError(t, err)

	st, err := c.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, st.Bullets)
	require.Equal(t, 2, st.Sources)
	require.Equal(t, 2, st.ByTag[filepath.Base(src)])
}

func TestStatsEmptyCorpus(t *testing.T) {
	c := New(t.TempDir(), nil)
	st, err := c.Stats()
	require.NoError(t, err)
	require.Zero(t, st.Bullets)
	require.Zero(t, st.Sources)
}

func TestHarvestRepoRequiresURL(t *testing.T) {
	c := New(t.TempDir(), nil)
	_, err := c.HarvestRepo(RepoSource{})
	require.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestRepoName(t *testing.T) {
	require.Equal(t, "notes", repoName("git@host:me/notes.git"))
	require.Equal(t, "resume-material", repoName("https://example.com/me/resume-material"))
	require.Equal(t, "repo", repoName(""))
}
