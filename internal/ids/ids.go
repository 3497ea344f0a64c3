// Package ids generates the identifiers and slugs used across stores and the
// pipeline: job IDs, task IDs, and filesystem-safe location/company slugs.
package ids

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// JobIDPrefix marks pipeline record identifiers.
const JobIDPrefix = "JOB-"

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// deaccent decomposes characters and strips combining marks, so
	// "Łódź Möbel" slugs the same as "Lodz Mobel".
	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	// translit covers letters with no canonical decomposition, which
	// deaccent would otherwise drop entirely.
	translit = strings.NewReplacer(
		"Ł", "L", "ł", "l",
		"Ø", "O", "ø", "o",
		"Đ", "D", "đ", "d",
		"Ð", "D", "ð", "d",
		"Þ", "Th", "þ", "th",
		"Æ", "AE", "æ", "ae",
		"Œ", "OE", "œ", "oe",
		"ß", "ss",
	)
)

// Slugify lowercases s, strips diacritics, and collapses every run of
// non-alphanumeric characters to a single hyphen. Result may be empty.
func Slugify(s string) string {
	in := translit.Replace(s)
	out, _, err := transform.String(deaccent, in)
	if err != nil {
		out = in
	}
	out = strings.ToLower(out)
	out = nonAlnum.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// NewJobID derives a pipeline record ID from a company name:
// "JOB-" + first 8 slug chars uppercased + "-" + 6 random hex chars.
// Collision handling is the caller's concern; call again for a new suffix.
func NewJobID(company string) string {
	slug := Slugify(company)
	if slug == "" {
		slug = "unknown"
	}
	if len(slug) > 8 {
		slug = slug[:8]
	}
	slug = strings.TrimRight(slug, "-")
	return JobIDPrefix + strings.ToUpper(slug) + "-" + randomHex(6)
}

// NewTaskID returns a short opaque identifier for async tasks.
func NewTaskID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:12]
}

func randomHex(n int) string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:]))[:n]
}
