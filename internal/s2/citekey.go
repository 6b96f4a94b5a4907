package s2

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// bibtexKeyPattern finds the citation key in a BibTeX entry: the first run
// of word characters containing a digit, e.g. "Vaswani2017AttentionIA".
var bibtexKeyPattern = regexp.MustCompile(`\w+\d+\w+`)

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true,
	"in": true, "on": true, "for": true, "to": true, "with": true,
}

// BibTeXKey extracts the citation key from a BibTeX entry.
// Returns "" if no key can be found.
func BibTeXKey(bibtex string) string {
	return bibtexKeyPattern.FindString(bibtex)
}

// CiteKey returns a filesystem-safe citation key for a paper. The key from
// the paper's BibTeX rendering is preferred; otherwise one is generated from
// the first author's surname, the year, and the title.
func CiteKey(paper Paper) string {
	if paper.CitationStyles != nil {
		if key := NormalizeCiteKey(BibTeXKey(paper.CitationStyles.BibTeX)); key != "" {
			return key
		}
	}
	return generateCiteKey(paper)
}

// NormalizeCiteKey strips everything except letters, digits, '-' and '_'.
func NormalizeCiteKey(key string) string {
	var sb strings.Builder
	for _, r := range key {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// generateCiteKey generates a citation key from paper metadata.
// Format: LastName + Year + suffix (e.g., "Zhang2018-vi").
func generateCiteKey(paper Paper) string {
	lastName := "Unknown"
	if len(paper.Authors) > 0 {
		if last := NormalizeCiteKey(lastNameOf(paper.Authors[0].Name)); last != "" {
			lastName = last
		}
	}

	year := paper.Year
	if year == 0 {
		year = 9999
	}

	return fmt.Sprintf("%s%d-%s", lastName, year, titleSuffix(paper.Title))
}

// lastNameOf returns the surname of a display name, keeping common
// suffixes (Jr, III, PhD) attached.
//
// Multi-part surnames (von Neumann, van der Waals) are not recognized.
func lastNameOf(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}

	if nameSuffixes[strings.ToLower(parts[len(parts)-1])] && len(parts) > 2 {
		return parts[len(parts)-2] + parts[len(parts)-1]
	}
	return parts[len(parts)-1]
}

// titleSuffix creates a 2-letter suffix from the title.
func titleSuffix(title string) string {
	var suffix strings.Builder
	for _, word := range strings.Fields(strings.ToLower(title)) {
		if titleStopWords[word] {
			continue
		}
		r := []rune(word)[0]
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			suffix.WriteRune(r)
		}
		if suffix.Len() >= 2 {
			break
		}
	}

	for suffix.Len() < 2 {
		suffix.WriteByte('x')
	}

	return suffix.String()
}
