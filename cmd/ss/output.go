package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matsen/ss/internal/alias"
	"github.com/matsen/ss/internal/s2"
)

// Constants for output formatting.
const (
	// MaxListedAuthors is how many authors a flattened paper names before
	// summarizing the rest.
	MaxListedAuthors = 10

	TitleMaxLen   = 70 // Used in human paper listings
	TextWrapWidth = 68 // Author line wrap width
)

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError writes an error to stderr and exits.
func exitWithError(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", fmt.Sprintf(format, args...))
	os.Exit(code)
}

// FlatPaper is the compact paper shape printed by list commands.
type FlatPaper struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Year    int    `json:"year"`
	Authors string `json:"authors"`
}

// flattenPaper reduces a paper to its short ID, title, year and author line.
func flattenPaper(p s2.Paper) FlatPaper {
	return FlatPaper{
		ID:      alias.ShortID(p.PaperID),
		Title:   p.Title,
		Year:    p.Year,
		Authors: authorsString(p.Authors, MaxListedAuthors),
	}
}

func flattenPapers(papers []s2.Paper) []FlatPaper {
	flat := make([]FlatPaper, len(papers))
	for i, p := range papers {
		flat[i] = flattenPaper(p)
	}
	return flat
}

// authorsString renders up to limit authors as "Name (prefix)", comma-joined,
// followed by ", and K others" when the list was cut.
func authorsString(authors []s2.Author, limit int) string {
	n := min(len(authors), limit)
	parts := make([]string, n)
	for i, a := range authors[:n] {
		parts[i] = fmt.Sprintf("%s (%s)", a.Name, alias.ShortID(a.AuthorID))
	}

	s := strings.Join(parts, ", ")
	if rest := len(authors) - n; rest > 0 {
		s += fmt.Sprintf(", and %d others", rest)
	}
	return s
}

// printPapers writes papers in flattened form, as JSON or a numbered listing.
func (a *app) printPapers(papers []s2.Paper) error {
	flat := flattenPapers(papers)
	if !a.human {
		return writeJSON(a.stdout, flat)
	}

	if len(flat) == 0 {
		fmt.Fprintln(a.stdout, "No papers found.")
		return nil
	}
	for i, p := range flat {
		year := "n.d."
		if p.Year != 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(a.stdout, "%d. [%s] %s (%s)\n", i+1, p.ID, truncateString(p.Title, TitleMaxLen), year)
		if p.Authors != "" {
			fmt.Fprintf(a.stdout, "   %s\n", wrapText(p.Authors, TextWrapWidth, "   "))
		}
	}
	return nil
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case line.Len()+1+len(word) <= width:
			line.WriteString(" ")
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n"+indent)
}
