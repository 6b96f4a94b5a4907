package alias

import (
	"strings"

	"github.com/matsen/ss/internal/s2"
)

// ShortIDLen is the length of the short form of a canonical identifier.
const ShortIDLen = 4

// ShortID returns the short form of a canonical identifier.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// ExtractAliases derives the aliases for a batch of papers and their
// authors. Entities are processed in order, so within a batch a later
// entity wins an alias collision. Entities without an ID contribute nothing.
func ExtractAliases(papers []s2.Paper) Mapping {
	m := make(Mapping)
	for _, p := range papers {
		AddPaper(m, p)
	}
	return m
}

// AddPaper adds a paper's aliases (full ID and short ID) to m, followed by
// the aliases of each of its authors.
func AddPaper(m Mapping, p s2.Paper) {
	if p.PaperID != "" {
		m[p.PaperID] = p.PaperID
		m[ShortID(p.PaperID)] = p.PaperID
	}
	for _, a := range p.Authors {
		AddAuthor(m, a)
	}
}

// AddAuthor adds an author's aliases to m: each whitespace-separated token of
// the display name, the full name exactly as returned, the full ID, and the
// short ID.
func AddAuthor(m Mapping, a s2.Author) {
	if a.AuthorID == "" {
		return
	}
	for _, token := range strings.Fields(a.Name) {
		m[token] = a.AuthorID
	}
	if a.Name != "" {
		m[a.Name] = a.AuthorID
	}
	m[a.AuthorID] = a.AuthorID
	m[ShortID(a.AuthorID)] = a.AuthorID
}
