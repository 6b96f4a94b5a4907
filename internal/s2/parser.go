package s2

import (
	"regexp"
	"strings"
)

// Identifier prefixes accepted verbatim by the paper endpoints.
var identifierPrefixes = []string{
	"DOI:",
	"ARXIV:",
	"PMID:",
	"PMCID:",
	"CorpusId:",
	"URL:",
	"MAG:",
	"ACL:",
}

// s2IDPattern matches a 40-character hex string (raw S2 paper ID).
var s2IDPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// ParsePaperID parses a paper identifier string into a PaperIdentifier.
// Supports formats:
//   - DOI:10.1038/nature12373
//   - ARXIV:2106.15928
//   - PMID:19872477
//   - CorpusId:215416146
//   - Raw 40-character S2 paper ID
//
// Anything else is treated as an alias.
func ParsePaperID(id string) PaperIdentifier {
	id = strings.TrimSpace(id)

	for _, prefix := range identifierPrefixes {
		if len(id) > len(prefix) && strings.EqualFold(id[:len(prefix)], prefix) {
			return PaperIdentifier{
				Type:  strings.TrimSuffix(prefix, ":"),
				Value: id[len(prefix):],
			}
		}
	}

	if s2IDPattern.MatchString(id) {
		return PaperIdentifier{
			Type:  "S2",
			Value: id,
		}
	}

	return PaperIdentifier{
		Type:  "ALIAS",
		Value: id,
	}
}

// IsPrefixed reports whether the identifier carries an explicit external-ID
// prefix such as DOI: or ARXIV:.
func (p PaperIdentifier) IsPrefixed() bool {
	return p.Type != "S2" && p.Type != "ALIAS"
}
