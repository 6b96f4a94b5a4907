// Package s2 provides a client for the Semantic Scholar Academic Graph API,
// along with helpers for paper identifiers, citation keys, and download links.
package s2

// Paper represents a paper from the Semantic Scholar API.
// Only the fields requested via the fields parameter are populated.
type Paper struct {
	PaperID        string          `json:"paperId"`
	ExternalIDs    ExternalIDs     `json:"externalIds,omitempty"`
	Title          string          `json:"title"`
	Abstract       string          `json:"abstract,omitempty"`
	Authors        []Author        `json:"authors,omitempty"`
	Year           int             `json:"year,omitempty"`
	Venue          string          `json:"venue,omitempty"`
	IsOpenAccess   bool            `json:"isOpenAccess,omitempty"`
	OpenAccessPDF  *OpenAccessPDF  `json:"openAccessPdf,omitempty"`
	CitationStyles *CitationStyles `json:"citationStyles,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI           string `json:"DOI,omitempty"`
	ArXiv         string `json:"ArXiv,omitempty"`
	PubMed        string `json:"PubMed,omitempty"`
	PubMedCentral string `json:"PubMedCentral,omitempty"`
	CorpusID      int    `json:"CorpusId,omitempty"`
}

// Author represents an author. AuthorID is empty when the API returns null.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// OpenAccessPDF is the openAccessPdf object returned for a paper.
type OpenAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status,omitempty"`
}

// CitationStyles holds citation-style renderings of a paper.
type CitationStyles struct {
	BibTeX string `json:"bibtex"`
}

// AuthorDetails is the response of the author endpoint.
type AuthorDetails struct {
	AuthorID string  `json:"authorId,omitempty"`
	Name     string  `json:"name,omitempty"`
	Papers   []Paper `json:"papers"`
}

// PaperIdentifier represents a parsed paper identifier.
type PaperIdentifier struct {
	Type  string // DOI, ARXIV, PMID, PMCID, CorpusId, URL, MAG, ACL, S2, ALIAS
	Value string
}

// String returns the S2 API format for the identifier.
func (p PaperIdentifier) String() string {
	switch p.Type {
	case "S2", "ALIAS":
		return p.Value
	default:
		return p.Type + ":" + p.Value
	}
}

// citationResult wraps a single entry of the citations endpoint.
type citationResult struct {
	CitingPaper *Paper `json:"citingPaper"`
}

// citationsResponse is the response from the citations endpoint.
type citationsResponse struct {
	Offset int              `json:"offset"`
	Next   int              `json:"next,omitempty"`
	Data   []citationResult `json:"data"`
}

// searchResponse is the response from the paper search endpoint.
type searchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Next   int     `json:"next,omitempty"`
	Data   []Paper `json:"data"`
}
