package s2

import "strings"

// ArXivPDFBase is the prefix of canonical arXiv PDF URLs.
const ArXivPDFBase = "https://arxiv.org/pdf/"

// LinkKind tags the outcome of download-link resolution.
type LinkKind int

const (
	// NoLink means neither an open-access link nor a fallback is available.
	NoLink LinkKind = iota
	// OpenAccessLink is a PDF URL supplied by the API.
	OpenAccessLink
	// FallbackRepositoryLink is an arXiv PDF URL built from the external ID.
	FallbackRepositoryLink
)

func (k LinkKind) String() string {
	switch k {
	case OpenAccessLink:
		return "open_access"
	case FallbackRepositoryLink:
		return "arxiv"
	default:
		return "none"
	}
}

// DownloadLink is where a paper's PDF can be fetched from.
type DownloadLink struct {
	Kind LinkKind
	URL  string
}

// ResolveDownloadLink computes the download link for a paper once.
// The open-access link is used only for papers flagged open access;
// otherwise the arXiv ID, if any, is used.
func ResolveDownloadLink(paper Paper) DownloadLink {
	if paper.IsOpenAccess && paper.OpenAccessPDF != nil {
		if u := strings.TrimSpace(paper.OpenAccessPDF.URL); u != "" {
			return DownloadLink{Kind: OpenAccessLink, URL: u}
		}
	}

	if id := strings.TrimSpace(paper.ExternalIDs.ArXiv); id != "" {
		return DownloadLink{Kind: FallbackRepositoryLink, URL: ArXivPDFBase + id}
	}

	return DownloadLink{Kind: NoLink}
}

// Err returns ErrNoDownloadURL for NoLink and nil otherwise.
func (l DownloadLink) Err() error {
	if l.Kind == NoLink {
		return ErrNoDownloadURL
	}
	return nil
}
