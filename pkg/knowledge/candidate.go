package knowledge

import "time"

// Branch selects the discovery strategy for a page.
type Branch int

const (
	// BranchDomainToBrand searches the page's own registrable domain.
	// Designed for benign-leaning sites.
	BranchDomainToBrand Branch = iota
	// BranchLogoToBrand reads the brand off the page's logo and searches
	// for it. Designed for suspicious-leaning sites.
	BranchLogoToBrand
)

func (b Branch) String() string {
	switch b {
	case BranchDomainToBrand:
		return "domain2brand"
	case BranchLogoToBrand:
		return "logo2brand"
	default:
		return "unknown"
	}
}

// ParseBranch maps a branch name to its Branch value.
func ParseBranch(s string) (Branch, bool) {
	switch s {
	case "domain2brand":
		return BranchDomainToBrand, true
	case "logo2brand":
		return BranchLogoToBrand, true
	default:
		return 0, false
	}
}

// Failure comments drawn from a fixed taxonomy. They surface in the result
// record so a batch run can be audited per page.
const (
	CommentNoSearchResults = "no_result_from_gsearch"
	CommentCannotCropLogo  = "cannot_crop_logo"
	CommentFailsValidation = "doesnt_pass_validation"
	CommentFailsTrustOrAge = "doesnt_pass_gsb_or_date"
	CommentNoOCRText       = "no_result_from_OCR"
	CommentOCRTextShort    = "text_too_short_from_OCR"
	CommentNoLogoLabel     = "no_result_from_logo_detection"
	CommentNoReferenceLogo = "nologo"
)

// Candidate is one discovered knowledge source under evaluation. Produced
// per discovery attempt and discarded after the orchestrator consumes the
// result.
type Candidate struct {
	URL     string
	Domain  string
	TLD     string
	Logo    []byte // nil when the crop failed or no logo was predicted
	PubDate *time.Time
}

// Registrable returns domain.tld for the candidate.
func (c Candidate) Registrable() string {
	if c.TLD == "" {
		return c.Domain
	}
	return c.Domain + "." + c.TLD
}

// Query identifies the page whose brand is being discovered.
type Query struct {
	Domain        string
	TLD           string
	ReferenceLogo []byte // logo cropped from the page under evaluation, may be nil
}

// Registrable returns domain.tld for the query.
func (q Query) Registrable() string {
	if q.TLD == "" {
		return q.Domain
	}
	return q.Domain + "." + q.TLD
}

// Result is the outcome of one discovery attempt.
type Result struct {
	Branch    Branch
	BrandName string
	Domains   []string
	Logos     [][]byte
	Comment   string
	Status    string
	Elapsed   time.Duration
}

// Found reports whether the attempt produced admissible knowledge: at least
// one domain and at least one usable logo.
func (r *Result) Found() bool {
	if r == nil || len(r.Domains) == 0 {
		return false
	}
	for _, logo := range r.Logos {
		if logo != nil {
			return true
		}
	}
	return false
}
