package entities

import "time"

// Clip is one detected highlight cut from a project's source video. The
// backend renders each clip in both aspect ratios; VideoURL points at
// whichever rendition the detection pipeline considers primary.
type Clip struct {
	ClipID             string
	Title              string
	TemplateHeader     string
	StartSeconds       float64
	EndSeconds         float64
	VideoURL           string
	HorizontalVideoURL string
	VerticalVideoURL   string
	ViralityScore      float64
}

func (c Clip) Duration() float64 {
	if c.EndSeconds <= c.StartSeconds {
		return 0
	}
	return c.EndSeconds - c.StartSeconds
}

// ClipPage is the clip listing for one project, including the render
// counters the gallery uses to decide whether the project is openable.
type ClipPage struct {
	ProjectID      string
	Clips          []Clip
	TotalClips     int
	ProcessedClips int
	FetchedAt      time.Time
}

// StillProcessing reports whether the gallery should keep the project's
// card in its processing state: the backend has promised clips but has
// not rendered any of them yet. A page with zero promised clips is not
// processing, it is simply empty.
func (p ClipPage) StillProcessing() bool {
	return p.ProcessedClips == 0 && p.TotalClips > 0
}

// ProjectSummary is the gallery's row-level view of a project. It is a
// read model: the sync service owns the underlying record.
type ProjectSummary struct {
	ProjectID       string
	Status          string
	Progress        int
	ProgressMessage string
	Filename        string
	ThumbnailURL    string
	ClipCount       int
	IsSaved         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ListingSource string

const (
	ListingSourceUpstream ListingSource = "upstream"
	ListingSourceCache    ListingSource = "cache"
	ListingSourceLocal    ListingSource = "local"
)

// ProjectListing is the merged gallery view. Upstream data wins wholesale
// whenever a server read (fresh or cached) is available; the local session
// list is purely the fallback, carrying optimistic state the server has
// not reflected yet.
type ProjectListing struct {
	Projects  []ProjectSummary
	Source    ListingSource
	FetchedAt time.Time
}

func (l ProjectListing) ServerAuthoritative() bool {
	return l.Source == ListingSourceUpstream || l.Source == ListingSourceCache
}
