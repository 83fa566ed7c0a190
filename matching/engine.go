package matching

// Query is what the caller knows about the user asking for matches. Exactly one of
// OrganizerQuery, SpeakerQuery or GuestQuery.
type Query interface {
	isQuery()
}

// OrganizerQuery asks for speakers. Candidates are the host's prefiltered public videos,
// ranked by views and capped at CandidatePoolSize, each carrying its uploader.
type OrganizerQuery struct {
	UserID     string
	Causes     []CauseID
	Candidates []VideoContent
}

// SpeakerQuery asks for organizations. Videos are all of the speaker's own videos;
// Organizers are the host's prefiltered organizer accounts.
type SpeakerQuery struct {
	UserID     string
	Videos     []VideoContent
	Organizers []Account
}

// GuestQuery is any account that cannot take part in matching.
type GuestQuery struct {
	UserID string
}

func (OrganizerQuery) isQuery() {}
func (SpeakerQuery) isQuery()   {}
func (GuestQuery) isQuery()     {}

// CandidatePoolSize is how many videos a host should fetch for an organizer query.
const CandidatePoolSize = 50

// DefaultPreviewLimit is how many matching videos are listed per speaker.
const DefaultPreviewLimit = 3

// Engine ranks match candidates. It holds no per-request state.
type Engine struct {
	matcher      *Matcher
	previewLimit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithPreviewLimit caps the matching videos listed per speaker; n <= 0 lists all of them.
func WithPreviewLimit(n int) Option {
	return func(e *Engine) { e.previewLimit = n }
}

// NewEngine returns an engine over m.
func NewEngine(m *Matcher, opts ...Option) *Engine {
	e := &Engine{matcher: m, previewLimit: DefaultPreviewLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Taxonomy returns the taxonomy matches are computed against.
func (e *Engine) Taxonomy() *Taxonomy {
	return e.matcher.Taxonomy()
}

// DiscoverCauses returns every taxonomy cause present in the videos' combined text.
func (e *Engine) DiscoverCauses(videos []VideoContent) []CauseID {
	return e.matcher.DiscoverCauses(ExtractAll(videos))
}

// Match answers q.
func (e *Engine) Match(q Query) Response {
	switch q := q.(type) {
	case OrganizerQuery:
		return e.findSpeakers(q)
	case SpeakerQuery:
		return e.findOrganizations(q)
	case GuestQuery:
		return emptyResponse("", MsgRoleNotApplicable)
	default:
		return emptyResponse("", MsgRoleNotApplicable)
	}
}
