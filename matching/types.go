package matching

// Role is an account type. Speakers are stored as "competitor".
type Role string

const (
	RoleSpeaker   Role = "competitor"
	RoleOrganizer Role = "organizer"
	RoleGuest     Role = "guest"
)

// ParseRole maps a stored account type to a Role; anything unrecognised is a guest.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleSpeaker, RoleOrganizer:
		return Role(s)
	default:
		return RoleGuest
	}
}

// Account is the public view of a user that can appear as a match subject.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar,omitempty"`
	Role         Role      `json:"accountType"`
	School       string    `json:"school,omitempty"`
	Organization string    `json:"organization,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	Website      string    `json:"website,omitempty"`
	Causes       []CauseID `json:"causes,omitempty"`
}

// VideoContent is the searchable view of a stored video.
type VideoContent struct {
	ID         string
	Title      string
	Topic      string
	Transcript string
	Script     string
	Thumbnail  string
	Views      int
	Uploader   Account
}

// VideoPreview is the slice of a video returned with a speaker match.
type VideoPreview struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Topic     string `json:"topic"`
	Views     int    `json:"views"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// MatchResult is one ranked counterpart. MatchScore always equals len(MatchedCauses).
type MatchResult struct {
	User           Account        `json:"user"`
	MatchedCauses  []CauseID      `json:"matchedCauses"`
	MatchScore     int            `json:"matchScore"`
	MatchingVideos []VideoPreview `json:"matchingVideos,omitempty"`
	TotalViews     int            `json:"totalViews,omitempty"`
}

func newMatchResult(user Account, causes []CauseID) MatchResult {
	return MatchResult{
		User:          user,
		MatchedCauses: causes,
		MatchScore:    len(causes),
	}
}

// MatchType tags which side a response describes.
type MatchType string

const (
	MatchTypeSpeakers      MatchType = "speakers"
	MatchTypeOrganizations MatchType = "organizations"
)

// Response is the engine output. Message is set when Matches is empty by design.
type Response struct {
	Matches    []MatchResult `json:"matches"`
	Type       MatchType     `json:"type,omitempty"`
	Message    string        `json:"message,omitempty"`
	YourCauses []CauseID     `json:"yourCauses,omitempty"`
}

const (
	MsgNoCauses          = "Set your advocacy focus to see matched speakers"
	MsgNoSpeakers        = "No speakers match your advocacy focus yet"
	MsgNoVideos          = "Upload speeches to see matched organizations"
	MsgNoTopics          = "No advocacy topics detected in your speeches yet"
	MsgNoOrganizations   = "No organizations match your advocacy topics yet"
	MsgRoleNotApplicable = "Matching is only available for speakers and organizers"
)

func emptyResponse(t MatchType, msg string) Response {
	return Response{Matches: []MatchResult{}, Type: t, Message: msg}
}
