package models

import "amplify_server/matching"

// Account types as stored.
const (
	AccountTypeCompetitor = "competitor"
	AccountTypeOrganizer  = "organizer"
	AccountTypeGuest      = "guest"
)

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID               string   `dynamodbav:"id" json:"id"`
	Username         string   `dynamodbav:"username" json:"username"`
	Email            string   `dynamodbav:"email" json:"email"`
	PasswordHash     string   `dynamodbav:"passwordHash" json:"-"`
	Avatar           string   `dynamodbav:"avatar,omitempty" json:"avatar"`
	AccountType      string   `dynamodbav:"accountType" json:"accountType"`
	FullName         string   `dynamodbav:"fullName" json:"fullName"`
	Bio              string   `dynamodbav:"bio" json:"bio"`
	Location         string   `dynamodbav:"location" json:"location"`
	School           string   `dynamodbav:"school" json:"school"`
	Events           []string `dynamodbav:"events" json:"events"`
	Achievements     []string `dynamodbav:"achievements" json:"achievements"`
	Organization     string   `dynamodbav:"organization" json:"organization"`
	OrganizationType string   `dynamodbav:"organizationType" json:"organizationType"`
	Website          string   `dynamodbav:"website" json:"website"`
	Causes           []string `dynamodbav:"causes" json:"causes"`
	Followers        int      `dynamodbav:"followers" json:"followers"`
	CreatedAt        string   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt        string   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// NormalizeAccountType maps anything unknown to competitor, the default for new accounts.
func NormalizeAccountType(s string) string {
	switch s {
	case AccountTypeCompetitor, AccountTypeOrganizer, AccountTypeGuest:
		return s
	default:
		return AccountTypeCompetitor
	}
}

// CanInteract reports whether the user may like and comment.
func (u *User) CanInteract() bool {
	return u.AccountType != AccountTypeGuest
}

// CanUpload reports whether the user may upload videos.
func (u *User) CanUpload() bool {
	return u.AccountType == AccountTypeCompetitor || u.AccountType == AccountTypeOrganizer
}

// EnsureLists replaces nil list attributes with empty ones so they marshal as [] and
// are stored as DynamoDB lists rather than NULL.
func (u *User) EnsureLists() {
	if u.Events == nil {
		u.Events = []string{}
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
	if u.Causes == nil {
		u.Causes = []string{}
	}
}

// CauseIDs returns the declared causes as taxonomy IDs.
func (u *User) CauseIDs() []matching.CauseID {
	out := make([]matching.CauseID, len(u.Causes))
	for i, c := range u.Causes {
		out[i] = matching.CauseID(c)
	}
	return out
}

// ToAccount is the view of u the matching engine works with.
func (u *User) ToAccount() matching.Account {
	return matching.Account{
		ID:           u.ID,
		Username:     u.Username,
		Avatar:       u.Avatar,
		Role:         matching.ParseRole(u.AccountType),
		School:       u.School,
		Organization: u.Organization,
		Bio:          u.Bio,
		Location:     u.Location,
		Website:      u.Website,
		Causes:       u.CauseIDs(),
	}
}

// UserSummary is the uploader/commenter block embedded in video and comment responses.
type UserSummary struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	AccountType  string `json:"accountType"`
	School       string `json:"school,omitempty"`
	Organization string `json:"organization,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		Avatar:       u.Avatar,
		AccountType:  u.AccountType,
		School:       u.School,
		Organization: u.Organization,
		Bio:          u.Bio,
	}
}

// PublicProfile is a channel page: the user without private fields plus video stats.
type PublicProfile struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Avatar       string   `json:"avatar"`
	FullName     string   `json:"fullName"`
	School       string   `json:"school"`
	AccountType  string   `json:"accountType"`
	Events       []string `json:"events"`
	Bio          string   `json:"bio"`
	Achievements []string `json:"achievements"`
	Followers    int      `json:"followers"`
	CreatedAt    string   `json:"createdAt"`
	VideoCount   int      `json:"videoCount"`
	TotalViews   int      `json:"totalViews"`
}
