package services

import (
	"context"
	"time"

	"amplify_server/logger"
	"amplify_server/matching"
	"amplify_server/metrics"
	"amplify_server/models"
)

// MatchUsers is the account side of candidate fetching.
type MatchUsers interface {
	GetUsers(ctx context.Context, ids []string) (map[string]*models.User, error)
	FindOrganizers(ctx context.Context, causes []string) ([]*models.User, error)
}

// MatchVideos is the video side of candidate fetching.
type MatchVideos interface {
	FindPublicMatching(ctx context.Context, keywords []string, limit int) ([]*models.Video, error)
	ListByUser(ctx context.Context, userID string, publicOnly bool) ([]*models.Video, error)
}

// MatchService prefetches candidates from storage and hands them to the matching engine.
type MatchService struct {
	Users  MatchUsers
	Videos MatchVideos
	Engine *matching.Engine
	Log    logger.Logger
}

// MatchesFor answers "who should this user meet". Storage failures are returned as errors
// and the engine is not consulted.
func (ms *MatchService) MatchesFor(ctx context.Context, user *models.User) (matching.Response, error) {
	start := time.Now()
	account := user.ToAccount()

	var (
		q   matching.Query
		err error
	)
	switch account.Role {
	case matching.RoleOrganizer:
		q, err = ms.organizerQuery(ctx, account)
	case matching.RoleSpeaker:
		q, err = ms.speakerQuery(ctx, account)
	default:
		q = matching.GuestQuery{UserID: account.ID}
	}
	if err != nil {
		ms.Log.WithError(err).Error("failed to fetch match candidates", map[string]interface{}{"userId": user.ID})
		return matching.Response{}, err
	}

	resp := ms.Engine.Match(q)

	outcome := "matched"
	if len(resp.Matches) == 0 {
		outcome = "empty"
	}
	metrics.MatchResponsesTotal.WithLabelValues(string(account.Role), outcome).Inc()
	metrics.MatchDuration.WithLabelValues(string(account.Role)).Observe(time.Since(start).Seconds())
	ms.Log.Debug("matches computed", map[string]interface{}{
		"userId":  user.ID,
		"role":    string(account.Role),
		"matches": len(resp.Matches),
	})
	return resp, nil
}

// organizerQuery loads the most viewed public videos mentioning any of the organizer's
// cause keywords, each with its uploader.
func (ms *MatchService) organizerQuery(ctx context.Context, account matching.Account) (matching.Query, error) {
	q := matching.OrganizerQuery{UserID: account.ID, Causes: account.Causes}
	if len(account.Causes) == 0 {
		return q, nil
	}

	keywords := ms.Engine.Taxonomy().KeywordsForAll(account.Causes)
	videos, err := ms.Videos.FindPublicMatching(ctx, keywords, matching.CandidatePoolSize)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.UserID
	}
	uploaders, err := ms.Users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	q.Candidates = make([]matching.VideoContent, 0, len(videos))
	for _, v := range videos {
		u, ok := uploaders[v.UserID]
		if !ok {
			continue
		}
		q.Candidates = append(q.Candidates, v.ToContent(u.ToAccount()))
	}
	return q, nil
}

// speakerQuery loads all of the speaker's videos and the organizers who declared a cause
// those videos discuss.
func (ms *MatchService) speakerQuery(ctx context.Context, account matching.Account) (matching.Query, error) {
	videos, err := ms.Videos.ListByUser(ctx, account.ID, false)
	if err != nil {
		return nil, err
	}

	q := matching.SpeakerQuery{UserID: account.ID, Videos: make([]matching.VideoContent, len(videos))}
	for i, v := range videos {
		q.Videos[i] = v.ToContent(account)
	}

	discovered := ms.Engine.DiscoverCauses(q.Videos)
	if len(discovered) == 0 {
		return q, nil
	}

	causes := make([]string, len(discovered))
	for i, c := range discovered {
		causes[i] = string(c)
	}
	organizers, err := ms.Users.FindOrganizers(ctx, causes)
	if err != nil {
		return nil, err
	}
	q.Organizers = make([]matching.Account, len(organizers))
	for i, o := range organizers {
		q.Organizers[i] = o.ToAccount()
	}
	return q, nil
}
