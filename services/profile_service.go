package services

import (
	"context"
	"strings"

	apperrors "amplify_server/errors"
	"amplify_server/logger"
	"amplify_server/matching"
	"amplify_server/models"
	"amplify_server/validation"
)

// ProfileUpdate is a partial profile edit; nil fields are unchanged.
type ProfileUpdate struct {
	Username         *string   `json:"username" validate:"omitempty,min=3,max=30"`
	FullName         *string   `json:"fullName" validate:"omitempty,max=100"`
	School           *string   `json:"school" validate:"omitempty,max=100"`
	Bio              *string   `json:"bio" validate:"omitempty,max=1000"`
	Location         *string   `json:"location" validate:"omitempty,max=100"`
	Website          *string   `json:"website" validate:"omitempty,url"`
	Organization     *string   `json:"organization" validate:"omitempty,max=100"`
	OrganizationType *string   `json:"organizationType" validate:"omitempty,max=50"`
	Avatar           *string   `json:"avatar" validate:"omitempty,max=500"`
	Events           *[]string `json:"events" validate:"omitempty,max=20,dive,max=50"`
	Achievements     *[]string `json:"achievements" validate:"omitempty,max=50,dive,max=200"`
	Causes           *[]string `json:"causes" validate:"omitempty,max=3,dive,cause"`
}

// ProfileService serves channel pages and profile edits.
type ProfileService struct {
	Users  UserStore
	Videos VideoStore
	Log    logger.Logger
}

// GetProfile returns the public profile with video stats: videoCount counts public videos,
// totalViews counts every video.
func (ps *ProfileService) GetProfile(ctx context.Context, id string) (*models.PublicProfile, error) {
	user, err := ps.Users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	videos, err := ps.Videos.ListByUser(ctx, id, false)
	if err != nil {
		return nil, err
	}

	user.EnsureLists()
	profile := &models.PublicProfile{
		ID:           user.ID,
		Username:     user.Username,
		Avatar:       user.Avatar,
		FullName:     user.FullName,
		School:       user.School,
		AccountType:  user.AccountType,
		Events:       user.Events,
		Bio:          user.Bio,
		Achievements: user.Achievements,
		Followers:    user.Followers,
		CreatedAt:    user.CreatedAt,
	}
	for _, v := range videos {
		if v.IsPublic {
			profile.VideoCount++
		}
		profile.TotalViews += v.Views
	}
	return profile, nil
}

// UpdateProfile applies the set fields of in to user and returns the stored result.
func (ps *ProfileService) UpdateProfile(ctx context.Context, user *models.User, in ProfileUpdate) (*models.User, error) {
	if verr := validation.ValidateStruct(in); verr != nil {
		return nil, apperrors.NewValidationError(verr.Message())
	}

	fields := make(map[string]interface{})
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != "" && username != user.Username {
			existing, err := ps.Users.GetUserByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != user.ID {
				return nil, apperrors.NewConflictError("Username already taken")
			}
			fields["username"] = username
		}
	}
	setField(fields, "fullName", in.FullName)
	setField(fields, "school", in.School)
	setField(fields, "bio", in.Bio)
	setField(fields, "location", in.Location)
	setField(fields, "website", in.Website)
	setField(fields, "organization", in.Organization)
	setField(fields, "organizationType", in.OrganizationType)
	setField(fields, "avatar", in.Avatar)
	setList(fields, "events", in.Events)
	setList(fields, "achievements", in.Achievements)
	if in.Causes != nil {
		fields["causes"] = dedupe(*in.Causes)
	}

	if len(fields) == 0 {
		return user, nil
	}
	updated, err := ps.Users.UpdateUser(ctx, user.ID, fields)
	if err != nil {
		return nil, err
	}
	ps.Log.Info("profile updated", map[string]interface{}{"userId": user.ID})
	return updated, nil
}

func setField(fields map[string]interface{}, name string, v *string) {
	if v != nil {
		fields[name] = *v
	}
}

func setList(fields map[string]interface{}, name string, v *[]string) {
	if v == nil {
		return
	}
	if *v == nil {
		fields[name] = []string{}
		return
	}
	fields[name] = *v
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Causes lists every cause a profile can declare.
func (ps *ProfileService) Causes() []matching.CauseID {
	return matching.DefaultTaxonomy().AllCauses()
}
