package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"amplify_server/logger"
	"amplify_server/middleware"
	"amplify_server/services"
	"amplify_server/utils"
)

const maxPageSize = 50

// UserController serves channel pages, profile edits and matches.
type UserController struct {
	Profiles ProfileAPI
	Content  ContentAPI
	Matches  MatchAPI
	Log      logger.Logger
}

func NewUserController(profiles ProfileAPI, content ContentAPI, matches MatchAPI, log logger.Logger) *UserController {
	return &UserController{Profiles: profiles, Content: content, Matches: matches, Log: log}
}

func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := uc.Profiles.GetProfile(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, uc.Log, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial profile edit and returns the stored user.
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.ProfileUpdate
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, uc.Log, err, "Failed to update profile")
		return
	}
	user, err := uc.Profiles.UpdateProfile(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		respondError(w, uc.Log, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (uc *UserController) GetUserVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := utils.Page(q.Get("page"), q.Get("limit"), services.DefaultPageSize, maxPageSize)
	result, err := uc.Content.UserVideos(r.Context(), mux.Vars(r)["id"], page, limit)
	if err != nil {
		respondError(w, uc.Log, err, "Failed to fetch videos")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetMatches answers who the signed-in user should meet.
func (uc *UserController) GetMatches(w http.ResponseWriter, r *http.Request) {
	resp, err := uc.Matches.MatchesFor(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		respondError(w, uc.Log, err, "Failed to fetch matches")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (uc *UserController) GetCauses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"causes": uc.Profiles.Causes()})
}
