package matching

type speakerGroup struct {
	user     Account
	causes   map[CauseID]struct{}
	previews []VideoPreview
	views    int
}

// findSpeakers groups candidate videos by speaker and scores each speaker by how many of
// the organizer's causes their matching videos cover.
func (e *Engine) findSpeakers(q OrganizerQuery) Response {
	causes := dedupeCauses(q.Causes)
	if len(causes) == 0 {
		return emptyResponse("", MsgNoCauses)
	}

	keywords := e.Taxonomy().KeywordsForAll(causes)

	var order []string
	groups := make(map[string]*speakerGroup)
	for _, v := range q.Candidates {
		if v.Uploader.Role != RoleSpeaker {
			continue
		}
		text := Extract(v)
		if !e.matcher.MatchesAny(text, keywords) {
			continue
		}
		matched := e.matcher.MatchedCauses(text, causes)
		if len(matched) == 0 {
			continue
		}

		g, ok := groups[v.Uploader.ID]
		if !ok {
			g = &speakerGroup{user: v.Uploader, causes: make(map[CauseID]struct{})}
			groups[v.Uploader.ID] = g
			order = append(order, v.Uploader.ID)
		}
		for _, c := range matched {
			g.causes[c] = struct{}{}
		}
		if e.previewLimit <= 0 || len(g.previews) < e.previewLimit {
			g.previews = append(g.previews, VideoPreview{
				ID:        v.ID,
				Title:     v.Title,
				Topic:     v.Topic,
				Views:     v.Views,
				Thumbnail: v.Thumbnail,
			})
		}
		g.views += v.Views
	}

	if len(order) == 0 {
		return emptyResponse(MatchTypeSpeakers, MsgNoSpeakers)
	}

	results := make([]MatchResult, 0, len(order))
	for _, id := range order {
		g := groups[id]
		matched := make([]CauseID, 0, len(g.causes))
		for _, c := range causes {
			if _, ok := g.causes[c]; ok {
				matched = append(matched, c)
			}
		}
		r := newMatchResult(g.user, matched)
		r.MatchingVideos = g.previews
		r.TotalViews = g.views
		results = append(results, r)
	}

	return Response{Matches: rank(results), Type: MatchTypeSpeakers}
}

func dedupeCauses(causes []CauseID) []CauseID {
	seen := make(map[CauseID]struct{}, len(causes))
	out := make([]CauseID, 0, len(causes))
	for _, c := range causes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
