package matching

// findOrganizations discovers the causes in a speaker's own videos and scores organizer
// accounts by how many of those causes they declare.
func (e *Engine) findOrganizations(q SpeakerQuery) Response {
	if len(q.Videos) == 0 {
		return emptyResponse("", MsgNoVideos)
	}

	discovered := e.DiscoverCauses(q.Videos)
	if len(discovered) == 0 {
		return emptyResponse("", MsgNoTopics)
	}
	found := make(map[CauseID]struct{}, len(discovered))
	for _, c := range discovered {
		found[c] = struct{}{}
	}

	results := []MatchResult{}
	for _, org := range q.Organizers {
		if org.Role != RoleOrganizer {
			continue
		}
		var common []CauseID
		for _, c := range dedupeCauses(org.Causes) {
			if _, ok := found[c]; ok {
				common = append(common, c)
			}
		}
		if len(common) == 0 {
			continue
		}
		results = append(results, newMatchResult(org, common))
	}

	resp := Response{
		Matches:    rank(results),
		Type:       MatchTypeOrganizations,
		YourCauses: discovered,
	}
	if len(resp.Matches) == 0 {
		resp.Message = MsgNoOrganizations
	}
	return resp
}
