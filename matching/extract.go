package matching

import "strings"

// Extract returns the lower-cased text a video is matched on.
func Extract(v VideoContent) string {
	return strings.ToLower(v.Title + " " + v.Topic + " " + v.Transcript + " " + v.Script)
}

// ExtractAll joins the text of every video with single spaces.
func ExtractAll(videos []VideoContent) string {
	parts := make([]string, len(videos))
	for i, v := range videos {
		parts[i] = Extract(v)
	}
	return strings.Join(parts, " ")
}
