package models

// Transcript statuses
const (
	TranscriptPending    = "pending"
	TranscriptProcessing = "processing"
	TranscriptCompleted  = "completed"
	TranscriptFailed     = "failed"
)

// Speech and debate event types
var EventTypes = []string{
	"ld", "pf", "policy", "congress", "bigquestions",
	"extemp", "oratory", "oi", "di", "hi", "duo", "poe",
	"informative", "persuasive", "impromptu", "after_dinner",
	"lecture", "drill", "other",
}

// Round types
var RoundTypes = []string{
	"practice", "prelim", "double_octos", "octos",
	"quarters", "semis", "finals", "exhibition", "lecture",
}

const (
	DefaultEventType = "other"
	DefaultRoundType = "practice"
)

// IsEventType reports whether s is a known event type.
func IsEventType(s string) bool {
	return contains(EventTypes, s)
}

// IsRoundType reports whether s is a known round type.
func IsRoundType(s string) bool {
	return contains(RoundTypes, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
