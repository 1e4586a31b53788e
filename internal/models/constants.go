// Package models contains data types and constants shared across the Orion client.
package models

// Backend endpoint paths, relative to the configured base URL
const (
	PathChat          = "/chat"
	PathResume        = "/chat/%s/resume"
	PathConversations = "/conversations/%s"
	PathConversation  = "/conversations/%s/%s"
	PathHealth        = "/health"
)

// DefaultBaseURL points at a locally running research backend
const DefaultBaseURL = "http://localhost:8000"

// DefaultUserID is the conversation namespace used until real accounts exist
const DefaultUserID = "default_user"

// Mode selects how the backend routes a request
type Mode struct {
	Name         string
	DeepResearch bool // sets deep_research on the chat request
}

// Available modes
var (
	// ModeStandard answers directly from the chat graph
	ModeStandard = Mode{
		Name: "standard",
	}

	// ModeDeep runs the full research pipeline (scope, research, report)
	// and streams stage updates along the way
	ModeDeep = Mode{
		Name:         "deep",
		DeepResearch: true,
	}

	// DefaultMode is the recommended default
	DefaultMode = ModeStandard
)

// AllModes returns a list of all available modes
func AllModes() []Mode {
	return []Mode{ModeStandard, ModeDeep}
}

// ModeFromName returns a Mode by its name
func ModeFromName(name string) Mode {
	switch name {
	case "standard", "chat":
		return ModeStandard
	case "deep", "research", "deep-research":
		return ModeDeep
	default:
		return DefaultMode
	}
}

// ReviewAction is the reviewer's verdict on a paused research run
type ReviewAction string

// Review actions accepted by the resume endpoint
const (
	ReviewApprove    ReviewAction = "approve"
	ReviewRefine     ReviewAction = "refine"
	ReviewReResearch ReviewAction = "re-research"
)

// Valid reports whether a is one of the accepted review actions
func (a ReviewAction) Valid() bool {
	switch a {
	case ReviewApprove, ReviewRefine, ReviewReResearch:
		return true
	}
	return false
}

// AllReviewActions returns the actions a reviewer can take
func AllReviewActions() []ReviewAction {
	return []ReviewAction{ReviewApprove, ReviewRefine, ReviewReResearch}
}
