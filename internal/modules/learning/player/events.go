package player

// EventKind names a callback the host page receives.
type EventKind string

const (
	EventProgress     EventKind = "progress"
	EventQuizComplete EventKind = "quiz_complete"
	EventComplete     EventKind = "complete"
)

// Report is a delta forwarded to the profile store.
type Report struct {
	ProblemsSolved int `json:"problems_solved"`
	StudyMinutes   int `json:"study_minutes"`
	XPEarned       int `json:"xp_earned"`
}

func (r Report) IsZero() bool {
	return r.ProblemsSolved == 0 && r.StudyMinutes == 0 && r.XPEarned == 0
}

// Event is emitted by a Session transition and collected with Drain.
type Event struct {
	Kind         EventKind `json:"kind"`
	SegmentIndex int       `json:"segment_index"`

	// progress
	MinutesWatched int `json:"minutes_watched,omitempty"`

	// quiz_complete
	Correct int    `json:"correct,omitempty"`
	Total   int    `json:"total,omitempty"`
	Results []bool `json:"results,omitempty"`

	Report Report `json:"report"`
}

const (
	xpPerCorrectAnswer = 25
	xpCompletionBonus  = 200
	progressEverySecs  = 60
)
