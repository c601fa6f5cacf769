package learning

// QuizQuestion is one multiple-choice question attached to a segment.
type QuizQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        string   `json:"explanation"`
}

// Segment is a fixed-length slice of a lecture video paired with quiz
// content. StartTime and EndTime are seconds; the window is [StartTime, EndTime).
type Segment struct {
	ID         string         `json:"id"`
	Index      int            `json:"index"`
	Title      string         `json:"title"`
	StartTime  float64        `json:"start_time"`
	EndTime    float64        `json:"end_time"`
	Transcript string         `json:"transcript"`
	Quiz       []QuizQuestion `json:"quiz"`
}

func (s Segment) Duration() float64 { return s.EndTime - s.StartTime }
