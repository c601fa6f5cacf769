package player

import "github.com/learnpulse/learnpulse-backend/internal/domain/learning"

type QuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	// set only once results are showing
	CorrectAnswerIndex *int   `json:"correct_answer_index,omitempty"`
	Explanation        string `json:"explanation,omitempty"`
}

type SegmentView struct {
	ID         string         `json:"id"`
	Index      int            `json:"index"`
	Title      string         `json:"title"`
	StartTime  float64        `json:"start_time"`
	EndTime    float64        `json:"end_time"`
	Transcript string         `json:"transcript"`
	Questions  int            `json:"question_count"`
	Quiz       []QuestionView `json:"quiz,omitempty"`
}

// View is what a client renders: the active segment, and its quiz only while
// the quiz is showing.
type View struct {
	Phase             Phase        `json:"phase"`
	Playing           bool         `json:"playing"`
	Duration          float64      `json:"duration"`
	CurrentTime       float64      `json:"current_time"`
	WatchSeconds      int          `json:"watch_seconds"`
	ActiveSegment     int          `json:"active_segment"`
	TotalSegments     int          `json:"total_segments"`
	CompletedSegments []int        `json:"completed_segments"`
	Segment           *SegmentView `json:"segment,omitempty"`
	QuizVisible       bool         `json:"quiz_visible"`
	Answers           []int        `json:"answers,omitempty"`
	Results           []bool       `json:"results,omitempty"`
	ShowResults       bool         `json:"show_results"`
	AllAnswered       bool         `json:"all_answered"`
	ProblemsAnswered  int          `json:"problems_answered"`
	Finished          bool         `json:"finished"`
}

func (s *Session) View() View {
	st := s.State()
	v := View{
		Phase:             st.Phase,
		Playing:           s.Playing(),
		Duration:          st.Duration,
		CurrentTime:       st.CurrentTime,
		WatchSeconds:      st.WatchSeconds,
		ActiveSegment:     st.ActiveSegment,
		TotalSegments:     len(s.segs),
		CompletedSegments: st.Completed,
		QuizVisible:       st.Phase.quizVisible(),
		ShowResults:       st.ShowResults,
		ProblemsAnswered:  st.ProblemsAnswered,
		Finished:          st.Phase == PhaseFinished,
	}
	if v.CompletedSegments == nil {
		v.CompletedSegments = []int{}
	}
	seg, ok := s.ActiveSegment()
	if !ok {
		return v
	}
	sv := segmentView(seg, v.QuizVisible, st.ShowResults)
	v.Segment = &sv
	if v.QuizVisible {
		v.Answers = st.Answers
		v.Results = st.Results
		v.AllAnswered = len(st.Answers) == len(seg.Quiz)
		for _, a := range st.Answers {
			if a < 0 {
				v.AllAnswered = false
			}
		}
	}
	return v
}

func segmentView(seg learning.Segment, withQuiz, reveal bool) SegmentView {
	sv := SegmentView{
		ID:         seg.ID,
		Index:      seg.Index,
		Title:      seg.Title,
		StartTime:  seg.StartTime,
		EndTime:    seg.EndTime,
		Transcript: seg.Transcript,
		Questions:  len(seg.Quiz),
	}
	if !withQuiz {
		return sv
	}
	sv.Quiz = make([]QuestionView, len(seg.Quiz))
	for i, q := range seg.Quiz {
		qv := QuestionView{Question: q.Question, Options: q.Options}
		if reveal {
			idx := q.CorrectAnswerIndex
			qv.CorrectAnswerIndex = &idx
			qv.Explanation = q.Explanation
		}
		sv.Quiz[i] = qv
	}
	return sv
}

// Outline lists segments for a lecture overview, quizzes withheld.
func Outline(segs []learning.Segment) []SegmentView {
	out := make([]SegmentView, len(segs))
	for i, seg := range segs {
		out[i] = segmentView(seg, false, false)
	}
	return out
}
