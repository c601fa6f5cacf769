package player

import (
	"fmt"
	"math"
	"sort"

	"github.com/learnpulse/learnpulse-backend/internal/domain/learning"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePlaying    Phase = "playing"
	PhasePaused     Phase = "paused"
	PhaseQuizOpen   Phase = "quiz_open"
	PhaseQuizFailed Phase = "quiz_failed"
	PhaseFinished   Phase = "finished"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhasePlaying, PhasePaused, PhaseQuizOpen, PhaseQuizFailed, PhaseFinished:
		return true
	}
	return false
}

func (p Phase) quizVisible() bool { return p == PhaseQuizOpen || p == PhaseQuizFailed }

const maxTicksPerEvent = 3600

// State is the persisted playback snapshot. Segments are not stored; they
// are regenerated from Duration and the lecture topic.
type State struct {
	Phase              Phase   `json:"phase"`
	Duration           float64 `json:"duration"`
	CurrentTime        float64 `json:"current_time"`
	WatchSeconds       int     `json:"watch_seconds"`
	ActiveSegment      int     `json:"active_segment"`
	Completed          []int   `json:"completed_segments"`
	Answers            []int   `json:"answers,omitempty"`
	Results            []bool  `json:"results,omitempty"`
	ShowResults        bool    `json:"show_results"`
	ProblemsAnswered   int     `json:"problems_answered"`
	CompletionSignaled bool    `json:"completion_signaled"`
}

// SegmentSource produces the segments for a lecture; *segments.Generator satisfies it.
type SegmentSource interface {
	Generate(duration float64, topic string) []learning.Segment
}

// Session is the playback and quiz-gate state machine for one viewer of one
// lecture. It is not safe for concurrent use.
type Session struct {
	src    SegmentSource
	topic  string
	segs   []learning.Segment
	st     State
	events []Event
}

// New starts a session in Idle. A positive duration generates segments
// immediately; otherwise they are generated on LoadMetadata.
func New(src SegmentSource, topic string, duration float64) (*Session, error) {
	s := &Session{src: src, topic: topic, st: State{Phase: PhaseIdle}}
	if duration > 0 {
		if err := s.LoadMetadata(duration); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Restore rebuilds a session from a snapshot.
func Restore(src SegmentSource, topic string, st State) (*Session, error) {
	if st.Phase == "" {
		st.Phase = PhaseIdle
	}
	if !st.Phase.Valid() {
		return nil, fmt.Errorf("restore session: unknown phase %q", st.Phase)
	}
	s := &Session{src: src, topic: topic, st: st}
	if st.Duration > 0 {
		s.segs = src.Generate(st.Duration, topic)
	}
	if len(s.segs) == 0 {
		if st.Phase.quizVisible() || st.Phase == PhaseFinished {
			return nil, fmt.Errorf("restore session: phase %q without segments", st.Phase)
		}
		s.st.ActiveSegment = 0
		return s, nil
	}
	if st.ActiveSegment < 0 || st.ActiveSegment >= len(s.segs) {
		return nil, fmt.Errorf("restore session: active segment %d out of range", st.ActiveSegment)
	}
	if st.Phase.quizVisible() {
		// content may have changed between requests; start the quiz over
		if n := len(s.segs[st.ActiveSegment].Quiz); len(st.Answers) != n {
			s.resetAnswers()
			s.st.Phase = PhaseQuizOpen
		}
	}
	return s, nil
}

func (s *Session) State() State {
	st := s.st
	st.Completed = append([]int(nil), s.st.Completed...)
	st.Answers = append([]int(nil), s.st.Answers...)
	st.Results = append([]bool(nil), s.st.Results...)
	return st
}

func (s *Session) Phase() Phase                 { return s.st.Phase }
func (s *Session) Playing() bool                { return s.st.Phase == PhasePlaying }
func (s *Session) Segments() []learning.Segment { return s.segs }

// ActiveSegment returns the segment the play head is gated on.
func (s *Session) ActiveSegment() (learning.Segment, bool) {
	if s.st.ActiveSegment < 0 || s.st.ActiveSegment >= len(s.segs) {
		return learning.Segment{}, false
	}
	return s.segs[s.st.ActiveSegment], true
}

// Drain returns and clears the events emitted since the last call.
func (s *Session) Drain() []Event {
	out := s.events
	s.events = nil
	return out
}

func (s *Session) emit(e Event) {
	e.SegmentIndex = s.st.ActiveSegment
	s.events = append(s.events, e)
}

// LoadMetadata records the media duration and generates segments.
func (s *Session) LoadMetadata(duration float64) error {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return fmt.Errorf("%w: duration %v", ErrInvalidEvent, duration)
	}
	if s.st.Duration > 0 {
		if duration == s.st.Duration {
			return nil
		}
		return ErrMetadataLoaded
	}
	if duration == 0 {
		return nil
	}
	s.st.Duration = duration
	s.segs = s.src.Generate(duration, s.topic)
	return nil
}

func (s *Session) Play() error {
	switch s.st.Phase {
	case PhaseFinished:
		return ErrFinished
	case PhaseQuizOpen, PhaseQuizFailed:
		return ErrQuizOpen
	}
	s.st.Phase = PhasePlaying
	return nil
}

func (s *Session) Pause() error {
	switch s.st.Phase {
	case PhaseFinished:
		return ErrFinished
	case PhasePlaying:
		s.st.Phase = PhasePaused
	}
	return nil
}

// Tick advances the watch counter by n seconds. Only seconds spent playing
// count; every 60th accumulated second emits a progress event worth one
// study minute.
func (s *Session) Tick(n int) error {
	if n < 1 || n > maxTicksPerEvent {
		return fmt.Errorf("%w: tick count %d", ErrInvalidEvent, n)
	}
	if s.st.Phase != PhasePlaying {
		return nil
	}
	for i := 0; i < n; i++ {
		s.st.WatchSeconds++
		if s.st.WatchSeconds%progressEverySecs == 0 {
			s.emit(Event{
				Kind:           EventProgress,
				MinutesWatched: s.st.WatchSeconds / progressEverySecs,
				Report:         Report{StudyMinutes: 1},
			})
		}
	}
	return nil
}

// TimeUpdate records the play head. Reaching the active segment's end pauses
// playback and opens its quiz.
func (s *Session) TimeUpdate(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return fmt.Errorf("%w: current time %v", ErrInvalidEvent, t)
	}
	if s.st.Duration > 0 && t > s.st.Duration {
		t = s.st.Duration
	}
	s.st.CurrentTime = t
	if s.st.Phase == PhaseFinished || s.st.Phase.quizVisible() {
		return nil
	}
	seg, ok := s.ActiveSegment()
	if !ok || t < seg.EndTime {
		return nil
	}
	s.st.Phase = PhaseQuizOpen
	s.resetAnswers()
	if len(seg.Quiz) == 0 {
		s.pass()
	}
	return nil
}

func (s *Session) Rewatch() error {
	if s.st.Phase == PhaseFinished {
		return ErrFinished
	}
	seg, ok := s.ActiveSegment()
	if !ok {
		return ErrNoSegments
	}
	s.st.CurrentTime = seg.StartTime
	s.clearQuiz()
	if s.st.Phase != PhasePlaying {
		s.st.Phase = PhasePaused
	}
	return nil
}

func (s *Session) resetAnswers() {
	seg, _ := s.ActiveSegment()
	s.st.Answers = make([]int, len(seg.Quiz))
	for i := range s.st.Answers {
		s.st.Answers[i] = -1
	}
	s.st.Results = nil
	s.st.ShowResults = false
}

func (s *Session) clearQuiz() {
	s.st.Answers = nil
	s.st.Results = nil
	s.st.ShowResults = false
}

func (s *Session) markCompleted(idx int) {
	i := sort.SearchInts(s.st.Completed, idx)
	if i < len(s.st.Completed) && s.st.Completed[i] == idx {
		return
	}
	s.st.Completed = append(s.st.Completed, 0)
	copy(s.st.Completed[i+1:], s.st.Completed[i:])
	s.st.Completed[i] = idx
}
