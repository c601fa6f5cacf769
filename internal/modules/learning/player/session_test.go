package player

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/learnpulse/learnpulse-backend/internal/domain/learning"
)

// fixedSource yields 120s windows, each with quizLen questions whose correct
// answer is option 1.
type fixedSource struct{ quizLen int }

func (f fixedSource) Generate(duration float64, topic string) []learning.Segment {
	var out []learning.Segment
	for i := 0; float64(i)*120 < duration; i++ {
		end := float64(i+1) * 120
		if end > duration {
			end = duration
		}
		seg := learning.Segment{ID: "s", Index: i, Title: topic, StartTime: float64(i) * 120, EndTime: end}
		for q := 0; q < f.quizLen; q++ {
			seg.Quiz = append(seg.Quiz, learning.QuizQuestion{
				Question:           "q",
				Options:            []string{"a", "b", "c", "d"},
				CorrectAnswerIndex: 1,
				Explanation:        "because",
			})
		}
		out = append(out, seg)
	}
	return out
}

func newSession(t *testing.T, duration float64, quizLen int) *Session {
	t.Helper()
	s, err := New(fixedSource{quizLen: quizLen}, "Topic", duration)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func openQuiz(t *testing.T, s *Session) {
	t.Helper()
	seg, ok := s.ActiveSegment()
	if !ok {
		t.Fatalf("no active segment")
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := s.TimeUpdate(seg.EndTime); err != nil {
		t.Fatalf("TimeUpdate: %v", err)
	}
	if s.Phase() != PhaseQuizOpen {
		t.Fatalf("phase = %s, want quiz_open", s.Phase())
	}
}

func answerAll(t *testing.T, s *Session, answer int) {
	t.Helper()
	seg, _ := s.ActiveSegment()
	for i := range seg.Quiz {
		if err := s.SelectAnswer(i, answer); err != nil {
			t.Fatalf("SelectAnswer(%d): %v", i, err)
		}
	}
}

func TestBoundaryPausesAndOpensQuiz(t *testing.T) {
	s := newSession(t, 300, 3)
	if err := s.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := s.TimeUpdate(119.5); err != nil {
		t.Fatalf("TimeUpdate: %v", err)
	}
	if s.Phase() != PhasePlaying {
		t.Fatalf("phase = %s before boundary", s.Phase())
	}
	if err := s.TimeUpdate(120); err != nil {
		t.Fatalf("TimeUpdate: %v", err)
	}
	if s.Playing() || s.Phase() != PhaseQuizOpen {
		t.Fatalf("phase = %s after boundary", s.Phase())
	}
	if err := s.Play(); !errors.Is(err, ErrQuizOpen) {
		t.Fatalf("Play during quiz: %v", err)
	}
	if got := s.State().Answers; len(got) != 3 || got[0] != -1 {
		t.Fatalf("answers = %v", got)
	}
}

func TestTickReportsEverySixtySecondsWhilePlaying(t *testing.T) {
	s := newSession(t, 600, 1)
	if err := s.Tick(30); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if s.State().WatchSeconds != 0 {
		t.Fatalf("ticks counted while idle")
	}
	_ = s.Play()
	if err := s.Tick(59); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if ev := s.Drain(); len(ev) != 0 {
		t.Fatalf("early progress: %+v", ev)
	}
	_ = s.Tick(1)
	ev := s.Drain()
	if len(ev) != 1 || ev[0].Kind != EventProgress || ev[0].MinutesWatched != 1 {
		t.Fatalf("events = %+v", ev)
	}
	if ev[0].Report != (Report{StudyMinutes: 1}) {
		t.Fatalf("report = %+v", ev[0].Report)
	}

	_ = s.Pause()
	_ = s.Tick(120)
	_ = s.Play()
	_ = s.Tick(125)
	ev = s.Drain()
	if len(ev) != 2 || ev[0].MinutesWatched != 2 || ev[1].MinutesWatched != 3 {
		t.Fatalf("events = %+v", ev)
	}
	if s.State().WatchSeconds != 185 {
		t.Fatalf("watch seconds = %d", s.State().WatchSeconds)
	}
	if err := s.Tick(0); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("Tick(0): %v", err)
	}
}

func TestSubmitRequiresEveryAnswer(t *testing.T) {
	s := newSession(t, 300, 3)
	openQuiz(t, s)
	_ = s.SelectAnswer(0, 1)
	if err := s.Submit(); !errors.Is(err, ErrUnansweredQuestions) {
		t.Fatalf("Submit: %v", err)
	}
	if err := s.SelectAnswer(5, 0); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("bad question: %v", err)
	}
	if err := s.SelectAnswer(1, 4); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("bad option: %v", err)
	}
}

func TestPartialCorrectNeverAdvances(t *testing.T) {
	s := newSession(t, 300, 3)
	openQuiz(t, s)
	_ = s.SelectAnswer(0, 1)
	_ = s.SelectAnswer(1, 1)
	_ = s.SelectAnswer(2, 0)
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	st := s.State()
	if st.Phase != PhaseQuizFailed || st.ActiveSegment != 0 || len(st.Completed) != 0 {
		t.Fatalf("state after partial = %+v", st)
	}
	ev := s.Drain()
	if len(ev) != 1 || ev[0].Kind != EventQuizComplete || ev[0].Correct != 2 || ev[0].Total != 3 {
		t.Fatalf("events = %+v", ev)
	}
	if ev[0].Report != (Report{ProblemsSolved: 3, XPEarned: 50}) {
		t.Fatalf("report = %+v", ev[0].Report)
	}

	if err := s.SelectAnswer(2, 1); !errors.Is(err, ErrRetryRequired) {
		t.Fatalf("select while failed: %v", err)
	}
	if err := s.Submit(); !errors.Is(err, ErrRetryRequired) {
		t.Fatalf("resubmit while failed: %v", err)
	}
	if err := s.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	st = s.State()
	if st.Phase != PhaseQuizOpen || st.ShowResults || st.Results != nil || st.Answers[0] != -1 {
		t.Fatalf("state after retry = %+v", st)
	}
	if err := s.Retry(); !errors.Is(err, ErrNothingToRetry) {
		t.Fatalf("double retry: %v", err)
	}
}

func TestAllCorrectAdvancesToNextSegment(t *testing.T) {
	s := newSession(t, 300, 3)
	openQuiz(t, s)
	answerAll(t, s, 1)
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	st := s.State()
	if st.ActiveSegment != 1 || st.CurrentTime != 120 || st.Phase != PhasePaused {
		t.Fatalf("state after pass = %+v", st)
	}
	if len(st.Completed) != 1 || st.Completed[0] != 0 {
		t.Fatalf("completed = %v", st.Completed)
	}
	if st.Answers != nil || st.ShowResults {
		t.Fatalf("quiz not reset: %+v", st)
	}
	ev := s.Drain()
	if len(ev) != 1 || ev[0].Report != (Report{ProblemsSolved: 3, XPEarned: 75}) {
		t.Fatalf("events = %+v", ev)
	}
}

func TestLastSegmentCompletesExactlyOnce(t *testing.T) {
	s := newSession(t, 300, 2)
	var completes int
	for i := 0; i < 3; i++ {
		openQuiz(t, s)
		answerAll(t, s, 1)
		if err := s.Submit(); err != nil {
			t.Fatalf("Submit segment %d: %v", i, err)
		}
		for _, e := range s.Drain() {
			if e.Kind == EventComplete {
				completes++
				if e.Report != (Report{XPEarned: 200}) || e.SegmentIndex != 2 {
					t.Fatalf("complete event = %+v", e)
				}
			}
		}
	}
	if completes != 1 || s.Phase() != PhaseFinished {
		t.Fatalf("completes = %d phase = %s", completes, s.Phase())
	}
	if err := s.Play(); !errors.Is(err, ErrFinished) {
		t.Fatalf("Play after finish: %v", err)
	}
	if err := s.Submit(); !errors.Is(err, ErrFinished) {
		t.Fatalf("Submit after finish: %v", err)
	}
	_ = s.TimeUpdate(300)
	if ev := s.Drain(); len(ev) != 0 {
		t.Fatalf("events after finish: %+v", ev)
	}
	if got := s.State().Completed; len(got) != 3 {
		t.Fatalf("completed = %v", got)
	}
}

func TestEmptyQuizPassesAtBoundary(t *testing.T) {
	s := newSession(t, 240, 0)
	_ = s.Play()
	_ = s.TimeUpdate(120)
	if st := s.State(); st.ActiveSegment != 1 || st.Phase != PhasePaused {
		t.Fatalf("state = %+v", st)
	}
	_ = s.Play()
	_ = s.TimeUpdate(240)
	if s.Phase() != PhaseFinished {
		t.Fatalf("phase = %s", s.Phase())
	}
	ev := s.Drain()
	if len(ev) != 1 || ev[0].Kind != EventComplete {
		t.Fatalf("events = %+v", ev)
	}
}

func TestRewatchSeeksToSegmentStartAndClearsQuiz(t *testing.T) {
	s := newSession(t, 300, 3)
	openQuiz(t, s)
	answerAll(t, s, 1)
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	openQuiz(t, s)
	_ = s.SelectAnswer(0, 2)
	if err := s.Rewatch(); err != nil {
		t.Fatalf("Rewatch: %v", err)
	}
	st := s.State()
	if st.CurrentTime != 120 || st.Phase != PhasePaused || st.Answers != nil {
		t.Fatalf("state after rewatch = %+v", st)
	}
	if err := s.Play(); err != nil {
		t.Fatalf("Play after rewatch: %v", err)
	}
}

func TestNoSegmentsUntilMetadata(t *testing.T) {
	s := newSession(t, 0, 3)
	if err := s.Rewatch(); !errors.Is(err, ErrNoSegments) {
		t.Fatalf("Rewatch: %v", err)
	}
	_ = s.Play()
	_ = s.TimeUpdate(500)
	if s.Phase() != PhasePlaying {
		t.Fatalf("phase = %s", s.Phase())
	}
	if v := s.View(); v.Segment != nil || v.TotalSegments != 0 {
		t.Fatalf("view = %+v", v)
	}
	if err := s.LoadMetadata(250); err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if len(s.Segments()) != 3 {
		t.Fatalf("segments = %d", len(s.Segments()))
	}
	if err := s.LoadMetadata(250); err != nil {
		t.Fatalf("same duration: %v", err)
	}
	if err := s.LoadMetadata(90); !errors.Is(err, ErrMetadataLoaded) {
		t.Fatalf("changed duration: %v", err)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	s := newSession(t, 300, 3)
	openQuiz(t, s)
	_ = s.SelectAnswer(0, 1)

	raw, err := json.Marshal(s.State())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r, err := Restore(fixedSource{quizLen: 3}, "Topic", st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	_ = r.SelectAnswer(1, 1)
	_ = r.SelectAnswer(2, 1)
	if err := r.Submit(); err != nil {
		t.Fatalf("Submit after restore: %v", err)
	}
	if r.State().ActiveSegment != 1 {
		t.Fatalf("active = %d", r.State().ActiveSegment)
	}

	if _, err := Restore(fixedSource{quizLen: 3}, "Topic", State{Phase: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown phase")
	}
	if _, err := Restore(fixedSource{quizLen: 3}, "Topic", State{Phase: PhasePaused, Duration: 300, ActiveSegment: 7}); err == nil {
		t.Fatalf("expected error for out of range segment")
	}
}

func TestViewHidesAnswersUntilResults(t *testing.T) {
	s := newSession(t, 300, 2)
	if v := s.View(); v.Segment == nil || v.Segment.Quiz != nil {
		t.Fatalf("quiz visible before boundary: %+v", v.Segment)
	}
	openQuiz(t, s)
	v := s.View()
	if !v.QuizVisible || len(v.Segment.Quiz) != 2 || v.Segment.Quiz[0].CorrectAnswerIndex != nil {
		t.Fatalf("view = %+v", v.Segment)
	}
	_ = s.SelectAnswer(0, 0)
	_ = s.SelectAnswer(1, 1)
	if !s.View().AllAnswered {
		t.Fatalf("expected all answered")
	}
	_ = s.Submit()
	v = s.View()
	q := v.Segment.Quiz[0]
	if !v.ShowResults || q.CorrectAnswerIndex == nil || *q.CorrectAnswerIndex != 1 || q.Explanation != "because" {
		t.Fatalf("view after submit = %+v", v)
	}
	if len(v.Results) != 2 || v.Results[0] || !v.Results[1] {
		t.Fatalf("results = %v", v.Results)
	}
}

func TestIsConflict(t *testing.T) {
	if !IsConflict(ErrQuizOpen) || IsConflict(ErrUnansweredQuestions) || IsConflict(ErrInvalidAnswer) {
		t.Fatalf("IsConflict classification wrong")
	}
}

func TestOutlineWithholdsQuiz(t *testing.T) {
	out := Outline(fixedSource{quizLen: 3}.Generate(250, "Topic"))
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	for _, sv := range out {
		if sv.Quiz != nil || sv.Questions != 3 {
			t.Fatalf("outline segment leaked quiz: %+v", sv)
		}
	}
	if out[2].StartTime != 240 || out[2].EndTime != 250 {
		t.Fatalf("last window = [%v,%v)", out[2].StartTime, out[2].EndTime)
	}
}
