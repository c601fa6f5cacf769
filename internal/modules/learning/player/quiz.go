package player

import "fmt"

// SelectAnswer records one answer for the open quiz.
func (s *Session) SelectAnswer(question, answer int) error {
	switch s.st.Phase {
	case PhaseFinished:
		return ErrFinished
	case PhaseQuizFailed:
		return ErrRetryRequired
	case PhaseQuizOpen:
	default:
		return ErrQuizNotOpen
	}
	seg, _ := s.ActiveSegment()
	if question < 0 || question >= len(seg.Quiz) {
		return fmt.Errorf("%w: question %d", ErrInvalidAnswer, question)
	}
	if answer < 0 || answer >= len(seg.Quiz[question].Options) {
		return fmt.Errorf("%w: answer %d", ErrInvalidAnswer, answer)
	}
	s.st.Answers[question] = answer
	return nil
}

// Submit grades the open quiz. Every submission reports the questions
// answered and 25 XP per correct answer. All correct passes the gate;
// anything less leaves the segment active until Retry.
func (s *Session) Submit() error {
	switch s.st.Phase {
	case PhaseFinished:
		return ErrFinished
	case PhaseQuizFailed:
		return ErrRetryRequired
	case PhaseQuizOpen:
	default:
		return ErrQuizNotOpen
	}
	seg, _ := s.ActiveSegment()
	for _, a := range s.st.Answers {
		if a < 0 {
			return ErrUnansweredQuestions
		}
	}

	results := make([]bool, len(seg.Quiz))
	correct := 0
	for i, q := range seg.Quiz {
		results[i] = s.st.Answers[i] == q.CorrectAnswerIndex
		if results[i] {
			correct++
		}
	}
	total := len(seg.Quiz)
	s.st.ProblemsAnswered += total
	s.st.Results = results
	s.st.ShowResults = true
	s.emit(Event{
		Kind:    EventQuizComplete,
		Correct: correct,
		Total:   total,
		Results: append([]bool(nil), results...),
		Report:  Report{ProblemsSolved: total, XPEarned: correct * xpPerCorrectAnswer},
	})

	if correct != total {
		s.st.Phase = PhaseQuizFailed
		return nil
	}
	s.pass()
	return nil
}

func (s *Session) Retry() error {
	switch s.st.Phase {
	case PhaseFinished:
		return ErrFinished
	case PhaseQuizFailed:
	default:
		return ErrNothingToRetry
	}
	s.resetAnswers()
	s.st.Phase = PhaseQuizOpen
	return nil
}

// pass marks the active segment complete and moves the play head to the next
// segment, or finishes the lecture on the last one.
func (s *Session) pass() {
	s.markCompleted(s.st.ActiveSegment)
	if s.st.ActiveSegment < len(s.segs)-1 {
		s.st.ActiveSegment++
		s.st.CurrentTime = s.segs[s.st.ActiveSegment].StartTime
		s.clearQuiz()
		s.st.Phase = PhasePaused
		return
	}
	s.st.Phase = PhaseFinished
	if s.st.CompletionSignaled {
		return
	}
	s.st.CompletionSignaled = true
	s.emit(Event{Kind: EventComplete, Report: Report{XPEarned: xpCompletionBonus}})
}
