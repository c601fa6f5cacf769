// Command playsim plays a generated lecture end to end against the playback
// state machine and prints every emitted event, which is handy for checking
// content packs and XP totals without a browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/player"
	"github.com/learnpulse/learnpulse-backend/internal/modules/learning/segments"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

func main() {
	var (
		duration  float64
		topic     string
		interval  time.Duration
		advance   float64
		missFirst bool
	)
	flag.Float64Var(&duration, "duration", 600, "lecture length in seconds")
	flag.StringVar(&topic, "topic", "Introduction to React", "lecture title used to pick a content pack")
	flag.DurationVar(&interval, "interval", 5*time.Millisecond, "wall-clock time per simulated second")
	flag.Float64Var(&advance, "advance", 1, "media seconds the play head moves per tick")
	flag.BoolVar(&missFirst, "miss-first", false, "answer each quiz wrong once before passing")
	flag.Parse()

	log, err := logger.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	gen := segments.NewGenerator(segments.DefaultLibrary(log))
	s, err := player.New(gen, topic, duration)
	if err != nil {
		log.Fatal("new session", "error", err)
	}
	log.Info("simulating lecture", "topic", topic, "segments", len(s.Segments()))

	var total player.Report
	enc := json.NewEncoder(os.Stdout)
	sink := func(_ context.Context, events []player.Event) {
		for _, e := range events {
			total.ProblemsSolved += e.Report.ProblemsSolved
			total.StudyMinutes += e.Report.StudyMinutes
			total.XPEarned += e.Report.XPEarned
			_ = enc.Encode(e)
		}
	}
	d := player.NewDriver(s, interval, sink).WithAdvance(advance)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.Run(gctx) })
	g.Go(func() error { return answerQuizzes(gctx, d, interval, missFirst) })
	if err := g.Wait(); err != nil {
		log.Fatal("simulation failed", "error", err)
	}
	log.Info("lecture finished",
		"problems_solved", total.ProblemsSolved,
		"study_minutes", total.StudyMinutes,
		"xp_earned", total.XPEarned,
	)
}

// answerQuizzes plays the viewer: resume after each gate, answer open
// quizzes, and retry failed ones.
func answerQuizzes(ctx context.Context, d *player.Driver, poll time.Duration, missFirst bool) error {
	missed := make(map[int]bool)
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		var finished bool
		err := d.Do(ctx, func(s *player.Session) error {
			seg, _ := s.ActiveSegment()
			switch s.Phase() {
			case player.PhaseFinished:
				finished = true
			case player.PhaseIdle, player.PhasePaused:
				return s.Play()
			case player.PhaseQuizFailed:
				return s.Retry()
			case player.PhaseQuizOpen:
				wrong := missFirst && !missed[seg.Index]
				missed[seg.Index] = true
				for i, q := range seg.Quiz {
					answer := q.CorrectAnswerIndex
					if wrong {
						answer = (answer + 1) % len(q.Options)
					}
					if err := s.SelectAnswer(i, answer); err != nil {
						return err
					}
				}
				return s.Submit()
			}
			return nil
		})
		if err != nil || finished {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
