package segments

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/learnpulse/learnpulse-backend/internal/domain/learning"
)

// SegmentLength is the window size in seconds.
const SegmentLength = 120.0

// Generator partitions a lecture timeline into fixed windows and attaches pack content.
type Generator struct {
	lib *Library
}

func NewGenerator(lib *Library) *Generator {
	return &Generator{lib: lib}
}

// Count is ceil(duration/SegmentLength); zero for non-positive or non-finite durations.
func Count(duration float64) int {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0
	}
	return int(math.Ceil(duration / SegmentLength))
}

// Generate returns ceil(duration/120) contiguous segments covering [0, duration).
// The output depends only on duration and topic.
func (g *Generator) Generate(duration float64, topic string) []learning.Segment {
	n := Count(duration)
	if n == 0 {
		return nil
	}
	pack := g.lib.Select(topic)

	out := make([]learning.Segment, 0, n)
	for i := 0; i < n; i++ {
		num := i + 1
		start := float64(i) * SegmentLength
		end := math.Min(float64(num)*SegmentLength, duration)

		r := strings.NewReplacer(
			"{pct}", strconv.Itoa(progressPercent(num, n)),
			"{title}", topic,
		)
		out = append(out, learning.Segment{
			ID:         fmt.Sprintf("segment-%d", num),
			Index:      i,
			Title:      fmt.Sprintf("%s - Part %d", topic, num),
			StartTime:  start,
			EndTime:    end,
			Transcript: r.Replace(pack.Transcripts[clamp(i, len(pack.Transcripts))]),
			Quiz:       renderQuiz(pack.Quizzes[clamp(i, len(pack.Quizzes))], r),
		})
	}
	return out
}

// progressPercent is num/total as a percentage, rounded half up.
func progressPercent(num, total int) int {
	return int(math.Floor(float64(num)/float64(total)*100 + 0.5))
}

func clamp(i, n int) int {
	if i >= n {
		return n - 1
	}
	return i
}

func renderQuiz(set []learning.QuizQuestion, r *strings.Replacer) []learning.QuizQuestion {
	out := make([]learning.QuizQuestion, len(set))
	for i, q := range set {
		opts := make([]string, len(q.Options))
		for j, o := range q.Options {
			opts[j] = r.Replace(o)
		}
		out[i] = learning.QuizQuestion{
			Question:           r.Replace(q.Question),
			Options:            opts,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Explanation:        r.Replace(q.Explanation),
		}
	}
	return out
}
