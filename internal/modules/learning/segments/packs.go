package segments

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/learnpulse/learnpulse-backend/internal/domain/learning"
	"github.com/learnpulse/learnpulse-backend/internal/platform/envutil"
	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

const contentPacksEnv = "LECTURE_CONTENT_PACKS_YAML"

//go:embed packs.yaml
var packsFS embed.FS

type yamlLibrary struct {
	Packs    []yamlPack `yaml:"packs"`
	Fallback yamlPack   `yaml:"fallback"`
}

type yamlPack struct {
	Name        string           `yaml:"name"`
	Keywords    []string         `yaml:"keywords"`
	Transcripts []string         `yaml:"transcripts"`
	Quizzes     [][]yamlQuestion `yaml:"quizzes"`
}

type yamlQuestion struct {
	Question    string   `yaml:"question"`
	Options     []string `yaml:"options"`
	Correct     int      `yaml:"correct"`
	Explanation string   `yaml:"explanation"`
}

// Pack is a canned set of transcripts and quiz sets for one topic family.
type Pack struct {
	Name        string
	Keywords    []string
	Transcripts []string
	Quizzes     [][]learning.QuizQuestion
}

// Library holds the ordered topic packs plus the pack used when no keyword matches.
type Library struct {
	Packs    []Pack
	Fallback Pack
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
	defaultErr  error
)

// DefaultLibrary returns the embedded content library, or the file named by
// LECTURE_CONTENT_PACKS_YAML when set. A broken override falls back to the
// embedded packs.
func DefaultLibrary(log *logger.Logger) *Library {
	defaultOnce.Do(func() {
		defaultLib, defaultErr = loadDefault()
		if defaultErr != nil {
			if log != nil {
				log.Warn("segments: content pack override failed; using embedded packs", "error", defaultErr)
			}
			defaultLib, defaultErr = loadEmbedded()
		}
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("segments: embedded packs invalid: %v", defaultErr))
	}
	return defaultLib
}

func loadDefault() (*Library, error) {
	if path := strings.TrimSpace(envutil.String(contentPacksEnv, "")); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		return LoadLibrary(f)
	}
	return loadEmbedded()
}

func loadEmbedded() (*Library, error) {
	f, err := packsFS.Open("packs.yaml")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadLibrary(f)
}

// LoadLibrary parses and validates a YAML content library.
func LoadLibrary(r io.Reader) (*Library, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw yamlLibrary
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse content packs: %w", err)
	}

	lib := &Library{Packs: make([]Pack, 0, len(raw.Packs))}
	for i, p := range raw.Packs {
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("pack %d (%q): no keywords", i, p.Name)
		}
		pack, err := toPack(p)
		if err != nil {
			return nil, err
		}
		for j, kw := range pack.Keywords {
			pack.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
		lib.Packs = append(lib.Packs, pack)
	}
	fb, err := toPack(raw.Fallback)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	lib.Fallback = fb
	return lib, nil
}

func toPack(p yamlPack) (Pack, error) {
	if strings.TrimSpace(p.Name) == "" {
		return Pack{}, errors.New("pack missing name")
	}
	if len(p.Transcripts) == 0 {
		return Pack{}, fmt.Errorf("pack %q: no transcripts", p.Name)
	}
	if len(p.Quizzes) == 0 {
		return Pack{}, fmt.Errorf("pack %q: no quizzes", p.Name)
	}
	quizzes := make([][]learning.QuizQuestion, 0, len(p.Quizzes))
	for qi, set := range p.Quizzes {
		out := make([]learning.QuizQuestion, 0, len(set))
		for i, q := range set {
			if strings.TrimSpace(q.Question) == "" {
				return Pack{}, fmt.Errorf("pack %q quiz %d question %d: empty text", p.Name, qi, i)
			}
			if q.Correct < 0 || q.Correct >= len(q.Options) {
				return Pack{}, fmt.Errorf("pack %q quiz %d question %d: correct index %d out of range", p.Name, qi, i, q.Correct)
			}
			out = append(out, learning.QuizQuestion{
				Question:           q.Question,
				Options:            q.Options,
				CorrectAnswerIndex: q.Correct,
				Explanation:        q.Explanation,
			})
		}
		quizzes = append(quizzes, out)
	}
	return Pack{
		Name:        p.Name,
		Keywords:    append([]string(nil), p.Keywords...),
		Transcripts: p.Transcripts,
		Quizzes:     quizzes,
	}, nil
}

// Select returns the first pack whose keyword occurs in the lowercased topic.
func (l *Library) Select(topic string) Pack {
	t := strings.ToLower(topic)
	for _, p := range l.Packs {
		for _, kw := range p.Keywords {
			if kw != "" && strings.Contains(t, kw) {
				return p
			}
		}
	}
	return l.Fallback
}
