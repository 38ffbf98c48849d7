// Package prompt renders the system instruction for a chat turn from the
// accumulated conversation state.
package prompt

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/session"
)

// DefaultLanguage is used for empty or unsupported languages.
const DefaultLanguage = "es"

// Profile carries the per-user facts that shape the instruction.
type Profile struct {
	Gender   string
	Language string
}

// Params are the completion parameters tied to a mode.
type Params struct {
	MaxTokens   int
	Stop        []string
	Temperature float64
	TopP        float64
}

// Instruction is the rendered system prompt plus its completion parameters.
type Instruction struct {
	Mode   session.Mode
	System string
	Params Params
}

var modeParams = map[session.Mode]Params{
	session.RecommendationReady: {
		MaxTokens:   200,
		Stop:        []string{"Adiós", "Hasta luego", "Bye", "Ciao"},
		Temperature: 0.9,
		TopP:        0.9,
	},
	session.Exploratory: {
		MaxTokens:   150,
		Stop:        []string{"Usuario:", "Bot:", "Adiós", "Bye"},
		Temperature: 0.7,
		TopP:        0.9,
	},
}

// ParamsFor returns a copy of the parameters of a mode.
func ParamsFor(m session.Mode) Params {
	p := modeParams[m]
	p.Stop = append([]string(nil), p.Stop...)
	return p
}

// Compose builds the instruction for the given state. ready selects the
// recommendation template. Unset state fields render as sentinel text, so a
// fresh or nil state is valid input.
func Compose(s *session.State, ready bool, p Profile) Instruction {
	if s == nil {
		s = session.NewState("", "", time.Time{})
	}
	cat := catalogFor(p.Language)

	mode := session.Exploratory
	tmpl := cat.explore
	if ready {
		mode = session.RecommendationReady
		tmpl = cat.recommend
	}

	return Instruction{
		Mode:   mode,
		System: fmt.Sprintf(tmpl, contextBlock(s, p.Gender, cat)),
		Params: ParamsFor(mode),
	}
}

func contextBlock(s *session.State, gender string, cat catalog) string {
	sentiment, _ := s.SentimentSummary()
	hate, _ := s.HateSummary()
	irony, _ := s.IronySummary()

	lines := []string{
		line(cat.gender, strings.TrimSpace(gender), cat.noGender),
		line(cat.emotions, strings.Join(s.EmotionLog(), ", "), cat.noEmotions),
		line(cat.sentiment, sentiment, cat.noSentiment),
		line(cat.people, strings.Join(s.People(), ", "), cat.noPeople),
		line(cat.places, strings.Join(s.Places(), ", "), cat.noPlaces),
		line(cat.orgs, strings.Join(s.Orgs(), ", "), cat.noOrgs),
		line(cat.hate, hate, cat.noScore),
		line(cat.irony, irony, cat.noScore),
	}
	return strings.Join(lines, "\n")
}

func line(label, value, sentinel string) string {
	if value == "" {
		value = sentinel
	}
	return "- " + label + ": " + value
}

func catalogFor(language string) catalog {
	if c, ok := catalogs[normalizeLanguage(language)]; ok {
		return c
	}
	return catalogs[DefaultLanguage]
}

func normalizeLanguage(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if _, ok := catalogs[l]; !ok {
		return DefaultLanguage
	}
	return l
}

// Greeting picks an opening message for a new conversation.
func Greeting(language string) string {
	g := catalogFor(language).greetings
	return g[rand.IntN(len(g))]
}
