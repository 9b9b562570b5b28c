package services

import (
	"html"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// normalization constant for mapping a raw valence sum into (-1, 1)
const sentimentAlpha = 15.0

var (
	reWord = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

	lexicon = map[string]float64{
		"love": 3.2, "loved": 2.9, "amazing": 2.8, "excellent": 3.0, "awesome": 3.1, "fantastic": 2.9,
		"great": 3.1, "perfect": 2.7, "best": 3.2, "wonderful": 2.7, "good": 1.9, "nice": 1.8,
		"happy": 2.7, "recommend": 1.5, "recommended": 1.5, "reliable": 1.9, "fast": 1.2, "easy": 1.9,
		"comfortable": 1.8, "quality": 1.0, "worth": 1.5, "like": 1.5, "liked": 1.8, "works": 1.1,
		"satisfied": 1.8, "helpful": 1.8, "durable": 1.6, "beautiful": 2.9, "glad": 2.0, "solid": 1.3,
		"bad": -2.5, "terrible": -2.9, "awful": -3.1, "horrible": -2.5, "worst": -3.1, "hate": -2.7,
		"hated": -3.2, "poor": -2.1, "broken": -2.1, "broke": -1.8, "slow": -1.1, "disappointed": -2.3,
		"disappointing": -2.2, "useless": -1.8, "waste": -1.8, "refund": -1.0, "return": -0.6,
		"returned": -1.0, "cheap": -0.5, "defective": -2.4, "problem": -1.7, "problems": -1.7,
		"issue": -1.1, "issues": -1.1, "fail": -2.3, "failed": -2.3, "faulty": -2.0, "overpriced": -1.8,
		"annoying": -1.9, "uncomfortable": -1.7, "scam": -2.6, "fake": -2.1, "late": -0.9, "noisy": -1.1,
	}

	negations = map[string]bool{
		"not": true, "no": true, "never": true, "none": true, "nothing": true, "neither": true, "nor": true,
		"cannot": true, "can't": true, "don't": true, "doesn't": true, "didn't": true, "isn't": true,
		"wasn't": true, "aren't": true, "weren't": true, "won't": true, "wouldn't": true, "shouldn't": true,
		"hardly": true, "without": true,
	}

	intensifiers = map[string]float64{
		"very": 0.293, "really": 0.293, "extremely": 0.293, "so": 0.293, "super": 0.293, "incredibly": 0.293,
		"absolutely": 0.293, "totally": 0.293, "highly": 0.293,
		"slightly": -0.293, "somewhat": -0.293, "barely": -0.293, "kinda": -0.293,
	}
)

// SentimentScorer assigns a polarity in [-1, 1] to free text with a word lexicon.
// Negations within the three preceding words flip a term; degree adverbs scale it.
type SentimentScorer struct {
	policy *bluemonday.Policy
}

func NewSentimentScorer() *SentimentScorer {
	return &SentimentScorer{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips markup, decodes entities and drops unprintable characters.
func (s *SentimentScorer) Sanitize(text string) string {
	clean := html.UnescapeString(s.policy.Sanitize(text))
	clean = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, clean)
	return strings.TrimSpace(clean)
}

// Score returns the polarity of a single text. Text with no lexicon words scores 0.
func (s *SentimentScorer) Score(text string) float64 {
	words := reWord.FindAllString(strings.ToLower(strings.ReplaceAll(s.Sanitize(text), "’", "'")), -1)

	var sum float64
	for i, w := range words {
		valence, ok := lexicon[w]
		if !ok {
			continue
		}
		if i > 0 {
			if boost, ok := intensifiers[words[i-1]]; ok {
				if valence > 0 {
					valence += boost
				} else {
					valence -= boost
				}
			}
		}
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if negations[words[j]] {
				valence *= -0.74
				break
			}
		}
		sum += valence
	}

	if sum == 0 {
		return 0
	}
	score := sum / math.Sqrt(sum*sum+sentimentAlpha)
	return math.Max(-1, math.Min(1, score))
}

// Mean scores each mention and averages the non-empty ones. ok is false when nothing was scorable.
func (s *SentimentScorer) Mean(mentions []string) (score float64, count int, ok bool) {
	var total float64
	for _, m := range mentions {
		if s.Sanitize(m) == "" {
			continue
		}
		total += s.Score(m)
		count++
	}
	if count == 0 {
		return 0, 0, false
	}
	return math.Max(-1, math.Min(1, total/float64(count))), count, true
}
