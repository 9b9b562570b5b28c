package services

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reHeaderToken = regexp.MustCompile(`[a-z0-9]+`)
	reCamelBreak  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// foldAccents turns "Régión" into "Region".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// headerTokens lowercases, splits camelCase and separators, and singularizes each token.
func headerTokens(name string) []string {
	name = reCamelBreak.ReplaceAllString(foldAccents(name), "$1 $2")
	raw := reHeaderToken.FindAllString(strings.ToLower(name), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		tokens = append(tokens, singularize(t))
	}
	return tokens
}

func singularize(t string) string {
	switch {
	case len(t) > 4 && strings.HasSuffix(t, "ies"):
		return t[:len(t)-3] + "y"
	case len(t) > 3 && strings.HasSuffix(t, "s") &&
		!strings.HasSuffix(t, "ss") && !strings.HasSuffix(t, "us") && !strings.HasSuffix(t, "is"):
		return t[:len(t)-1]
	default:
		return t
	}
}

// headerSimilarity is the larger of the normalized edit similarity of the joined tokens
// and the Jaccard index of the token sets. 1 means identical after normalization.
func headerSimilarity(a, b string) float64 {
	at := headerTokens(a)
	bt := headerTokens(b)
	aNorm := strings.Join(at, "")
	bNorm := strings.Join(bt, "")
	if aNorm == "" && bNorm == "" {
		return 1
	}
	seq := normalizedLevenshteinSimilarity(aNorm, bNorm)

	aSet := make(map[string]struct{}, len(at))
	bSet := make(map[string]struct{}, len(bt))
	for _, t := range at {
		aSet[t] = struct{}{}
	}
	for _, t := range bt {
		bSet[t] = struct{}{}
	}
	var jacc float64
	if len(aSet) > 0 && len(bSet) > 0 {
		inter := 0
		for t := range aSet {
			if _, ok := bSet[t]; ok {
				inter++
			}
		}
		jacc = float64(inter) / float64(len(aSet)+len(bSet)-inter)
	}
	return math.Max(seq, jacc)
}

func normalizedLevenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	dist := levenshteinDistance(a, b)
	denom := max(len([]rune(a)), len([]rune(b)))
	return math.Max(0, 1-float64(dist)/float64(denom))
}

func levenshteinDistance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}
	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ar {
		curr[0] = i + 1
		for j, cb := range br {
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min(curr[j]+1, prev[j+1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

// hasToken reports whether the header contains keyword as a whole token.
func hasToken(header, keyword string) bool {
	kw := singularize(strings.ToLower(keyword))
	for _, t := range headerTokens(header) {
		if t == kw {
			return true
		}
	}
	return false
}
