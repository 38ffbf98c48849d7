package extractor

import "strings"

// Token is one token-classification result from a NER pipeline. Entity is a
// BIOES tag such as "B-PER" or "S-LOC"; Start/End index into the source text.
type Token struct {
	Entity string  `json:"entity"`
	Score  float64 `json:"score"`
	Word   string  `json:"word"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

var tagCategories = map[string]Category{
	"PER": People,
	"LOC": Places,
	"ORG": Orgs,
	"OTH": Others,
}

// MergeEntities folds BIOES-tagged tokens back into whole entity names.
// Singletons (S-) are taken as is, B- opens a span that the next E- closes,
// and tokens outside an open span that are not S- or B- are ignored.
func MergeEntities(text string, tokens []Token) map[Category][]string {
	out := make(map[Category][]string, len(Categories))
	var span []string
	open := false

	for _, tok := range tokens {
		prefix, suffix, ok := strings.Cut(tok.Entity, "-")
		if !ok {
			continue
		}
		cat, known := tagCategories[suffix]
		if !known {
			continue
		}
		word := tokenText(text, tok)

		if !open {
			switch prefix {
			case "S":
				out[cat] = append(out[cat], word)
			case "B":
				span = append(span[:0], word)
				open = true
			}
			continue
		}

		span = append(span, word)
		if prefix == "E" {
			out[cat] = append(out[cat], strings.Join(span, " "))
			span = span[:0]
			open = false
		}
	}
	return out
}

func tokenText(text string, tok Token) string {
	if tok.Start >= 0 && tok.End <= len(text) && tok.Start < tok.End {
		return text[tok.Start:tok.End]
	}
	return strings.TrimSpace(tok.Word)
}
