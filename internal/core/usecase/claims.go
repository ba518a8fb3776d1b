package usecase

import (
	"regexp"
	"strconv"
	"strings"
)

// ClaimKind distinguishes numeric assertions from yes/no coverage statements.
type ClaimKind string

const (
	ClaimNumeric ClaimKind = "numeric"
	ClaimBoolean ClaimKind = "boolean"
)

// Claim is one candidate assertion extracted from semantic text, keyed by the
// structured field it speaks about.
type Claim struct {
	Field   string
	Kind    ClaimKind
	Number  float64
	Truth   bool
	Excerpt string
}

// ClaimExtractor isolates the best-effort pattern matching so the rules can
// be swapped or tested apart from the scoring logic.
type ClaimExtractor interface {
	Extract(text string) []Claim
}

var (
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|per\s*cent|percent)`)
	dollarPattern  = regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d+)?)`)
)

// Sentence-level keyword proximity decides which field a number belongs to.
var claimFieldKeywords = []struct {
	field    string
	keywords []string
}{
	{"client_share_percent", []string{"client share", "client portion", "client pays", "co-payment", "copayment", "client contribution"}},
	{"funding_percent", []string{"fund", "covers", "covered", "contribution", "subsid"}},
	{"fee", []string{"fee", "billed", "billing", "payable"}},
	{"price", []string{"price", "cost", "costs"}},
}

var negativeCoveragePhrases = []string{
	"not covered",
	"not funded",
	"no longer funded",
	"not a benefit",
	"excluded from",
	"is excluded",
	"not eligible for funding",
}

var positiveCoveragePhrases = []string{
	"is covered",
	"is funded",
	"is a benefit",
	"eligible for funding",
	"will be funded",
}

// KeywordClaimExtractor is the fixed heuristic implementation.
type KeywordClaimExtractor struct{}

func NewKeywordClaimExtractor() *KeywordClaimExtractor {
	return &KeywordClaimExtractor{}
}

func (e *KeywordClaimExtractor) Extract(text string) []Claim {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	out := make([]Claim, 0, 4)
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)

		for _, m := range percentPattern.FindAllStringSubmatch(lower, -1) {
			field := fieldForSentence(lower, "funding_percent")
			if field == "fee" || field == "price" {
				// A bare percentage never talks about a dollar amount.
				field = "funding_percent"
			}
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				out = append(out, Claim{
					Field:   field,
					Kind:    ClaimNumeric,
					Number:  v,
					Excerpt: strings.TrimSpace(sentence),
				})
			}
		}

		for _, m := range dollarPattern.FindAllStringSubmatch(lower, -1) {
			field := fieldForSentence(lower, "")
			if field != "fee" && field != "price" {
				continue
			}
			raw := strings.ReplaceAll(m[1], ",", "")
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				out = append(out, Claim{
					Field:   field,
					Kind:    ClaimNumeric,
					Number:  v,
					Excerpt: strings.TrimSpace(sentence),
				})
			}
		}

		if phrase := firstContained(lower, negativeCoveragePhrases); phrase != "" {
			out = append(out, Claim{
				Field:   "covered",
				Kind:    ClaimBoolean,
				Truth:   false,
				Excerpt: strings.TrimSpace(sentence),
			})
		} else if phrase := firstContained(lower, positiveCoveragePhrases); phrase != "" {
			out = append(out, Claim{
				Field:   "covered",
				Kind:    ClaimBoolean,
				Truth:   true,
				Excerpt: strings.TrimSpace(sentence),
			})
		}
	}
	return out
}

func fieldForSentence(lower, fallback string) string {
	for _, entry := range claimFieldKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.field
			}
		}
	}
	return fallback
}

func firstContained(lower string, phrases []string) string {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return p
		}
	}
	return ""
}

// splitSentences breaks on '.', ';' and newlines, keeping periods that sit
// between digits so decimal amounts survive intact.
func splitSentences(text string) []string {
	runes := []rune(text)
	out := make([]string, 0, 8)
	start := 0
	for i, r := range runes {
		boundary := r == ';' || r == '\n' ||
			(r == '.' && !(i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1])))
		if !boundary {
			continue
		}
		if i > start {
			out = append(out, string(runes[start:i]))
		}
		start = i + 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
