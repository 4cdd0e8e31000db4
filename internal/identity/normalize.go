// Package identity decides when two labels name the same ontology
// individual. Normalization is pure; resolution reads a store and, on the
// merge path only, mints new individuals.
package identity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	typoFixer = strings.NewReplacer(
		"anlaysis", "analysis",
		"anaylsis", "analysis",
		"synchony", "synchrony",
	)

	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

	// tokens that end in "s" but are already singular
	keepPlural = map[string]bool{
		"series": true, "species": true, "news": true, "physics": true,
		"dynamics": true, "kinematics": true, "statistics": true, "ethics": true,
	}
)

// Normalize returns the canonical key of a label. Two labels with the same
// key name the same individual.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFKC.String(raw)
	s = cases.Fold().String(s)
	s = typoFixer.Replace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case r == '_' || unicode.Is(unicode.Pd, r):
			return ' '
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, s)

	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = singular(f)
	}
	return strings.Join(fields, " ")
}

func singular(tok string) string {
	if len(tok) <= 3 || keepPlural[tok] {
		return tok
	}
	switch {
	case strings.HasSuffix(tok, "ss"), strings.HasSuffix(tok, "us"), strings.HasSuffix(tok, "is"):
		return tok
	case strings.HasSuffix(tok, "ies") && len(tok) > 4:
		return tok[:len(tok)-3] + "y"
	case strings.HasSuffix(tok, "s"):
		return tok[:len(tok)-1]
	}
	return tok
}

// Slug turns a key into an IRI-safe local name fragment.
func Slug(key string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(key), "_"), "_")
}

// SplitMulti splits a comma or semicolon separated cell into trimmed,
// non-empty values.
func SplitMulti(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CleanLabel tidies a label for display without changing its wording:
// whitespace collapsed, unicode dashes replaced, known typos fixed.
func CleanLabel(raw string) string {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	s = strings.Map(func(r rune) rune {
		if r != '-' && unicode.Is(unicode.Pd, r) {
			return '-'
		}
		return r
	}, s)
	s = typoFixer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// camelBoundary splits "sharedMentalModels" into "shared Mental Models".
var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// KeyFromLocalName derives a key from an IRI local name, dropping a known
// instance prefix such as "construct_".
func KeyFromLocalName(local, prefix string) string {
	local = strings.TrimPrefix(local, prefix)
	return Normalize(camelBoundary.ReplaceAllString(local, "$1 $2"))
}

// ModalityBucket infers the coarse modality family of a modality label, or
// "" when nothing matches.
func ModalityBucket(label string) string {
	l := strings.ToLower(label)
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(l, s) {
				return true
			}
		}
		return false
	}
	switch {
	case has("physiol", "ibi", "cardiac", "eda", "eeg", "ecg", "heart"):
		return "physiology"
	case has("survey", "interview", "questionnaire"):
		return "survey"
	case has("observ", "ethnograph"):
		return "observation"
	case has("communicat", "language", "speech", "text", "audio"):
		return "communication"
	case has("task outcome", "accuracy", "time on task"):
		return "taskOutcome"
	case has("behavior", "behaviour", "movement", "system", "log"):
		return "behavior"
	}
	return ""
}
