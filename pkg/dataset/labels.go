package dataset

import (
	"strings"

	"github.com/spf13/cast"
)

// Ranked candidate names for the ground-truth label column. Matching is
// case-insensitive and the first hit wins.
var labelColumnCandidates = []string{
	"label_family",
	"label",
	"attack_cat",
	"attack_type",
	"category",
	"threat_type",
	"threat",
	"ground_truth",
	"class",
	"target",
	"is_attack",
	"y",
}

// Tokens that mark a distinct label value as the positive (attack) class,
// in priority order.
var positiveTokens = []string{"attack", "anomaly", "malicious", "1", "true", "positive", "intrusion"}

// Tokens that mark a distinct label value as the negative (benign) class.
var negativeTokens = []string{"normal", "benign", "0", "false", "negative", "clean", "legit", "legitimate", "baseline"}

// Raw attack-category spellings mapped to their canonical form. Matching is
// case-insensitive over the trimmed input.
var attackCategorySynonyms = map[string]string{
	"backdoors":      "Backdoor",
	"backdoor":       "Backdoor",
	"fuzzers":        "Fuzzers",
	"fuzzer":         "Fuzzers",
	"exploits":       "Exploits",
	"exploit":        "Exploits",
	"worms":          "Worms",
	"worm":           "Worms",
	"shellcode":      "Shellcode",
	"shellcodes":     "Shellcode",
	"reconnaissance": "Reconnaissance",
	"generic":        "Generic",
	"dos":            "DoS",
	"analysis":       "Analysis",
}

// FindLabelColumn locates the column most likely to hold ground truth among
// the dataset's observed column names. It reports false when no conventional
// label column is present, in which case ground-truth metrics are
// unavailable.
func FindLabelColumn(columns []string) (string, bool) {
	lower := make(map[string]string, len(columns))
	for _, c := range columns {
		if _, seen := lower[strings.ToLower(c)]; !seen {
			lower[strings.ToLower(c)] = c
		}
	}
	for _, cand := range labelColumnCandidates {
		if orig, ok := lower[cand]; ok {
			return orig, true
		}
	}
	return "", false
}

// InferPositiveLabel picks which distinct label value represents the
// anomalous class. A hint that matches a distinct value (case-insensitively)
// wins; otherwise the positive-token list is scanned in rank order; with
// exactly two distinct values the one that is not a known negative token is
// chosen; as a last resort the first distinct value is returned.
func InferPositiveLabel(distinct []string, hint string) (string, bool) {
	if hint != "" {
		for _, v := range distinct {
			if strings.EqualFold(v, hint) {
				return v, true
			}
		}
	}
	for _, tok := range positiveTokens {
		for _, v := range distinct {
			if strings.EqualFold(strings.TrimSpace(v), tok) {
				return v, true
			}
		}
	}
	if len(distinct) == 2 {
		for _, v := range distinct {
			if !isNegativeToken(v) {
				return v, true
			}
		}
	}
	if len(distinct) > 0 {
		return distinct[0], true
	}
	if hint != "" {
		return hint, true
	}
	return "", false
}

func isNegativeToken(v string) bool {
	for _, tok := range negativeTokens {
		if strings.EqualFold(strings.TrimSpace(v), tok) {
			return true
		}
	}
	return false
}

// NormalizeLabel renders a raw ground-truth cell as a comparable string.
// Placeholder values collapse to the empty string.
func NormalizeLabel(v any) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(cast.ToString(v))
	if IsPlaceholder(s) {
		return ""
	}
	return s
}

// NormalizeAttackCategory maps raw attack-category spellings onto their
// canonical names so that "Backdoors" and "backdoor" tally into one bucket.
// Unknown categories pass through trimmed but otherwise untouched.
func NormalizeAttackCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if canonical, ok := attackCategorySynonyms[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// IsBenignCategory reports whether an attack-category value must be kept out
// of attack taxonomies: benign/normal classes and placeholder spellings.
func IsBenignCategory(category string) bool {
	s := strings.ToLower(strings.TrimSpace(category))
	switch s {
	case "", "-", "nan", "none", "0", "normal", "benign":
		return true
	}
	return false
}
