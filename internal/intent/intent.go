// Package intent classifies queries into the fixed intent taxonomy that
// gates routine execution. Classification is a pure function of the query
// text and caller context: no learned state, no randomness, identical inputs
// always produce the identical class.
package intent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// signalSet binds an intent class to the lexical signals that select it.
// Phrases match as substrings of the folded text; single words must appear
// as whole tokens so "size" does not fire on "emphasize".
type signalSet struct {
	intent  types.IntentClass
	phrases []string
	words   []string
	pattern *regexp.Regexp
}

// protocolRef matches protocol-number references like "wsp 42" or
// "protocol-7", the strongest doc_lookup signal.
var protocolRef = regexp.MustCompile(`\b(wsp|protocol)[ _-]?\d+\b`)

// signalSets is ordered by precedence: the first class with any match wins.
// doc_lookup and code_location answers are cheap and unambiguous; research
// may trigger network lookups and must never fire speculatively, so its
// signals are deliberately narrow.
var signalSets = []signalSet{
	{
		intent:  types.IntentDocLookup,
		phrases: []string{"per protocol", "per wsp"},
		words:   []string{"compliant", "compliance", "violation", "violations", "violate", "violates", "protocol", "protocols", "wsp", "policy"},
		pattern: protocolRef,
	},
	{
		intent:  types.IntentCodeLocation,
		phrases: []string{"where is", "where's", "where are", "where does", "location of", "which file", "path to", "defined in"},
		words:   []string{"locate"},
	},
	{
		intent:  types.IntentModuleHealth,
		phrases: []string{"too big", "too large", "line count", "module structure", "how big"},
		words:   []string{"health", "healthy", "size", "oversized", "orphan", "orphans", "orphaned", "bloat", "bloated", "hygiene"},
	},
	{
		intent:  types.IntentResearch,
		phrases: []string{"look up", "search the web", "latest version", "latest release", "external documentation"},
		words:   []string{"research", "online", "web", "upstream"},
	},
}

const (
	// baseConfidence is assigned to a single-signal match; each additional
	// signal adds signalBonus up to the cap.
	baseConfidence = 0.6
	signalBonus    = 0.1
	maxConfidence  = 1.0

	// fallthroughConfidence is assigned when no signal matches and the query
	// lands in general.
	fallthroughConfidence = 0.3
)

// Classify maps query text plus caller context onto exactly one intent
// class. Context values participate in matching so a caller-supplied task
// hint like "module health sweep" routes the same as the literal query.
func Classify(rawText string, context map[string]string) types.IntentClassification {
	folded := scorer.Fold(rawText)
	for _, key := range sortedKeys(context) {
		folded += " " + scorer.Fold(context[key])
	}
	tokens := tokenSet(folded)

	for _, set := range signalSets {
		matched := set.match(folded, tokens)
		if len(matched) > 0 {
			return types.IntentClassification{
				Intent:         set.intent,
				Confidence:     confidence(len(matched)),
				MatchedSignals: matched,
			}
		}
	}

	return types.IntentClassification{
		Intent:     types.IntentGeneral,
		Confidence: fallthroughConfidence,
	}
}

// match returns the signals present in the text, sorted for determinism.
func (s *signalSet) match(folded string, tokens map[string]bool) []string {
	var matched []string
	for _, phrase := range s.phrases {
		if strings.Contains(folded, phrase) {
			matched = append(matched, phrase)
		}
	}
	for _, word := range s.words {
		if tokens[word] {
			matched = append(matched, word)
		}
	}
	if s.pattern != nil {
		if ref := s.pattern.FindString(folded); ref != "" {
			matched = append(matched, ref)
		}
	}
	sort.Strings(matched)
	return matched
}

func confidence(signals int) float64 {
	c := baseConfidence + signalBonus*float64(signals-1)
	if c > maxConfidence {
		return maxConfidence
	}
	return c
}

func tokenSet(folded string) map[string]bool {
	tokens := scorer.Tokenize(folded)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
