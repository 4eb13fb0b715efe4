package translate

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ParseWordResult reads the JSON an AI provider returns in word mode. A
// reply that is not such JSON (machine providers, chatty models) becomes a
// single definition holding the raw text.
func ParseWordResult(word, raw string) WordResult {
	fallback := WordResult{
		Lemma:       word,
		Definitions: []Definition{{Meaning: strings.TrimSpace(raw)}},
	}

	obj := extractObject(raw)
	if obj == "" || !gjson.Valid(obj) {
		return fallback
	}
	res := gjson.Parse(obj)
	if !res.IsObject() {
		return fallback
	}

	w := WordResult{
		Lemma:      firstNonEmpty(res.Get("lemma").String(), word),
		Phonetic:   res.Get("phonetic").String(),
		UsageNotes: res.Get("usage_notes").String(),
	}
	for _, f := range res.Get("forms").Array() {
		if s := strings.TrimSpace(f.String()); s != "" {
			w.Forms = append(w.Forms, s)
		}
	}
	for _, d := range res.Get("definitions").Array() {
		meaning := strings.TrimSpace(d.Get("meaning").String())
		if meaning == "" {
			continue
		}
		w.Definitions = append(w.Definitions, Definition{
			PartOfSpeech: d.Get("pos").String(),
			Meaning:      meaning,
		})
	}
	for _, e := range res.Get("examples").Array() {
		src := strings.TrimSpace(e.Get("source").String())
		if src == "" {
			continue
		}
		w.Examples = append(w.Examples, Example{Source: src, Target: e.Get("target").String()})
	}

	if len(w.Definitions) == 0 {
		return fallback
	}
	return w
}

func extractObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ParseKeyTerms reads "term = meaning" lines. Bullets and blank lines are
// ignored.
func ParseKeyTerms(block string) []KeyTerm {
	var terms []KeyTerm
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		term, meaning, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		term, meaning = strings.TrimSpace(term), strings.TrimSpace(meaning)
		if term == "" || meaning == "" {
			continue
		}
		terms = append(terms, KeyTerm{Term: term, ContextualMeaning: meaning})
	}
	return terms
}

// termsSplitter separates the visible translation from the key-terms block
// while fragments stream in. A fragment ending in what might be the start
// of the marker is held back until the next one decides it.
type termsSplitter struct {
	held    string
	inTerms bool
	terms   strings.Builder
}

// Push returns the part of fragment that may be shown now.
func (s *termsSplitter) Push(fragment string) string {
	pending := s.held + fragment
	s.held = ""

	if s.inTerms {
		s.terms.WriteString(pending)
		return ""
	}
	if i := strings.Index(pending, TermsMarker); i >= 0 {
		s.inTerms = true
		s.terms.WriteString(pending[i+len(TermsMarker):])
		return pending[:i]
	}

	k := partialMarkerSuffix(pending)
	s.held = pending[len(pending)-k:]
	return pending[:len(pending)-k]
}

// Finish flushes held text and returns the terms block.
func (s *termsSplitter) Finish() (visible, terms string) {
	visible, s.held = s.held, ""
	return visible, s.terms.String()
}

// partialMarkerSuffix returns the length of the longest suffix of s that
// is a proper prefix of TermsMarker.
func partialMarkerSuffix(s string) int {
	for k := min(len(s), len(TermsMarker)-1); k > 0; k-- {
		if TermsMarker[:k] == s[len(s)-k:] {
			return k
		}
	}
	return 0
}
