// Package translate turns extracted text into translation results. It
// knows how to classify input and shape results; the provider behind it is
// injected.
package translate

import (
	"strings"

	"golang.org/x/text/language"
)

// Mode is the output shape for a selection.
type Mode int

const (
	SentenceMode Mode = iota
	WordMode
)

func (m Mode) String() string {
	if m == WordMode {
		return "word"
	}
	return "sentence"
}

type Definition struct {
	PartOfSpeech string
	Meaning      string
}

type Example struct {
	Source string
	Target string
}

// WordResult is a dictionary-style breakdown of a single word.
type WordResult struct {
	Lemma       string
	Phonetic    string
	Forms       []string
	Definitions []Definition
	UsageNotes  string
	Examples    []Example
}

type KeyTerm struct {
	Term              string
	ContextualMeaning string
}

// SentenceResult is a fluent translation with optional key terms.
type SentenceResult struct {
	SourceText     string
	TranslatedText string
	KeyTerms       []KeyTerm
}

// Result holds exactly one of Word or Sentence.
type Result struct {
	Word     *WordResult
	Sentence *SentenceResult

	// DetectedLang is set when the provider reported the source language.
	DetectedLang string
}

func (r Result) Mode() Mode {
	if r.Word != nil {
		return WordMode
	}
	return SentenceMode
}

// Text returns the primary translated text.
func (r Result) Text() string {
	switch {
	case r.Sentence != nil:
		return r.Sentence.TranslatedText
	case r.Word != nil:
		meanings := make([]string, 0, len(r.Word.Definitions))
		for _, d := range r.Word.Definitions {
			meanings = append(meanings, d.Meaning)
		}
		return strings.Join(meanings, "; ")
	default:
		return ""
	}
}

// Request is what a provider receives.
type Request struct {
	Text   string
	Source string
	Target string
	Mode   Mode
}

// Reply is a provider's complete answer.
type Reply struct {
	Text         string
	DetectedLang string
}

// AutoLang means "let the provider detect the source language".
const AutoLang = "auto"

// NormalizeLang canonicalises a BCP 47 tag ("zh-cn" -> "zh-CN"). Unknown
// values are returned trimmed but otherwise untouched.
func NormalizeLang(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, AutoLang) {
		return AutoLang
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}
