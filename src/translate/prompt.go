package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// TermsMarker opens the key-terms block at the end of a sentence reply.
const TermsMarker = "##TERMS"

// LangName returns an English name for a language tag.
func LangName(code string) string {
	if NormalizeLang(code) == AutoLang {
		return "the detected language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// SystemPrompt is the instruction sent to AI providers.
func SystemPrompt(req Request) string {
	from, to := LangName(req.Source), LangName(req.Target)
	if req.Mode == WordMode {
		return fmt.Sprintf(`You are a bilingual dictionary. Explain the %s word the user sends for a reader of %s.
Reply with ONE JSON object and nothing else:
{"lemma": string, "phonetic": string, "forms": [string],
 "definitions": [{"pos": string, "meaning": string}],
 "usage_notes": string,
 "examples": [{"source": string, "target": string}]}
Meanings, notes and example targets are written in %s. Omit nothing; use "" or [] when unknown.`, from, to, to)
	}

	return fmt.Sprintf(`You are a translation engine. Translate the user's text from %s to %s.
Output the translation only, with no preamble and no quotes.
After the translation, output a line containing exactly %s followed by up to five lines of the form
term = meaning in this context
for the words a learner would most likely look up. Write the meanings in %s.`, from, to, TermsMarker, to)
}

// UserPrompt is the user turn sent to AI providers.
func UserPrompt(req Request) string {
	return strings.TrimSpace(req.Text)
}
