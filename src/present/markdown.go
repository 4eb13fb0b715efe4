package present

import (
	"fmt"
	"strings"

	"screen-translate/src/translate"
)

var mdEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "#", `\#`, "`", "\\`")

func esc(s string) string { return mdEscaper.Replace(strings.TrimSpace(s)) }

// Markdown renders a translation result for the result window.
func Markdown(r translate.Result) string {
	var b strings.Builder
	switch {
	case r.Word != nil:
		w := r.Word
		fmt.Fprintf(&b, "## %s", esc(w.Lemma))
		if w.Phonetic != "" {
			fmt.Fprintf(&b, "  /%s/", esc(w.Phonetic))
		}
		b.WriteString("\n\n")
		if len(w.Forms) > 0 {
			forms := make([]string, len(w.Forms))
			for i, f := range w.Forms {
				forms[i] = esc(f)
			}
			fmt.Fprintf(&b, "*%s*\n\n", strings.Join(forms, ", "))
		}
		for _, d := range w.Definitions {
			if d.PartOfSpeech != "" {
				fmt.Fprintf(&b, "- **%s** %s\n", esc(d.PartOfSpeech), esc(d.Meaning))
			} else {
				fmt.Fprintf(&b, "- %s\n", esc(d.Meaning))
			}
		}
		if len(w.Definitions) > 0 {
			b.WriteString("\n")
		}
		if w.UsageNotes != "" {
			fmt.Fprintf(&b, "%s\n\n", esc(w.UsageNotes))
		}
		for _, e := range w.Examples {
			fmt.Fprintf(&b, "- %s\n  %s\n", esc(e.Source), esc(e.Target))
		}
	case r.Sentence != nil:
		s := r.Sentence
		fmt.Fprintf(&b, "%s\n\n", esc(s.TranslatedText))
		if len(s.KeyTerms) > 0 {
			b.WriteString("---\n\n")
			for _, k := range s.KeyTerms {
				fmt.Fprintf(&b, "- **%s** %s\n", esc(k.Term), esc(k.ContextualMeaning))
			}
		}
	}
	if r.DetectedLang != "" {
		fmt.Fprintf(&b, "\n*%s*\n", esc(translate.LangName(r.DetectedLang)))
	}
	return strings.TrimRight(b.String(), "\n")
}
