package translate

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// maxDenseWord is the longest run of a dense script (no spaces between
// words) still treated as a single word.
const maxDenseWord = 4

var denseScripts = []*unicode.RangeTable{
	unicode.Han,
	unicode.Hiragana,
	unicode.Katakana,
	unicode.Hangul,
	unicode.Thai,
}

// Classify picks the output shape for selected text. Text with interior
// whitespace is always a sentence. Text in a dense script is a word only up
// to four characters.
func Classify(text string) Mode {
	trimmed := strings.TrimSpace(text)
	if strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		return SentenceMode
	}
	if strings.IndexFunc(trimmed, isDense) >= 0 && uniseg.GraphemeClusterCount(trimmed) > maxDenseWord {
		return SentenceMode
	}
	return WordMode
}

func isDense(r rune) bool {
	return unicode.In(r, denseScripts...)
}
