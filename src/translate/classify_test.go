package translate

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Mode
	}{
		{"Schema", WordMode},
		{"  Schema\n", WordMode},
		{"Look up", SentenceMode},
		{"well-known", WordMode},
		{"Donaudampfschifffahrtsgesellschaftskapitän", WordMode},
		{"翻译", WordMode},
		{"日本語です", SentenceMode},
		{"한국어", WordMode},
		{"ภาษาไทยครับ", SentenceMode},
		{"中文 text", SentenceMode},
		{"a\tb", SentenceMode},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Fatalf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("no interior whitespace is word mode", prop.ForAll(
		func(word string) bool {
			return Classify(word) == WordMode
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.Property("an interior space is sentence mode", prop.ForAll(
		func(a, b string) bool {
			return Classify(a+" "+b) == SentenceMode
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.Property("surrounding whitespace does not matter", prop.ForAll(
		func(word string, pad int) bool {
			p := strings.Repeat(" ", pad)
			return Classify(p+word+p) == Classify(word)
		},
		gen.AlphaString(),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
