// Package nlp provides the linguistic annotation the resume engine consumes:
// tokens with part-of-speech tags, sentence boundaries and passive-voice flags.
package nlp

import (
	"strings"
	"unicode"
)

// Token is one annotated token.
type Token struct {
	Text       string
	Lower      string
	Tag        string
	PassiveAux bool
}

// IsPunct reports whether the token consists only of punctuation or symbols.
func (t Token) IsPunct() bool {
	if t.Text == "" {
		return true
	}
	for _, r := range t.Text {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// Sentence is a sentence span in the annotated text. Start and End are byte
// offsets, or -1 when the segmenter rewrote the text and it could not be located.
type Sentence struct {
	Text    string
	Start   int
	End     int
	Tokens  []Token
	Passive bool
}

// Annotation is the result of annotating one text.
type Annotation struct {
	Tokens    []Token
	Sentences []Sentence
}

// WordCount counts non-punctuation tokens.
func (a Annotation) WordCount() int {
	n := 0
	for _, tok := range a.Tokens {
		if !tok.IsPunct() {
			n++
		}
	}
	return n
}

func (a Annotation) SentenceCount() int {
	return len(a.Sentences)
}

// PassiveSentences returns the text of every sentence holding a passive auxiliary.
func (a Annotation) PassiveSentences() []string {
	var out []string
	for _, s := range a.Sentences {
		if s.Passive {
			out = append(out, strings.TrimSpace(s.Text))
		}
	}
	return out
}

// Annotator annotates text. Implementations must be safe for concurrent use.
type Annotator interface {
	Annotate(text string) (Annotation, error)
}

// AnnotatorFunc adapts a function to Annotator.
type AnnotatorFunc func(text string) (Annotation, error)

func (f AnnotatorFunc) Annotate(text string) (Annotation, error) {
	return f(text)
}

var passiveAuxiliaries = map[string]bool{
	"am": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"get": true, "gets": true, "got": true, "gotten": true, "getting": true,
}

// markPassive flags auxiliaries of passive constructions: a form of "be" or
// "get" followed by a past participle, allowing adverbs and negation between.
// It reports whether any token was flagged.
func markPassive(tokens []Token) bool {
	found := false
	for i := range tokens {
		if !passiveAuxiliaries[tokens[i].Lower] {
			continue
		}
		for j := i + 1; j < len(tokens) && j <= i+3; j++ {
			next := tokens[j]
			if next.Tag == "VBN" {
				tokens[i].PassiveAux = true
				found = true
				break
			}
			if !isAdverbial(next) {
				break
			}
		}
	}
	return found
}

func isAdverbial(t Token) bool {
	switch t.Tag {
	case "RB", "RBR", "RBS":
		return true
	}
	return t.Lower == "not" || t.Lower == "n't"
}
