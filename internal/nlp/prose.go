package nlp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// ProseAnnotator annotates English text with the prose tokenizer, sentence
// segmenter and averaged-perceptron tagger. The tagging model is loaded once
// and shared.
type ProseAnnotator struct {
	once    sync.Once
	model   *prose.Model
	loadErr error
}

func NewProseAnnotator() *ProseAnnotator {
	return &ProseAnnotator{}
}

func (p *ProseAnnotator) loadModel() (*prose.Model, error) {
	p.once.Do(func() {
		doc, err := prose.NewDocument("", prose.WithExtraction(false))
		if err != nil {
			p.loadErr = fmt.Errorf("load tagging model: %w", err)
			return
		}
		p.model = doc.Model
	})
	return p.model, p.loadErr
}

// Annotate splits text into sentences, then tokenizes and tags each sentence.
func (p *ProseAnnotator) Annotate(text string) (Annotation, error) {
	model, err := p.loadModel()
	if err != nil {
		return Annotation{}, err
	}

	segmented, err := prose.NewDocument(text,
		prose.UsingModel(model),
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return Annotation{}, fmt.Errorf("segment text: %w", err)
	}

	var ann Annotation
	cursor := 0
	for _, s := range segmented.Sentences() {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		doc, err := prose.NewDocument(s.Text,
			prose.UsingModel(model),
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			return Annotation{}, fmt.Errorf("tag sentence: %w", err)
		}

		tokens := make([]Token, 0, len(doc.Tokens()))
		for _, tok := range doc.Tokens() {
			tokens = append(tokens, Token{
				Text:  tok.Text,
				Lower: strings.ToLower(tok.Text),
				Tag:   tok.Tag,
			})
		}

		sentence := Sentence{Text: s.Text, Start: -1, End: -1, Tokens: tokens}
		sentence.Passive = markPassive(sentence.Tokens)
		if idx := strings.Index(text[cursor:], s.Text); idx >= 0 {
			sentence.Start = cursor + idx
			sentence.End = sentence.Start + len(s.Text)
			cursor = sentence.End
		}

		ann.Sentences = append(ann.Sentences, sentence)
		ann.Tokens = append(ann.Tokens, sentence.Tokens...)
	}
	return ann, nil
}
