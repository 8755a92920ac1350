package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"resumescore/internal/nlp"
	"resumescore/internal/types"
)

// spyAnnotator splits sentences on periods and newlines, tokenizes on
// whitespace and treats "was"/"were" as passive auxiliaries. It counts calls.
type spyAnnotator struct {
	calls atomic.Int64
	err   error
	gate  chan struct{}
}

func (s *spyAnnotator) Annotate(text string) (nlp.Annotation, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nlp.Annotation{}, s.err
	}

	var ann nlp.Annotation
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' }) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		var tokens []nlp.Token
		passive := false
		for _, w := range strings.Fields(sentence) {
			w = strings.Trim(w, ",;:")
			tok := nlp.Token{Text: w, Lower: strings.ToLower(w)}
			if tok.Lower == "was" || tok.Lower == "were" {
				tok.PassiveAux = true
				passive = true
			}
			tokens = append(tokens, tok)
		}
		ann.Sentences = append(ann.Sentences, nlp.Sentence{
			Text: sentence, Start: -1, End: -1, Tokens: tokens, Passive: passive,
		})
		ann.Tokens = append(ann.Tokens, tokens...)
	}
	return ann, nil
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]types.ResumeAnalysis
	getErr  error
	setErr  error
	sets    int
	lookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]types.ResumeAnalysis)}
}

func (f *fakeStore) Get(_ context.Context, text string) (types.ResumeAnalysis, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.getErr != nil {
		return types.ResumeAnalysis{}, false, f.getErr
	}
	v, ok := f.data[text]
	return v, ok, nil
}

func (f *fakeStore) Set(_ context.Context, text string, a types.ResumeAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.data[text] = a
	return nil
}

func resumeText(n int) string {
	return fmt.Sprintf("EXPERIENCE\nDeveloped service %d\nSKILLS\npython, aws", n)
}
