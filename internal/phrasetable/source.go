package phrasetable

import (
	"github.com/latticemt/cubedecoder/internal/decoder/option"
	"github.com/latticemt/cubedecoder/internal/decoder/span"
)

// Lookuper is the subset of MemoryTable/segment.Reader a SentenceSource
// needs: phrase text in, scored entries out.
type Lookuper interface {
	LookupPhrase(sourcePhrase string) []Entry
}

// SentenceSource adapts a phrase-text-keyed Lookuper plus one tokenized
// sentence into an option.Source, joining the sentence's words at each span
// into the surface phrase the table is keyed by.
type SentenceSource struct {
	Table Lookuper
	Words []string
}

// NewSentenceSource builds a SentenceSource for one sentence's words.
func NewSentenceSource(table Lookuper, words []string) SentenceSource {
	return SentenceSource{Table: table, Words: words}
}

// Lookup implements option.Source.
func (s SentenceSource) Lookup(sp span.Span) []option.Entry {
	if sp.Start < 0 || sp.End >= len(s.Words) {
		return nil
	}
	phrase := joinPhrase(s.Words[sp.Start : sp.End+1])
	entries := s.Table.LookupPhrase(phrase)
	if len(entries) == 0 {
		return nil
	}
	out := make([]option.Entry, len(entries))
	for i, e := range entries {
		out[i] = option.Entry{
			Phrase:  e.TargetPhrase,
			Scores:  e.Scores,
			GroupID: e.GroupID,
		}
	}
	return out
}
