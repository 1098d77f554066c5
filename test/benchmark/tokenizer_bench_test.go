package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/latticemt/cubedecoder/internal/tokenizer"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog.",
	"medium": `Le chat noir dort sur la chaise, pendant que le chien aboie dans le
        jardin. Elle voudrait une tasse de cafe et un croissant, s'il vous plait.
        Nous allons au cinema ce soir pour voir le nouveau film. Pouvez-vous
        m'aider avec cette traduction, s'il vous plait?`,
	"long": strings.Repeat(`Le systeme de traduction automatique statistique par segments
        combine une table de phrases, un modele de langue, et une recherche en faisceau
        avec elagage en cube pour produire la meilleure traduction possible. Chaque
        hypothese porte un vecteur de caracteristiques pondere qui reflete la fidelite
        de la traduction et la fluidite de la sortie. Le decodeur explore l'espace de
        recherche en respectant une limite de distorsion et une longueur de phrase
        maximale, tout en elaguant les hypotheses les moins prometteuses a chaque
        etape de la pile. `, 20),
}

// BenchmarkTokenize measures whitespace/punctuation splitting cost across
// text sizes, since Tokenize preserves every source word's position for
// decoding rather than normalizing terms for indexing.
func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				sentence := tokenizer.Tokenize(text)
				_ = sentence
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sentence := tokenizer.Tokenize(text)
			_ = sentence
		}
	})
}

// BenchmarkTokenizePunctuationHeavy stresses splitPunctuation's per-rune
// path with words carrying multiple leading/trailing punctuation marks.
func BenchmarkTokenizePunctuationHeavy(b *testing.B) {
	words := []string{
		"«bonjour»,", "\"traduction\":", "(decodeur)", "n'est-ce pas?!",
		"c'est-a-dire,", "...enfin.", "«oui»!", "d'accord.",
	}
	text := strings.Join(words, " ")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sentence := tokenizer.Tokenize(text)
		_ = sentence
	}
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWord := "le chat noir mange la souris grise "
	for _, size := range sizes {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				sentence := tokenizer.Tokenize(text)
				_ = sentence
			}
		})
	}
}
