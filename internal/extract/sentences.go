package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinSentenceLength is the largest trimmed length (in characters) that is
// still too short to be a candidate sentence
const MinSentenceLength = 10

var terminators = regexp.MustCompile(`[.!?]+`)

// Segment splits text into candidate sentences on runs of '.', '!' and '?'.
// Pieces are trimmed and kept only when longer than MinSentenceLength
// characters. Text without terminators yields at most one sentence.
func Segment(text string) []string {
	sentences := []string{}
	for _, piece := range terminators.Split(text, -1) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) > MinSentenceLength {
			sentences = append(sentences, piece)
		}
	}
	return sentences
}

// WordCount counts whitespace-separated words
func WordCount(sentence string) int {
	return len(strings.Fields(sentence))
}
