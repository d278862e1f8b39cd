// Package wordlist loads and filters drill word lists.
package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// defaultWords keeps drills working before the user installs a list.
// Short common English words with broad letter coverage.
var defaultWords = []string{
	"the", "and", "for", "are", "but", "not", "you", "all", "can", "had",
	"her", "was", "one", "our", "out", "day", "get", "has", "him", "his",
	"how", "man", "new", "now", "old", "see", "two", "way", "who", "boy",
	"did", "its", "let", "put", "say", "she", "too", "use", "that", "with",
	"have", "this", "will", "your", "from", "they", "know", "want", "been",
	"good", "much", "some", "time", "very", "when", "come", "here", "just",
	"like", "long", "make", "many", "more", "only", "over", "such", "take",
	"than", "them", "well", "were", "what", "work", "back", "call", "came",
	"each", "even", "find", "give", "hand", "high", "keep", "last", "left",
	"life", "live", "look", "made", "most", "move", "must", "name", "need",
	"next", "open", "part", "play", "said", "same", "seem", "show", "side",
	"tell", "turn", "about", "after", "again", "could", "every", "first",
	"found", "great", "house", "large", "place", "point", "right", "small",
	"sound", "still", "there", "these", "thing", "think", "three", "under",
	"water", "where", "which", "while", "world", "would", "write", "years",
	"quick", "zebra", "jumps", "vexed", "fjord", "glyph", "pixel",
}

// Default returns the built-in word list filtered to lowercase ASCII.
func Default() []string {
	return Filter(defaultWords)
}

// Load reads one word per line from path, filtered to lowercase ASCII.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	words = Filter(words)
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s has no usable words", path)
	}
	return words, nil
}

// LoadOrDefault loads path when it is set and readable, otherwise the
// built-in list.
func LoadOrDefault(path string) []string {
	if path == "" {
		return Default()
	}
	words, err := Load(path)
	if err != nil {
		return Default()
	}
	return words
}

// Filter keeps only lowercase ASCII words, matching the character set the
// analyzer tracks.
func Filter(words []string) []string {
	kept := words[:0:0]
	for _, w := range words {
		if isLowerASCII(w) {
			kept = append(kept, w)
		}
	}
	return kept
}

func isLowerASCII(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}
