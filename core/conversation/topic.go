package conversation

import (
	"maps"
	"regexp"
	"sync"
	"unicode"
	"unicode/utf8"
)

const (
	// KeyCompany holds the company or ticker currently under discussion.
	KeyCompany = "company"
	// NoSpecificCompany is reported while no company has been extracted.
	NoSpecificCompany = "No specific company"
)

var (
	// Exchange-qualified tickers such as TATAMOTORS.NS or RELIANCE.BO.
	tickerPattern = regexp.MustCompile(`([A-Z]{2,}\.[A-Z]{2,})`)
	// Any capitalized word. Also matches sentence-initial words like "Tell".
	// Word boundaries are checked by firstCapitalizedWord, since RE2's \b
	// only knows ASCII word characters.
	capitalizedPattern = regexp.MustCompile(`([A-Z][a-zA-Z]+)`)
)

// TopicStore is the small key-value store written by ExtractContext.
type TopicStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewTopicStore() *TopicStore {
	return &TopicStore{values: map[string]string{}}
}

func (s *TopicStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *TopicStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
}

// Snapshot returns a copy of the stored values.
func (s *TopicStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// ExtractContext looks for a ticker, then for a capitalized word, and stores
// the first match under KeyCompany. It returns the stored company, or
// NoSpecificCompany. A miss leaves the store untouched.
//
//	ExtractContext("What about TATAMOTORS.NS?", store)         // "TATAMOTORS.NS"
//	ExtractContext("what was its revenue last quarter", store) // previous value
func ExtractContext(input string, store *TopicStore) string {
	if m := tickerPattern.FindStringSubmatch(input); m != nil {
		store.Set(KeyCompany, m[1])
	} else if word, ok := firstCapitalizedWord(input); ok {
		store.Set(KeyCompany, word)
	}

	if company, ok := store.Get(KeyCompany); ok {
		return company
	}
	return NoSpecificCompany
}

// firstCapitalizedWord returns the first capitalized ASCII word that is not
// glued to another letter, digit or underscore. "Nestlé" and "L'Oréal"
// yield nothing.
func firstCapitalizedWord(input string) (string, bool) {
	for _, loc := range capitalizedPattern.FindAllStringSubmatchIndex(input, -1) {
		start, end := loc[2], loc[3]
		before, _ := utf8.DecodeLastRuneInString(input[:start])
		after, _ := utf8.DecodeRuneInString(input[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return input[start:end], true
		}
	}
	return "", false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
