// Package synonym expands query terms with synonyms drawn from a loaded
// custom dictionary, and optionally a pluggable external lookup (e.g. a
// WordNet-backed service), with a bounded LRU cache keyed by lowercased
// word.
package synonym

import (
	"bufio"
	"container/list"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

const (
	defaultMaxSynonyms = 5
	defaultCacheSize   = 1000
)

// ExternalLookup is an optional secondary synonym source (e.g. WordNet).
// No implementation is wired by default: no WordNet-equivalent package
// appears anywhere in the dependency surface this service draws from, so
// this stays an interface seam rather than a fabricated dependency.
type ExternalLookup interface {
	Lookup(word string) []string
}

// Service expands query terms with synonyms from a custom dictionary and an
// optional ExternalLookup, caching combined results per word.
type Service struct {
	mu          sync.Mutex
	customDict  map[string]map[string]struct{}
	external    ExternalLookup
	maxSynonyms int
	cache       *lruCache
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExternalLookup wires a secondary synonym source.
func WithExternalLookup(lookup ExternalLookup) Option {
	return func(s *Service) { s.external = lookup }
}

// WithMaxSynonyms overrides the default of 5 synonyms returned per word.
func WithMaxSynonyms(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSynonyms = n
		}
	}
}

// New constructs a Service with an empty custom dictionary.
func New(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		customDict:  make(map[string]map[string]struct{}),
		maxSynonyms: defaultMaxSynonyms,
		cache:       newLRUCache(defaultCacheSize),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadDictionaryFile loads a custom synonym dictionary from disk. Each
// non-empty, non-comment line is either "word: syn1, syn2" or
// space-separated "word syn1 syn2". Missing files are not an error.
func (s *Service) LoadDictionaryFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("synonym dictionary not found", "path", path)
			return nil
		}
		return err
	}
	defer f.Close()
	return s.LoadDictionary(f)
}

// LoadDictionary parses a synonym dictionary from r, merging into the
// existing custom dictionary.
func (s *Service) LoadDictionary(r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scanner := bufio.NewScanner(r)
	loaded := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, syns := parseDictLine(line)
		if word == "" || len(syns) == 0 {
			continue
		}
		set, ok := s.customDict[word]
		if !ok {
			set = make(map[string]struct{})
			s.customDict[word] = set
		}
		for _, syn := range syns {
			set[syn] = struct{}{}
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	s.cache.clear()
	s.logger.Info("loaded synonym dictionary entries", "count", loaded)
	return nil
}

func parseDictLine(line string) (string, []string) {
	if idx := strings.Index(line, ":"); idx >= 0 {
		word := strings.ToLower(strings.TrimSpace(line[:idx]))
		var syns []string
		for _, s := range strings.Split(line[idx+1:], ",") {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				syns = append(syns, s)
			}
		}
		return word, syns
	}
	parts := strings.Fields(strings.ToLower(line))
	if len(parts) < 2 {
		return "", nil
	}
	return parts[0], parts[1:]
}

// AddCustomSynonyms adds synonyms for word at runtime, invalidating any
// cached entry for it.
func (s *Service) AddCustomSynonyms(word string, synonyms []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	word = strings.ToLower(word)
	set, ok := s.customDict[word]
	if !ok {
		set = make(map[string]struct{})
		s.customDict[word] = set
	}
	for _, syn := range synonyms {
		set[strings.ToLower(syn)] = struct{}{}
	}
	s.cache.delete(word)
}

// GetSynonyms returns up to maxSynonyms synonyms for word, sorted for
// determinism, combining the custom dictionary and any ExternalLookup.
func (s *Service) GetSynonyms(word string) []string {
	word = strings.ToLower(strings.TrimSpace(word))
	if len(word) < 2 {
		return nil
	}

	if cached, ok := s.cache.get(word); ok {
		return cached
	}

	seen := map[string]struct{}{}
	s.mu.Lock()
	for syn := range s.customDict[word] {
		seen[syn] = struct{}{}
	}
	external := s.external
	s.mu.Unlock()

	if external != nil {
		for _, syn := range external.Lookup(word) {
			syn = strings.ToLower(syn)
			if syn != "" {
				seen[syn] = struct{}{}
			}
		}
	}
	delete(seen, word)

	out := make([]string, 0, len(seen))
	for syn := range seen {
		out = append(out, syn)
	}
	sort.Strings(out)
	if len(out) > s.maxSynonyms {
		out = out[:s.maxSynonyms]
	}

	s.cache.put(word, out)
	return out
}

// ExpandQuery appends up to two top synonyms for up to maxExpansions
// non-stopword terms of length >= 3, returning the expanded query string.
func (s *Service) ExpandQuery(query string, maxExpansions int) string {
	words := strings.Fields(strings.ToLower(query))
	expanded := make([]string, 0, len(words))
	expansionsMade := 0

	for _, word := range words {
		if len(word) < 3 || stopWords[word] {
			expanded = append(expanded, word)
			continue
		}
		synonyms := s.GetSynonyms(word)
		if len(synonyms) > 0 && expansionsMade < maxExpansions {
			expanded = append(expanded, word)
			limit := 2
			if limit > len(synonyms) {
				limit = len(synonyms)
			}
			expanded = append(expanded, synonyms[:limit]...)
			expansionsMade++
		} else {
			expanded = append(expanded, word)
		}
	}
	return strings.Join(expanded, " ")
}

// IsAvailable reports whether any synonym source is configured.
func (s *Service) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.customDict) > 0 || s.external != nil
}

var stopWords = func() map[string]bool {
	words := []string{
		"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
		"be", "have", "has", "had", "do", "does", "did", "will", "would",
		"could", "should", "may", "might", "must", "can", "this", "that",
		"these", "those", "i", "you", "he", "she", "it", "we", "they",
		"what", "which", "who", "whom", "whose", "where", "when", "why", "how",
		"all", "each", "every", "both", "few", "more", "most", "other",
		"some", "such", "no", "nor", "not", "only", "own", "same", "so",
		"than", "too", "very", "just", "also", "now", "here", "there",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// lruCache is a small bounded LRU cache mapping word -> synonym list, built
// on a map plus container/list rather than a third-party LRU package.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

type lruEntry struct {
	key   string
	value []string
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{capacity: capacity, order: list.New(), items: make(map[string]*list.Element)}
}

func (c *lruCache) get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).value, true
}

func (c *lruCache) put(key string, value []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).value = value
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}

func (c *lruCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}
