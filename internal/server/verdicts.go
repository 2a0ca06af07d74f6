package server

import (
	"errors"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/grammar"
	"github.com/msto63/chomsky/internal/source"
	"github.com/msto63/chomsky/pkg/core/cache"
)

var (
	errBlankSentence   = errors.New("sentence is required")
	errCommentSentence = errors.New("sentence is a comment line")
)

// sentenceText trims network input the way the file reader trims lines.
// Blank and comment input is refused.
func sentenceText(text, commentPrefix string) (string, error) {
	item, ok := source.Classify(text, commentPrefix)
	if !ok {
		return "", errBlankSentence
	}
	if item.Kind == source.KindComment {
		return "", errCommentSentence
	}
	return item.Text, nil
}

// SentenceChecker checks single sentences. *checker.Checker implements it.
type SentenceChecker interface {
	Check(sentence string) checker.Verdict
	Parser() *grammar.Parser
}

// cachedChecker answers repeated sentences from a verdict cache.
// Verdicts carrying an error are not cached.
type cachedChecker struct {
	*checker.Checker
	verdicts *cache.Cache[checker.Verdict]
}

func newCachedChecker(c *checker.Checker, cfg cache.Config) *cachedChecker {
	return &cachedChecker{Checker: c, verdicts: cache.New[checker.Verdict](cfg)}
}

func (c *cachedChecker) Check(sentence string) checker.Verdict {
	v, _ := c.verdicts.GetOrSet(sentence, func() (checker.Verdict, error) {
		v := c.Checker.Check(sentence)
		return v, v.Err
	})
	return v
}

// CacheStats reports verdict cache usage
type CacheStats struct {
	Size    int     `json:"size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

func (c *cachedChecker) stats() CacheStats {
	hits, misses, rate := c.verdicts.Stats()
	return CacheStats{Size: c.verdicts.Size(), Hits: hits, Misses: misses, HitRate: rate}
}
