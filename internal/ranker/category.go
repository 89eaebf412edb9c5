package ranker

import (
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/keyscope/internal/store"
)

// CategorySet maintains one Ranker per category over the same candidate
// stream that feeds a global ranker. Categories are the candidate's
// type tag and, when a prefix delimiter is configured, its first key
// segment. Iteration order is the order categories were first seen,
// which keeps rendered breakdowns stable within a run.
type CategorySet struct {
	capacity  int
	delimiter string
	rankers   *orderedmap.OrderedMap[string, *Ranker]
}

// NewCategorySet creates a CategorySet whose per-category rankers all
// share the given capacity. An empty delimiter disables prefix buckets.
func NewCategorySet(capacity int, delimiter string) *CategorySet {
	return &CategorySet{
		capacity:  capacity,
		delimiter: delimiter,
		rankers:   orderedmap.NewOrderedMap[string, *Ranker](),
	}
}

// Offer routes a candidate into its type ranking and, if prefix
// buckets are enabled, its prefix ranking.
func (cs *CategorySet) Offer(c Candidate) {
	cs.ranker(typeCategory(c.Type)).Offer(c)

	if cs.delimiter != "" {
		if prefix, ok := keyPrefix(c.Key, cs.delimiter); ok {
			cs.ranker(prefixCategory(prefix)).Offer(c)
		}
	}
}

// Categories returns the category names in first-seen order.
func (cs *CategorySet) Categories() []string {
	return cs.rankers.Keys()
}

// Entries returns the ranking for one category, nil if unknown.
func (cs *CategorySet) Entries(category string) []Entry {
	r, ok := cs.rankers.Get(category)
	if !ok {
		return nil
	}
	return r.Entries()
}

// MergeInto re-offers every held entry of every category into dst,
// creating dst categories as needed.
func (cs *CategorySet) MergeInto(dst *CategorySet) {
	for el := cs.rankers.Front(); el != nil; el = el.Next() {
		Merge(dst.ranker(el.Key), el.Value)
	}
}

func (cs *CategorySet) ranker(category string) *Ranker {
	if r, ok := cs.rankers.Get(category); ok {
		return r
	}
	r := New(cs.capacity)
	cs.rankers.Set(category, r)
	return r
}

func typeCategory(t store.KeyType) string {
	return "type:" + string(t)
}

func prefixCategory(prefix string) string {
	return "prefix:" + prefix
}

// keyPrefix extracts the first delimiter-separated segment of a key.
// Keys without the delimiter carry no prefix bucket.
func keyPrefix(key, delimiter string) (string, bool) {
	idx := strings.Index(key, delimiter)
	if idx <= 0 {
		return "", false
	}
	return key[:idx], true
}
