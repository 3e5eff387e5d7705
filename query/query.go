// Package query remembers search queries and suggests them back.
package query

import (
	"slices"
	"strings"
	"sync"

	"github.com/anisan-cli/modhost/filesystem"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type record struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
}

// History is a persistent ranked list of queries, kept per module.
type History struct {
	mu    sync.Mutex
	cache *gache.Cache[map[string]map[string]*record]
}

// New opens the history stored at path.
func New(path string) *History {
	return &History{
		cache: gache.New[map[string]map[string]*record](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (h *History) load() map[string]map[string]*record {
	cached, expired, err := h.cache.Get()
	if expired || err != nil || cached == nil {
		return make(map[string]map[string]*record)
	}
	return cached
}

// Remember records q for a module, raising its rank by weight if already known.
func (h *History) Remember(moduleID, q string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	all := h.load()
	records, ok := all[moduleID]
	if !ok {
		records = make(map[string]*record)
		all[moduleID] = records
	}

	if r, ok := records[q]; ok {
		r.Rank += weight
	} else {
		records[q] = &record{Rank: weight, Query: q}
	}

	return h.cache.Set(all)
}

// Suggest returns the best ranked query matching q.
func (h *History) Suggest(moduleID, q string) mo.Option[string] {
	suggestions := h.SuggestMany(moduleID, q)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns every remembered query fuzzily matching q, best ranked first.
func (h *History) SuggestMany(moduleID, q string) []string {
	q = sanitize(q)

	h.mu.Lock()
	records := lo.Values(h.load()[moduleID])
	h.mu.Unlock()

	records = lo.Filter(records, func(r *record, _ int) bool {
		return fuzzy.Match(q, r.Query)
	})

	slices.SortFunc(records, func(a, b *record) int {
		if a.Rank != b.Rank {
			return b.Rank - a.Rank
		}
		return strings.Compare(a.Query, b.Query)
	})

	return lo.Map(records, func(r *record, _ int) string {
		return r.Query
	})
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
