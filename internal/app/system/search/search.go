// Package search ranks directory records against a free-text query using
// field-weighted, tiered matching. Ranking is purely in-memory: callers pass
// the candidate list (typically everything the cache returned) and get back
// a scored, ordered slice.
package search

import (
	"sort"
	"strings"

	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// Match tiers. A field contributes its tier score times the field weight;
// the tiers and thresholds are part of the public contract (the UI keys
// affordances off IsExact/IsHighRelevance).
const (
	MatchExact    = 1.0
	MatchPrefix   = 0.8
	MatchContains = 0.5

	// DefaultLimit caps result lists when the caller passes limit <= 0.
	DefaultLimit = 100

	exactThreshold         = 1.0
	highRelevanceThreshold = 0.7
)

// Field weights for filter "all". A strong match on any single field should
// surface the record, so the final score is the maximum weighted field
// score, never a sum or average.
const (
	weightName       = 1.0
	weightID         = 0.95
	weightMobile     = 0.9
	weightRank       = 0.7
	weightStation    = 0.6
	weightDistrict   = 0.5
	weightMetal      = 0.6
	weightBloodGroup = 0.4
)

// Field is one searchable attribute of a record: a filter name plus the
// values it matches against (mobile has two values, everything else one).
type Field struct {
	Name   string
	Weight float64
	Values []string
}

// Result pairs an item with its relevance score.
type Result[T any] struct {
	Item          T
	Score         float64
	MatchedFields []string
}

// IsExact reports whether the result matched a full field exactly.
func (r Result[T]) IsExact() bool { return r.Score >= exactThreshold }

// IsHighRelevance reports whether the result is strong enough for
// highlighted display.
func (r Result[T]) IsHighRelevance() bool { return r.Score >= highRelevanceThreshold }

// Rank scores items against query. filter selects a single field by name,
// or "all" (or "") to take the best weighted match across every field.
// An empty query returns every item with score 1.0 in input order.
func Rank[T any](items []T, query, filter string, limit int, fieldsOf func(T) []Field) []Result[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		results := make([]Result[T], 0, len(items))
		for _, it := range items {
			results = append(results, Result[T]{Item: it, Score: 1.0})
		}
		if len(results) > limit {
			results = results[:limit]
		}
		return results
	}

	filter = strings.ToLower(strings.TrimSpace(filter))
	var results []Result[T]
	for _, it := range items {
		score, matched := scoreFields(fieldsOf(it), query, filter)
		if score > 0 {
			results = append(results, Result[T]{Item: it, Score: score, MatchedFields: matched})
		}
	}

	// Stable sort keeps input order for equal scores.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func scoreFields(fields []Field, query, filter string) (float64, []string) {
	all := filter == "" || filter == "all"
	best := 0.0
	var matched []string
	for _, f := range fields {
		if !all && f.Name != filter {
			continue
		}
		tier := tierScore(f.Values, query)
		if tier <= 0 {
			continue
		}
		matched = append(matched, f.Name)
		if s := tier * f.Weight; s > best {
			best = s
		}
	}
	return best, matched
}

func tierScore(values []string, query string) float64 {
	best := 0.0
	for _, v := range values {
		v = strings.ToLower(v)
		var s float64
		switch {
		case v == "":
			continue
		case v == query:
			s = MatchExact
		case strings.HasPrefix(v, query):
			s = MatchPrefix
		case strings.Contains(v, query):
			s = MatchContains
		}
		if s > best {
			best = s
		}
	}
	return best
}

// Employees ranks employee records. Filter names: name, kgid, mobile, rank,
// station, district, metalNumber, bloodGroup, or "all".
func Employees(items []models.Employee, query, filter string, limit int) []Result[models.Employee] {
	return Rank(items, query, filter, limit, func(e models.Employee) []Field {
		return []Field{
			{Name: "name", Weight: weightName, Values: []string{e.Name}},
			{Name: "kgid", Weight: weightID, Values: []string{e.KGID}},
			{Name: "mobile", Weight: weightMobile, Values: []string{e.Mobile1, e.Mobile2}},
			{Name: "rank", Weight: weightRank, Values: []string{e.Rank}},
			{Name: "station", Weight: weightStation, Values: []string{e.Station}},
			{Name: "district", Weight: weightDistrict, Values: []string{e.District}},
			{Name: "metalNumber", Weight: weightMetal, Values: []string{e.MetalNumber}},
			{Name: "bloodGroup", Weight: weightBloodGroup, Values: []string{e.BloodGroup}},
		}
	})
}

// Officers ranks officer contacts. Filter names: name, agid, mobile, rank,
// station, district, or "all".
func Officers(items []models.Officer, query, filter string, limit int) []Result[models.Officer] {
	return Rank(items, query, filter, limit, func(o models.Officer) []Field {
		return []Field{
			{Name: "name", Weight: weightName, Values: []string{o.Name}},
			{Name: "agid", Weight: weightID, Values: []string{o.AGID}},
			{Name: "mobile", Weight: weightMobile, Values: []string{o.Mobile, o.Landline}},
			{Name: "rank", Weight: weightRank, Values: []string{o.Rank}},
			{Name: "station", Weight: weightStation, Values: []string{o.Station}},
			{Name: "district", Weight: weightDistrict, Values: []string{o.District}},
		}
	})
}
