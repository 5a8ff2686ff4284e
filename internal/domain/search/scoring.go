package search

import (
	"math"
	"sort"
	"strings"
	"time"
)

// CosineSimilarity returns 1 - cosine distance. Vectors of different length or
// with zero norm have no defined direction and score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Recency decays with age in days: 1 / (1 + days). Timestamps in the future
// count as zero days old.
func Recency(createdAt, now time.Time) float64 {
	days := now.Sub(createdAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days)
}

// CombinedScore blends similarity and recency with weight w on recency. The
// similarity is clamped to [0,1] so the score stays within [0,1].
func CombinedScore(similarity, recency, w float64) float64 {
	return clamp01(similarity)*(1-w) + recency*w
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Intersects reports whether the two tag sets share at least one tag.
func Intersects(itemTags, filter []string) bool {
	for _, want := range filter {
		for _, tag := range itemTags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

// ContainsAll reports whether itemTags is a superset of tags.
func ContainsAll(itemTags, tags []string) bool {
	set := make(map[string]struct{}, len(itemTags))
	for _, tag := range itemTags {
		set[tag] = struct{}{}
	}
	for _, tag := range tags {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}

// MatchesAnyKeyword reports whether content or path contains one of the
// keywords, ignoring case.
func MatchesAnyKeyword(item Item, keywords []string) bool {
	content := strings.ToLower(item.Content)
	path := strings.ToLower(item.Path)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(content, kw) || strings.Contains(path, kw) {
			return true
		}
	}
	return false
}

// NormalizeKeywords trims keywords and drops blanks and duplicates. An empty
// keyword would match every item.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := strings.ToLower(kw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// ScoreByEmbedding scores candidates in insertion order and keeps those above
// the threshold, most similar first.
func ScoreByEmbedding(candidates []Item, vector []float32, opts VectorOptions) []Result {
	results := make([]Result, 0)
	for _, item := range candidates {
		if len(item.Embedding) == 0 {
			continue
		}
		if len(opts.Tags) > 0 && !Intersects(item.Tags, opts.Tags) {
			continue
		}
		similarity := CosineSimilarity(item.Embedding, vector)
		if similarity <= opts.Threshold {
			continue
		}
		results = append(results, Result{Item: item, Similarity: float64Ptr(similarity)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Similarity > *results[j].Similarity
	})
	return TopK(results, opts.Limit)
}

// FilterByTags keeps the candidates carrying every tag, newest first.
func FilterByTags(candidates []Item, tags []string, limit int) []Item {
	items := make([]Item, 0)
	for _, item := range candidates {
		if ContainsAll(item.Tags, tags) {
			items = append(items, item)
		}
	}
	sortNewestFirst(items)
	return topItems(items, limit)
}

// FilterByKeywords keeps the candidates matching any keyword, newest first.
func FilterByKeywords(candidates []Item, keywords []string, limit int) []Item {
	items := make([]Item, 0)
	seen := make(map[uint]struct{}, len(candidates))
	for _, item := range candidates {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		if MatchesAnyKeyword(item, keywords) {
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}
	}
	sortNewestFirst(items)
	return topItems(items, limit)
}

// RankByRelevance orders embedded memories by combined score. No threshold
// is applied.
func RankByRelevance(candidates []Item, vector []float32, opts RankOptions) []Result {
	results := make([]Result, 0, len(candidates))
	for _, item := range candidates {
		if len(item.Embedding) == 0 {
			continue
		}
		similarity := CosineSimilarity(item.Embedding, vector)
		recency := Recency(item.CreatedAt, opts.Now)
		score := CombinedScore(similarity, recency, opts.RecencyWeight)
		results = append(results, Result{
			Item:       item,
			Similarity: float64Ptr(similarity),
			Recency:    float64Ptr(recency),
			Score:      float64Ptr(score),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Score > *results[j].Score
	})
	return TopK(results, opts.K)
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func topItems(items []Item, limit int) []Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// TopK returns the first k results. A non-positive k keeps all of them.
func TopK(results []Result, k int) []Result {
	if k <= 0 || k > len(results) {
		return results
	}
	return results[:k]
}
