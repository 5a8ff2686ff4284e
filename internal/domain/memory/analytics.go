package memory

import (
	"sort"
	"time"
)

// Aggregate groups rows. Groups are ordered by count descending, then by
// name; dates are ordered most recent first.
func Aggregate(rows []AnalyticsRow, groupBy GroupBy) *Analytics {
	result := &Analytics{GroupBy: groupBy}
	switch groupBy {
	case GroupByPath:
		result.Paths = groupByPath(rows)
	case GroupByTag:
		result.Tags = groupByTag(rows)
	case GroupByDate:
		result.Dates = groupByDate(rows)
	default:
		result.Summary = summarize(rows)
	}
	return result
}

func summarize(rows []AnalyticsRow) *Summary {
	summary := &Summary{TotalMemories: len(rows)}
	paths := make(map[string]struct{})
	tags := make(map[string]struct{})

	for _, row := range rows {
		paths[row.Path] = struct{}{}
		for _, tag := range row.Tags {
			tags[tag] = struct{}{}
		}
		createdAt := row.CreatedAt
		if summary.Oldest == nil || createdAt.Before(*summary.Oldest) {
			summary.Oldest = &createdAt
		}
		if summary.Newest == nil || createdAt.After(*summary.Newest) {
			summary.Newest = &createdAt
		}
	}

	summary.UniquePaths = len(paths)
	summary.UniqueTags = len(tags)
	return summary
}

func groupByPath(rows []AnalyticsRow) []PathGroup {
	index := make(map[string]int)
	groups := make([]PathGroup, 0)
	tagSets := make([]map[string]struct{}, 0)

	for _, row := range rows {
		i, ok := index[row.Path]
		if !ok {
			i = len(groups)
			index[row.Path] = i
			groups = append(groups, PathGroup{Path: row.Path})
			tagSets = append(tagSets, make(map[string]struct{}))
		}
		groups[i].Count++
		if row.UpdatedAt.After(groups[i].LastUpdated) {
			groups[i].LastUpdated = row.UpdatedAt
		}
		for _, tag := range row.Tags {
			tagSets[i][tag] = struct{}{}
		}
	}

	for i := range groups {
		groups[i].Tags = sortedKeys(tagSets[i])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Path < groups[j].Path
	})
	return groups
}

func groupByTag(rows []AnalyticsRow) []TagGroup {
	counts := make(map[string]int)
	for _, row := range rows {
		for _, tag := range row.Tags {
			counts[tag]++
		}
	}

	groups := make([]TagGroup, 0, len(counts))
	for tag, count := range counts {
		groups = append(groups, TagGroup{Tag: tag, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Tag < groups[j].Tag
	})
	return groups
}

func groupByDate(rows []AnalyticsRow) []DateGroup {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.CreatedAt.UTC().Format(time.DateOnly)]++
	}

	groups := make([]DateGroup, 0, len(counts))
	for date, count := range counts {
		groups = append(groups, DateGroup{Date: date, Count: count})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
