package main

import (
	"github.com/spf13/cobra"

	"github.com/janhq/knowledge-memory/internal/domain/search"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Query documents or memories",
	Long: `Runs one retrieval strategy:
  vector   cosine similarity above a threshold (embeds --text)
  tag      items carrying every --tag
  keyword  items whose content or path contains any keyword
  recency  memories ranked by similarity blended with recency`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("mode", string(search.ModeVector), "Strategy: vector, tag, keyword, recency")
	searchCmd.Flags().String("target", "", "documents or memories")
	searchCmd.Flags().String("text", "", "Query text")
	searchCmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	searchCmd.Flags().StringSlice("filter-tag", nil, "Vector search tag filter, any of (repeatable)")
	searchCmd.Flags().StringSlice("keyword", nil, "Keyword (repeatable)")
	searchCmd.Flags().Int("limit", 0, "Maximum number of results")
	searchCmd.Flags().Float64("threshold", search.DefaultThreshold, "Vector similarity threshold")
	searchCmd.Flags().Int("k", 0, "Number of ranked memories")
	searchCmd.Flags().Float64("recency-weight", search.DefaultRecencyWeight, "Weight of recency in [0,1]")
}

func runSearch(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	target, _ := cmd.Flags().GetString("target")
	text, _ := cmd.Flags().GetString("text")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	filterTags, _ := cmd.Flags().GetStringSlice("filter-tag")
	keywords, _ := cmd.Flags().GetStringSlice("keyword")
	limit, _ := cmd.Flags().GetInt("limit")
	k, _ := cmd.Flags().GetInt("k")

	q := search.Query{
		Target:     search.Target(target),
		Text:       text,
		Tags:       tags,
		Keywords:   keywords,
		Limit:      limit,
		FilterTags: filterTags,
		K:          k,
	}
	if cmd.Flags().Changed("threshold") {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		q.Threshold = &threshold
	}
	if cmd.Flags().Changed("recency-weight") {
		weight, _ := cmd.Flags().GetFloat64("recency-weight")
		q.RecencyWeight = &weight
	}

	rt, err := openRuntime(search.Mode(mode) == search.ModeVector || search.Mode(mode) == search.ModeRecency)
	if err != nil {
		return err
	}
	defer rt.Close()

	results, err := rt.searchEngine().Search(commandContext(cmd), search.Mode(mode), q)
	if err != nil {
		return err
	}
	return printResult(cmd, results)
}
