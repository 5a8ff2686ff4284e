package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janhq/knowledge-memory/internal/domain/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Create, inspect and update memories",
}

var memoryCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store a new memory",
	Args:  cobra.NoArgs,
	RunE:  runMemoryCreate,
}

var memoryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace or append content and replace tags",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryUpdate,
}

var memoryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryGet,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memories by path and tags, newest first",
	Args:  cobra.NoArgs,
	RunE:  runMemoryList,
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a memory",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryDelete,
}

var memoryAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Summarize memories, optionally grouped by path, tag or date",
	Args:  cobra.NoArgs,
	RunE:  runMemoryAnalytics,
}

var memorySyncCmd = &cobra.Command{
	Use:   "sync <dir>",
	Short: "Load memory files from a directory, embedding only new content",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemorySync,
}

func init() {
	memoryCmd.AddCommand(memoryCreateCmd)
	memoryCmd.AddCommand(memoryUpdateCmd)
	memoryCmd.AddCommand(memoryGetCmd)
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryAnalyticsCmd)
	memoryCmd.AddCommand(memorySyncCmd)

	memoryCreateCmd.Flags().String("path", "", "Hierarchical path of the memory")
	memoryCreateCmd.Flags().String("content", "", "Memory content")
	memoryCreateCmd.Flags().StringSlice("tag", nil, "Tag (repeatable)")
	memoryCreateCmd.Flags().String("context", "", "Extra text embedded with the content")
	_ = memoryCreateCmd.MarkFlagRequired("path")
	_ = memoryCreateCmd.MarkFlagRequired("content")

	memoryUpdateCmd.Flags().String("content", "", "New content")
	memoryUpdateCmd.Flags().Bool("append", false, "Append content instead of replacing it")
	memoryUpdateCmd.Flags().StringSlice("tag", nil, "Replacement tag set (repeatable)")

	memoryListCmd.Flags().String("path", "", "Exact path")
	memoryListCmd.Flags().StringSlice("tag", nil, "Required tag (repeatable)")
	memoryListCmd.Flags().Int("limit", 0, "Maximum number of memories")

	memoryAnalyticsCmd.Flags().String("group-by", "", "Grouping: path, tag or date")
}

func runMemoryCreate(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	path, _ := cmd.Flags().GetString("path")
	content, _ := cmd.Flags().GetString("content")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	extra, _ := cmd.Flags().GetString("context")

	m, err := rt.memoryService().Create(commandContext(cmd), memory.CreateInput{
		Path:    path,
		Content: content,
		Tags:    tags,
		Context: extra,
	})
	if err != nil {
		return err
	}
	return printResult(cmd, m)
}

func runMemoryUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	var in memory.UpdateInput
	if cmd.Flags().Changed("content") {
		content, _ := cmd.Flags().GetString("content")
		in.Content = &content
	}
	if cmd.Flags().Changed("tag") {
		tags, _ := cmd.Flags().GetStringSlice("tag")
		in.Tags = &tags
	}
	in.AppendContent, _ = cmd.Flags().GetBool("append")

	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := rt.memoryService().Update(commandContext(cmd), id, in)
	if err != nil {
		return err
	}
	return printResult(cmd, m)
}

func runMemoryGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	m, err := rt.memoryService().Get(commandContext(cmd), id)
	if err != nil {
		return err
	}
	return printResult(cmd, m)
}

func runMemoryList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	path, _ := cmd.Flags().GetString("path")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	memories, err := rt.memoryService().Retrieve(commandContext(cmd), memory.Filter{Path: path, Tags: tags, Limit: limit})
	if err != nil {
		return err
	}
	return printResult(cmd, memories)
}

func runMemoryDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.memoryService().Delete(commandContext(cmd), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted memory %d\n", id)
	return nil
}

func runMemoryAnalytics(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	groupBy, _ := cmd.Flags().GetString("group-by")
	analytics, err := rt.memoryService().Analytics(commandContext(cmd), memory.GroupBy(groupBy))
	if err != nil {
		return err
	}
	return printResult(cmd, analytics)
}

func runMemorySync(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.memorySyncService().Sync(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	return printResult(cmd, report)
}
