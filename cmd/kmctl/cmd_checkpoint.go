package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect conversation threads",
}

var checkpointGetCmd = &cobra.Command{
	Use:   "get <thread-key>",
	Short: "Show the checkpoint rebuilt from a thread's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointGet,
}

var checkpointHistoryCmd = &cobra.Command{
	Use:   "history <thread-key>",
	Short: "List the messages of a thread, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointHistory,
}

func init() {
	checkpointCmd.AddCommand(checkpointGetCmd)
	checkpointCmd.AddCommand(checkpointHistoryCmd)

	checkpointHistoryCmd.Flags().Int("limit", 0, "Maximum number of messages")
}

func runCheckpointGet(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	checkpoint, err := rt.conversationStore().GetCheckpoint(commandContext(cmd), args[0])
	if err != nil {
		return err
	}
	if checkpoint == nil {
		return fmt.Errorf("thread %q has no checkpoint", args[0])
	}
	return printResult(cmd, checkpoint)
}

func runCheckpointHistory(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	messages, err := rt.conversationStore().History(commandContext(cmd), args[0], limit)
	if err != nil {
		return err
	}
	return printResult(cmd, messages)
}
