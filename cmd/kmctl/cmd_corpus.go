package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/janhq/knowledge-memory/internal/domain/document"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage document corpora",
}

var corpusCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a directory of documents as a corpus",
	Args:  cobra.NoArgs,
	RunE:  runCorpusCreate,
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List corpora",
	Args:  cobra.NoArgs,
	RunE:  runCorpusList,
}

var corpusSyncCmd = &cobra.Command{
	Use:   "sync <corpus-id>",
	Short: "Load new and changed documents of a corpus",
	Long: `Reads every document of the corpus, extracts tags, skips content that is
already stored and embeds the rest. Requires an embedding provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorpusSync,
}

func init() {
	corpusCmd.AddCommand(corpusCreateCmd)
	corpusCmd.AddCommand(corpusListCmd)
	corpusCmd.AddCommand(corpusSyncCmd)

	corpusCreateCmd.Flags().String("name", "", "Corpus name (unique)")
	corpusCreateCmd.Flags().String("root", "", "Directory holding the documents")
	corpusCreateCmd.Flags().String("kind", string(document.KindDirectory), "Source kind")
	_ = corpusCreateCmd.MarkFlagRequired("name")
	_ = corpusCreateCmd.MarkFlagRequired("root")
}

func runCorpusCreate(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	name, _ := cmd.Flags().GetString("name")
	root, _ := cmd.Flags().GetString("root")
	kind, _ := cmd.Flags().GetString("kind")

	corpus, err := rt.corpusService().Create(commandContext(cmd), document.CreateCorpusInput{
		Name: name,
		Kind: document.Kind(kind),
		Root: root,
	})
	if err != nil {
		return err
	}
	return printResult(cmd, corpus)
}

func runCorpusList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()

	corpora, err := rt.corpusService().List(commandContext(cmd))
	if err != nil {
		return err
	}
	return printResult(cmd, corpora)
}

func runCorpusSync(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	rt, err := openRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.syncService().Sync(commandContext(cmd), id)
	if err != nil {
		return err
	}
	return printResult(cmd, report)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
