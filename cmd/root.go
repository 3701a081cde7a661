package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "scout",
	Short:        "Scout CLI — discover and rank installable AI-editor skills",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Scout classifies what you are looking for, queries the skill registry with
the matching search strategy, and returns a ranked, deduplicated short list.
Session state under ~/.scout/sessions/ keeps repeat suggestions out of the way.`,
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
