package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/kamusis/scout-cli/internal/config"
	"github.com/kamusis/scout-cli/internal/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage discovery sessions",
	Long: `Sessions remember which skills scout has already suggested, so repeated
'scout discover --session <id>' calls surface new results instead of the
same ones. Session files live under ~/.scout/sessions/.`,
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new session and print its ID",
	RunE:  runSessionNew,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions and how many skills each has surfaced",
	RunE:  runSessionList,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Terminate a session and forget its surfaced skills",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionNew(_ *cobra.Command, _ []string) error {
	dir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create sessions dir %s: %w", dir, err)
	}

	id := uuid.NewString()
	// An empty session file marks the session as existing.
	f, err := os.OpenFile(session.FilePath(dir, id), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot create session file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runSessionList(_ *cobra.Command, _ []string) error {
	dir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	sessions, err := session.List(dir)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		printMiss("", "no sessions — create one with 'scout session new'")
		return nil
	}

	ids := make([]string, 0, len(sessions))
	for id := range sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\t%d surfaced\n", id, sessions[id])
	}
	return w.Flush()
}

func runSessionClear(_ *cobra.Command, args []string) error {
	dir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	if err := session.Remove(dir, args[0]); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("session %s cleared", args[0]))
	return nil
}
