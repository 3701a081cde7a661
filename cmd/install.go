package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kamusis/scout-cli/internal/config"
	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <@owner/repo/name>",
	Short: "Install a skill via the configured installer",
	Long: `Validate a skill identifier and hand it to the external installer
configured as installer_cmd in ~/.scout/scout.yaml. Scout itself never
writes skill files; it only validates the identifier before the hand-off.`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(_ *cobra.Command, args []string) error {
	// Validate before any installation attempt.
	id, err := registry.ParseIdentifier(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'scout init' first.", err)
	}
	installer := strings.Fields(cfg.InstallerCmd)
	if len(installer) == 0 {
		return fmt.Errorf("no installer configured (set installer_cmd in scout.yaml)")
	}
	if _, err := exec.LookPath(installer[0]); err != nil {
		return fmt.Errorf("installer %q is not installed or not on PATH", installer[0])
	}

	printInfo("", fmt.Sprintf("installing %s via %s", id.Handle(), installer[0]))
	c := exec.Command(installer[0], append(installer[1:], id.Handle())...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("installer failed for %s: %w", id.Handle(), err)
	}
	printOK("", fmt.Sprintf("installed %s", id.Handle()))
	return nil
}
