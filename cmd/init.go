package cmd

import (
	"fmt"
	"os"

	"github.com/kamusis/scout-cli/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default scout configuration",
	Long: `Write ~/.scout/scout.yaml with defaults and a ~/.scout/.env template for
registry credentials. Existing files are left untouched.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	printSection("scout init")

	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		printInfo("", fmt.Sprintf("config already exists: %s", path))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat config %s: %w", path, err)
	} else {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", path))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	dotenv, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("dotenv template ready: %s", dotenv))

	sessionsDir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return fmt.Errorf("cannot create sessions dir %s: %w", sessionsDir, err)
	}
	printOK("", fmt.Sprintf("sessions dir ready: %s", sessionsDir))
	return nil
}
