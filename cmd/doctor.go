package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kamusis/scout-cli/internal/config"
	"github.com/kamusis/scout-cli/internal/registry"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that scout's configuration, registry connection and local state are
healthy. Run this command when something seems wrong, or before filing a
bug report.`,
	RunE: runDoctor,
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the scout environment.

Currently fixes:
  - Orphaned lock files left by interrupted cache or session writes
  - A leftover .bak directory from an interrupted cache swap

Run 'scout doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	printSection("scout doctor")

	fmt.Println("\n[ Configuration ]")
	cfg, err := config.Load()
	if err != nil {
		printErr("", fmt.Sprintf("config: %v — run 'scout init'", err))
		return fmt.Errorf("doctor found problems")
	}
	path, _ := config.ConfigPath()
	printOK("", fmt.Sprintf("config readable: %s", path))
	baseURL, err := cfg.EffectiveRegistryURL()
	if err != nil || baseURL == "" {
		printErr("", "registry URL is not configured")
		return fmt.Errorf("doctor found problems")
	}
	printOK("", fmt.Sprintf("registry URL: %s", baseURL))

	fmt.Println("\n[ Registry ]")
	token, _ := config.GetConfigValue("SCOUT_REGISTRY_TOKEN")
	client := registry.NewHTTP(registry.HTTPConfig{BaseURL: baseURL, Token: token, Timeout: cfg.Timeout()})
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()
	if _, err := client.Browse(ctx, "", 1); err != nil {
		if errors.Is(err, registry.ErrUnavailable) {
			printWarn("", fmt.Sprintf("registry unreachable: %v", err))
		} else {
			printErr("", fmt.Sprintf("registry error: %v", err))
		}
	} else {
		printOK("", "registry reachable")
	}

	fmt.Println("\n[ Cache ]")
	cacheDir, err := config.CacheDir()
	if err != nil {
		return err
	}
	cache := registry.NewCache(cacheDir)
	if records, createdAt, err := cache.Load(); err != nil {
		printMiss("", "no popular-listing cache yet (populated by exploratory searches)")
	} else {
		age := "unknown age"
		if !createdAt.IsZero() {
			age = fmt.Sprintf("%.0fh old", time.Since(createdAt).Hours())
		}
		printOK("", fmt.Sprintf("cached listing: %d skills, %s", len(records), age))
	}
	for _, stray := range []string{cacheDir + ".lock", cacheDir + ".bak"} {
		if _, err := os.Stat(stray); err == nil {
			printWarn("", fmt.Sprintf("leftover %s — 'scout doctor fix' removes it", filepath.Base(stray)))
		}
	}

	fmt.Println("\n[ Sessions ]")
	sessionsDir, err := config.SessionsDir()
	if err != nil {
		return err
	}
	if info, err := os.Stat(sessionsDir); err != nil {
		printMiss("", fmt.Sprintf("sessions dir missing: %s — run 'scout init'", sessionsDir))
	} else if !info.IsDir() {
		printErr("", fmt.Sprintf("sessions path is not a directory: %s", sessionsDir))
	} else {
		printOK("", fmt.Sprintf("sessions dir: %s", sessionsDir))
	}

	return nil
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	printSection("scout doctor fix")

	cacheDir, err := config.CacheDir()
	if err != nil {
		return err
	}
	sessionsDir, err := config.SessionsDir()
	if err != nil {
		return err
	}

	var fixed int
	for _, stray := range []string{cacheDir + ".lock", cacheDir + ".bak"} {
		if _, err := os.Stat(stray); err != nil {
			continue
		}
		if err := os.RemoveAll(stray); err != nil {
			printErr("", fmt.Sprintf("cannot remove %s: %v", stray, err))
			continue
		}
		printOK("", fmt.Sprintf("removed %s", stray))
		fixed++
	}

	if entries, err := os.ReadDir(sessionsDir); err == nil {
		for _, de := range entries {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ".lock") {
				continue
			}
			p := filepath.Join(sessionsDir, de.Name())
			if err := os.Remove(p); err != nil {
				printErr("", fmt.Sprintf("cannot remove %s: %v", p, err))
				continue
			}
			printOK("", fmt.Sprintf("removed %s", p))
			fixed++
		}
	}

	if fixed == 0 {
		printOK("", "nothing to fix")
	}
	return nil
}
