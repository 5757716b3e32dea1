package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reportmailer/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config into the data directory",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir := dataDir()
	path := filepath.Join(dir, config.FileName)

	if _, err := os.Stat(path); err == nil {
		if !initForce {
			return fmt.Errorf("%s already exists; use --force to overwrite", path)
		}
		// keep the old file next to the new one
		if err := os.Rename(path, path+".bak"); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if _, err := config.EnsureUserConfig(dir, seedConfigPath); err != nil {
		return err
	}
	cmd.Printf("Wrote %s\n", path)
	cmd.Println("Next: set email.recipients, then add the EMAIL_USERNAME and EMAIL_PASSWORD secrets.")
	return nil
}
