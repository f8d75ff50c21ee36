package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pysema/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pysema configuration",
	Long:  "Creates a .pysema/ directory with default configuration in the project root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	configPath := filepath.Join(root, ".pysema", "config.json")
	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		// Already initialized is success, CI reruns stay quiet.
		fmt.Println("pysema already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		fmt.Println("\nRun 'pysema init --force' to overwrite.")
		return nil
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(root); err != nil {
		return err
	}

	fmt.Println("Initialized pysema.")
	fmt.Printf("Configuration at: %s\n", configPath)
	return nil
}
