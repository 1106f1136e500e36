// Package main implements the autodoc CLI, which generates an AI-written
// documentation site for a git repository.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the YAML config file, empty for the default location.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "autodoc",
	Short: "AI documentation generator for git repositories",
	Long: `autodoc clones a repository, summarizes its code with an LLM and
builds a multi-language Docusaurus site from the results.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/autodoc/config.yaml)")
	rootCmd.AddCommand(generateCmd)
}
