// Package main provides the anybib CLI entry point.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// verbose enables debug logging
var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anybib",
	Short: "DOI ingestion for an Anytype knowledge base",
	Long: `anybib fetches bibliographic metadata for a DOI from Crossref,
generates a BibTeX entry, and files the reference into an Anytype space.

Existing objects that look like duplicates are detected before anything
is written; you decide interactively whether to reuse one, create a new
object, or abort.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = Version
}
