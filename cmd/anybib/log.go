package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alberto/anybib/internal/history"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List past ingestions",
	Long:  "Log lists recent ingestions recorded in the local history database, newest first.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runLog()
	},
}

func init() {
	logCmd.Flags().IntVar(&logLimit, "limit", 20, "maximum number of entries to show")
	rootCmd.AddCommand(logCmd)
}

func runLog() {
	db, err := history.Open(history.DefaultPath())
	if err != nil {
		exitWith(ExitError, fmt.Errorf("opening history database: %w", err))
	}
	defer db.Close()

	entries, err := db.Recent(logLimit)
	if err != nil {
		exitWith(ExitDataError, fmt.Errorf("reading history: %w", err))
	}
	if len(entries) == 0 {
		fmt.Println("No ingestions recorded yet.")
		return
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-8s %s  %s",
			e.CreatedAt.Local().Format(time.DateTime), e.Action, e.CiteKey, e.DOI)
		if e.Title != "" {
			line += "  " + e.Title
		}
		if e.PDFAttached {
			line += "  [pdf]"
		}
		fmt.Println(line)
	}
}
