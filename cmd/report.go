package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/srujanlakku/ai-interview-agent/internal/archive"
	"github.com/srujanlakku/ai-interview-agent/internal/logger"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "List archived interview reports, or show one with --session",
	Run: func(cmd *cobra.Command, _ []string) {
		report(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("session", "s", "", "show the full report for the given session id")
	reportCmd.Flags().StringP("archive-file", "a", "interviews.db", "sqlite file with archived reports")
}

func report(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	path := cmd.Flag("archive-file").Value.String()

	store, err := archive.Open(path)
	if err != nil {
		logger.Fatal("opening the archive", zap.String("path", path), zap.Error(err))
	}
	defer store.Close()

	sessionID := cmd.Flag("session").Value.String()
	if sessionID != "" {
		showReport(ctx, store, sessionID, logger)
		return
	}

	entries, err := store.List(ctx)
	if err != nil {
		logger.Fatal("listing reports", zap.Error(err))
	}

	if len(entries) == 0 {
		logger.Info("no archived reports", zap.String("path", path))
		return
	}

	for _, entry := range entries {
		fmt.Printf("%s  %-16s  %-22s  %.1f/10  %s\n",
			entry.CompletedAt.Format("2006-01-02 15:04"),
			entry.Readiness,
			entry.Role,
			entry.OverallScore,
			entry.SessionID,
		)
	}
}

func showReport(ctx context.Context, store *archive.Store, sessionID string, logger *zap.Logger) {
	full, err := store.Get(ctx, sessionID)
	if err != nil {
		logger.Fatal("loading report", zap.String("session_id", sessionID), zap.Error(err))
	}

	pretty, err := json.MarshalIndent(full, "", "  ")
	if err != nil {
		logger.Fatal("encoding report", zap.Error(err))
	}

	fmt.Println(string(pretty))
}
