package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/diagnosis"
	"github.com/stridelabs/sleuth/internal/service"
)

var (
	diagnoseSnapshotFile     string
	diagnoseUserID           string
	diagnoseReferenceTime    string
	diagnoseCollectorsConfig string
	diagnoseJSON             bool
	// minAppVersion is shared with server.go
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run a one-shot diagnosis on a snapshot file",
	Long: `Run the full diagnosis pipeline against a device snapshot stored in a
YAML or JSON file and print the resulting report.

The reference time defaults to now. Pass an RFC3339 timestamp, unix
seconds, or a relative offset such as 'now-2h' to replay the snapshot
as if it had been diagnosed at that moment.`,
	Run: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseSnapshotFile, "snapshot", "", "Path to snapshot file, YAML or JSON (required)")
	diagnoseCmd.Flags().StringVar(&diagnoseUserID, "user-id", "cli", "User ID stamped on the report")
	diagnoseCmd.Flags().StringVar(&diagnoseReferenceTime, "reference-time", "", "Diagnose as of this time instead of now")
	diagnoseCmd.Flags().StringVar(&diagnoseCollectorsConfig, "collectors-config", "", "Optional per-collector settings YAML to apply")
	diagnoseCmd.Flags().StringVar(&minAppVersion, "min-app-version", "", "Minimum required tracking app version for snapshot validation (optional)")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "Output as JSON")

	diagnoseCmd.MarkFlagRequired("snapshot")
}

func runDiagnose(cmd *cobra.Command, args []string) {
	if err := setupLog(logLevelFlags); err != nil {
		HandleError(err, "Failed to setup logging")
	}

	snap, err := collect.LoadSnapshot(diagnoseSnapshotFile)
	if err != nil {
		HandleError(err, "Failed to load snapshot")
	}

	at, err := collect.ParseOptionalReferenceTime(diagnoseReferenceTime)
	if err != nil {
		HandleError(err, "Invalid reference time")
	}

	runner := collect.NewRunner()
	diagnostician, err := service.NewDiagnostician(runner, service.Options{
		MinAppVersion:  minAppVersion,
		CollectorsPath: diagnoseCollectorsConfig,
	})
	if err != nil {
		HandleError(err, "Failed to create diagnostician")
	}

	ctx := context.Background()
	if err := diagnostician.Start(ctx); err != nil {
		HandleError(err, "Failed to apply collectors config")
	}
	defer func() {
		_ = diagnostician.Stop(ctx)
	}()

	report, err := diagnostician.Diagnose(ctx, diagnoseUserID, snap, at)
	if err != nil {
		HandleError(err, "Diagnosis failed")
	}

	if diagnoseJSON {
		printReportJSON(report)
	} else {
		printReportSummary(report)
	}
}

func printReportJSON(report *diagnosis.Report) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		HandleError(err, "Failed to encode JSON")
	}
}

func printReportSummary(report *diagnosis.Report) {
	fmt.Println("=== Diagnosis Report ===")
	fmt.Printf("User:              %s\n", report.UserID)
	fmt.Printf("Platform:          %s\n", report.Platform)
	fmt.Printf("Generated:         %s\n", report.Metadata.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Algorithm:         %s\n", report.Metadata.AlgorithmVersion)
	fmt.Printf("Issues Evaluated:  %d\n", report.Metadata.IssuesEvaluated)
	fmt.Printf("Causal Links:      %d\n", report.Metadata.LinksFound)
	fmt.Printf("Confidence:        %.3f\n\n", report.OverallConfidence)

	if report.Primary == nil {
		fmt.Println("No issues detected. The tracking pipeline looks healthy.")
		return
	}

	fmt.Println("=== Primary Issue ===")
	fmt.Printf("Kind:        %s\n", report.Primary.Kind)
	fmt.Printf("Title:       %s\n", report.Primary.Title)
	if report.Primary.Detail != "" {
		fmt.Printf("Detail:      %s\n", report.Primary.Detail)
	}
	fmt.Printf("Confidence:  %.3f\n", report.Primary.Confidence)
	if report.Primary.SuggestedFix != "" {
		fmt.Printf("Fix:         %s\n", report.Primary.SuggestedFix)
	}

	if len(report.Secondary) > 0 {
		fmt.Println("\n=== Secondary Issues ===")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Kind\tConfidence\tTitle")
		for _, sec := range report.Secondary {
			fmt.Fprintf(w, "%s\t%.3f\t%s\n", sec.Kind, sec.Confidence, sec.Title)
		}
		w.Flush()
	}

	if len(report.Links) > 0 {
		fmt.Println("\n=== Causal Links ===")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Cause\tEffect\tConfidence")
		for _, link := range report.Links {
			fmt.Fprintf(w, "%s\t%s\t%.3f\n", link.Cause, link.Effect, link.Confidence)
		}
		w.Flush()
	}

	if report.Narrative.Text != "" {
		fmt.Println("\n=== Summary ===")
		fmt.Println(report.Narrative.Text)
	}
}
