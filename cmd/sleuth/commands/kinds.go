package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stridelabs/sleuth/internal/issue"
)

var kindsJSON bool

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the issue kinds Sleuth can diagnose",
	Long: `Print the catalog of issue kinds with the criticality, actionability,
and impact weights the ranking uses.`,
	Run: runKinds,
}

func init() {
	kindsCmd.Flags().BoolVar(&kindsJSON, "json", false, "Output as JSON")
}

func runKinds(cmd *cobra.Command, args []string) {
	if kindsJSON {
		printKindsJSON()
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Kind\tCriticality\tActionability\tImpact\tTitle")
	for _, kind := range issue.AllKinds() {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\t%s\n",
			kind,
			issue.Criticality(kind),
			issue.Actionability(kind),
			issue.Impact(kind),
			issue.Title(kind))
	}
	w.Flush()
}

func printKindsJSON() {
	type kindEntry struct {
		Kind          issue.Kind `json:"kind"`
		Title         string     `json:"title"`
		Criticality   float64    `json:"criticality"`
		Actionability float64    `json:"actionability"`
		Impact        string     `json:"impact"`
		SuggestedFix  string     `json:"suggested_fix"`
	}

	entries := make([]kindEntry, 0, len(issue.AllKinds()))
	for _, kind := range issue.AllKinds() {
		entries = append(entries, kindEntry{
			Kind:          kind,
			Title:         issue.Title(kind),
			Criticality:   issue.Criticality(kind),
			Actionability: issue.Actionability(kind),
			Impact:        issue.Impact(kind),
			SuggestedFix:  issue.SuggestedFix(kind),
		})
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		HandleError(err, "Failed to encode JSON")
	}
}
