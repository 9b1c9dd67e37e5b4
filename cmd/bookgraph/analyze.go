package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/bookgraph/bookgraph/entity"
	"github.com/bookgraph/bookgraph/ontology"
	"github.com/bookgraph/bookgraph/relation"
)

var (
	analyzeReport string
	analyzeXLSX   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a book file and print ontology statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.AnalyzeFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printStats(res.Name, res.Ontology, res.SkippedMentions, res.Elapsed)
		if res.AnalysisID != 0 {
			fmt.Printf("Saved as analysis #%d\n", res.AnalysisID)
		}

		if analyzeReport != "" {
			f, err := os.Create(analyzeReport)
			if err != nil {
				return fmt.Errorf("creating report file: %w", err)
			}
			if err := ontology.WriteReport(f, res.Ontology); err != nil {
				f.Close()
				return fmt.Errorf("writing report: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", analyzeReport)
		}

		if analyzeXLSX != "" {
			if err := ontology.ExportXLSX(analyzeXLSX, res.Ontology); err != nil {
				return fmt.Errorf("exporting workbook: %w", err)
			}
			fmt.Printf("Workbook written to %s\n", analyzeXLSX)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeReport, "report", "", "write a plain-text report to this path")
	analyzeCmd.Flags().StringVar(&analyzeXLSX, "xlsx", "", "export the ontology as an XLSX workbook to this path")
	rootCmd.AddCommand(analyzeCmd)
}

func printStats(name string, o *ontology.Ontology, skipped int, elapsed time.Duration) {
	stats := o.Stats()
	fmt.Printf("Analysis of %s\n", name)
	fmt.Printf("  Entities:  %d", stats.TotalEntities)
	if len(stats.EntityKinds) > 0 {
		kinds := make([]entity.Kind, 0, len(stats.EntityKinds))
		for k := range stats.EntityKinds {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		fmt.Print(" (")
		for i, kind := range kinds {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Printf("%s: %d", kind, stats.EntityKinds[kind])
		}
		fmt.Print(")")
	}
	fmt.Println()
	fmt.Printf("  Relations: %d\n", stats.TotalRelations)
	types := make([]relation.Type, 0, len(stats.RelationTypes))
	for t := range stats.RelationTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, typ := range types {
		fmt.Printf("    %-14s %d\n", typ, stats.RelationTypes[typ])
	}
	if skipped > 0 {
		fmt.Printf("  Skipped mentions: %d\n", skipped)
	}
	fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
}
