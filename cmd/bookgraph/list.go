package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		analyses, err := eng.Analyses(cmd.Context())
		if err != nil {
			return err
		}
		if len(analyses) == 0 {
			fmt.Println("no stored analyses")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tENTITIES\tRELATIONS\tCREATED")
		for _, a := range analyses {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n",
				a.ID, a.Name, a.TotalEntities, a.TotalRelations, a.CreatedAt)
		}
		return tw.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored analysis and its entities and relations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid analysis id %q", args[0])
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if err := eng.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("deleted analysis #%d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}
