package cmd

import (
	"log"
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var findQuery string

func init() {
	collegesCmd.Flags().StringVar(
		&findQuery, "find", "",
		"rank colleges by similarity to this name instead of listing in portal order",
	)
	rootCmd.AddCommand(collegesCmd)
}

var collegesCmd = &cobra.Command{
	Use:   "colleges",
	Short: "Prints the colleges the portal currently offers, with their lookup ids.",
	Run: func(cmd *cobra.Command, args []string) {
		colleges, _, err := portal.FetchCollegesAndToken(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		if findQuery != "" {
			sort.SliceStable(colleges, func(i, j int) bool {
				return matchr.JaroWinkler(findQuery, colleges[i].DisplayName, false) >
					matchr.JaroWinkler(findQuery, colleges[j].DisplayName, false)
			})
		}

		t := newTable()
		t.AppendHeader(table.Row{"ID", "College"})
		for _, college := range colleges {
			t.AppendRow(table.Row{college.ID, college.DisplayName})
		}
		t.Render()
	},
}
