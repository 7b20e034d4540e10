package cmd

import (
	"fmt"
	"log"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <college-id> <university-id>",
	Short: "Fetches and prints a student's full result sheet.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		collegeID := args[0]
		universityID := args[1]

		_, token, err := portal.FetchCollegesAndToken(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		data, err := portal.FetchStudentData(cmd.Context(), collegeID, universityID, token)
		if err != nil {
			log.Fatal(err)
		}

		if data.Info.Name != "" {
			fmt.Printf("%s (%s)\n", data.Info.Name, data.Info.CollegeName)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Subject", "Session", "Mark", "Status", "Date", "Semester"})
		for _, m := range data.Marks {
			t.AppendRow(table.Row{m.Subject, m.Session, m.Mark, m.Status, m.Date, m.Semester})
		}
		t.Render()
	},
}
