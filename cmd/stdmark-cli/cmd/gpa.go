package cmd

import (
	"fmt"
	"log"

	"stdmark-backend/lib/browse"

	"github.com/spf13/cobra"
)

var year string

func init() {
	gpaCmd.Flags().StringVar(
		&year, "year", "all",
		"study year to average (1-6, or all)",
	)
	rootCmd.AddCommand(gpaCmd)
}

var gpaCmd = &cobra.Command{
	Use:   "gpa <college-id> <university-id>",
	Short: "Prints a student's mark average, over everything or one study year.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		_, token, err := portal.FetchCollegesAndToken(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}
		data, err := portal.FetchStudentData(cmd.Context(), args[0], args[1], token)
		if err != nil {
			log.Fatal(err)
		}

		session := browse.NewSession(data.Info, args[1], data.Marks, browse.DefaultPageSize)
		result, err := session.GPAForYear(year)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(result)
	},
}
