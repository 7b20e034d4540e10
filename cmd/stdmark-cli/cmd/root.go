package cmd

import (
	"fmt"
	"os"

	"stdmark-backend/lib/serviceutil"
	"stdmark-backend/services/scraper"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	baseURL       string
	resultURL     string
	selectorsFile string
)

var portal *scraper.Client

var rootCmd = &cobra.Command{
	Use:   "stdmark-cli",
	Short: "stdmark-cli queries the university result portal from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		serviceutil.InitSlog(false)

		client, err := scraper.NewClient(scraper.Options{
			BaseURL:       baseURL,
			ResultURL:     resultURL,
			SelectorsFile: selectorsFile,
		})
		if err != nil {
			return err
		}
		portal = client
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&baseURL, "base-url",
		"http://app.hama-univ.edu.sy/StdMark/",
		"portal landing page url",
	)
	rootCmd.PersistentFlags().StringVar(
		&resultURL, "result-url",
		"http://app.hama-univ.edu.sy/StdMark/Home/Result",
		"portal result lookup url",
	)
	rootCmd.PersistentFlags().StringVar(
		&selectorsFile, "selectors",
		"selectors.json5",
		"path to the css selector table",
	)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
