package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAnnotateCommand() *cobra.Command {
	var (
		url       string
		hardWords bool
	)
	command := &cobra.Command{
		Use:   "annotate",
		Short: "Fetch an article and print its annotated HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				return fmt.Errorf("please provide --url")
			}
			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.articles.Fetch(cmd.Context(), url)
			if err != nil {
				return err
			}

			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "Article: %s\n", res.ArticleID)
			fmt.Fprintf(errOut, "Title: %s\n", res.Title)
			fmt.Fprintf(errOut, "Language: %s\n", res.Language)

			out := cmd.OutOrStdout()
			if hardWords {
				if len(res.HardWords) == 0 {
					fmt.Fprintln(out, "No hard words found.")
					return nil
				}
				highlight := color.New(color.FgRed, color.Bold)
				fmt.Fprintf(out, "%d hard words:\n", len(res.HardWords))
				for _, w := range res.HardWords {
					highlight.Fprintln(out, "  "+w)
				}
				return nil
			}
			fmt.Fprintln(out, strings.TrimSpace(res.HTML))
			return nil
		},
	}
	command.Flags().StringVar(&url, "url", "", "URL to process")
	command.Flags().BoolVar(&hardWords, "hard-words", false, "print the detected hard words instead of the HTML")
	return command
}
