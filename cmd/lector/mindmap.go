package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMindmapCommand() *cobra.Command {
	var (
		articleID string
		language  string
	)
	command := &cobra.Command{
		Use:   "mindmap",
		Short: "Print the mindmap of a stored article as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if articleID == "" {
				return fmt.Errorf("please provide --article-id")
			}
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.mindmaps.GetMindmap(cmd.Context(), articleID, language)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(m.Root); err != nil {
				return fmt.Errorf("yaml.Encode > %w", err)
			}
			return enc.Close()
		},
	}
	command.Flags().StringVar(&articleID, "article-id", "", "id returned by annotate or /article/fetch")
	command.Flags().StringVar(&language, "language", "", "target language (default: locale)")
	return command
}
