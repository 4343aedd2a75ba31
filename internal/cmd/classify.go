package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Show how a message is normalized and which topic it maps to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildComponents(false)
		if err != nil {
			return err
		}

		normalized := c.normalizer.Normalize(strings.Join(args, " "))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Normalized: %s\n", normalized)

		topic, ok := c.classifier.Classify(normalized)
		if !ok {
			fmt.Fprintln(out, "Topic: none")
			return nil
		}
		fmt.Fprintf(out, "Topic: %s (%s)\n", topic, c.table.Title(topic, cfg.Language))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
