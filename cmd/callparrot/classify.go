package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/callparrot/plugin/ai/router"
)

func newClassifyCmd() *cobra.Command {
	var hasContact bool

	cmd := &cobra.Command{
		Use:   "classify <utterance>...",
		Short: "Show the intent and rule an utterance is routed by",
		Example: `  callparrot classify "book a call next friday"
  callparrot classify --has-contact "please update my email to a@b.co"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent, rule := router.Explain(strings.Join(args, " "), hasContact)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", intent, rule)
			return err
		},
	}

	cmd.Flags().BoolVar(&hasContact, "has-contact", false, "classify as if contact details were already collected")
	return cmd
}
