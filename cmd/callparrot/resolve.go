package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrygo/callparrot/plugin/ai/aitime"
)

func newResolveCmd(c *cli) *cobra.Command {
	var nowFlag string

	cmd := &cobra.Command{
		Use:   "resolve <expression>...",
		Short: "Resolve a date expression the way the scheduler does",
		Example: `  callparrot resolve next friday
  callparrot resolve --now 2026-11-10 12/25`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := aitime.LoadLocation(c.profile.Timezone)
			if err != nil {
				return err
			}
			now, err := parseNow(nowFlag, loc)
			if err != nil {
				return err
			}

			expression := strings.Join(args, " ")
			date, ok := aitime.Resolve(expression, now)
			if !ok {
				return fmt.Errorf("no date found in %q", expression)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), date)
			return err
		},
	}

	cmd.Flags().StringVar(&nowFlag, "now", "", "reference time, RFC 3339 or YYYY-MM-DD (default: current time)")
	return cmd
}

// parseNow reads the reference instant in loc. Empty means the current time.
func parseNow(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
