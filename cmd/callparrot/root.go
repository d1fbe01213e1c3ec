package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/callparrot/internal/logging"
	"github.com/hrygo/callparrot/internal/profile"
)

// flagKeys maps command-line flags to profile keys.
var flagKeys = map[string]string{
	"mode":         "mode",
	"driver":       "driver",
	"dsn":          "dsn",
	"data":         "data",
	"timezone":     "timezone",
	"phone-region": "phone_region",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-addr": "metrics_addr",
}

// cli carries the loaded profile from the root's pre-run into subcommands.
type cli struct {
	configFile string
	profile    *profile.Profile
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "callparrot",
		Short: "Conversational document assistant that books calls",
		Long: `callparrot answers questions about your documents and schedules calls.

Each utterance is classified by an ordered rule table: scheduling requests collect
name, email and phone, then resolve natural-language dates ("next Friday", "12/25")
into calendar dates; everything else goes to the document answerer.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadProfile(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default: ./callparrot.yaml or ~/.callparrot/callparrot.yaml)")
	flags.String("mode", "", "run mode: dev, prod or demo")
	flags.String("driver", "", "session store: memory, sqlite or postgres")
	flags.String("dsn", "", "database DSN for sqlite or postgres")
	flags.String("data", "", "data directory")
	flags.String("timezone", "", "IANA timezone for date resolution")
	flags.String("phone-region", "", "region assumed for phone numbers without a country code")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")

	root.AddCommand(
		newChatCmd(c),
		newClassifyCmd(),
		newResolveCmd(c),
		newSessionsCmd(c),
		newVersionCmd(),
	)
	return root
}

// loadProfile layers defaults, config file, environment and flags, then validates.
func (c *cli) loadProfile(cmd *cobra.Command) error {
	v, err := profile.NewViper(c.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}

	p := profile.FromViper(v)
	p.Version = version
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(cmd.ErrOrStderr(), p.LogLevel, p.LogFormat)
	c.profile = p
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "callparrot %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}
