package cli

import (
	"github.com/apex/log"
	logcli "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// NewRootCmd builds the command tree with fresh flag state.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sttp",
		Short:   "A terminal HTTP client built on the sttp request builder",
		Version: version,
		Long: `sttp sends HTTP requests from the terminal. Requests are configured with
flags or with named profiles from a YAML or JSON file, and responses are
printed as text, JSON or YAML.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")

			log.SetHandler(logcli.New(cmd.ErrOrStderr()))
			log.SetLevel(log.InfoLevel)
			if verbose {
				log.SetLevel(log.DebugLevel)
				log.Debugf("sttp version %s", version)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose output and debug logging")
	flags.Bool("no-color", false, "Disable colored output")
	flags.StringP("output", "o", "text", "Output format: text, json or yaml")
	flags.StringP("config", "c", "", "Profiles file (YAML or JSON)")
	flags.String("env", "", "Environment to use from the profiles file")
	flags.String("profile", "", "Profile to use from the profiles file")

	for _, verb := range verbs {
		cmd.AddCommand(newRequestCmd(verb))
	}

	return cmd
}

// Execute runs the root command. The returned error is an *ExitError when
// the command ran but the exchange failed or answered with an error status.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		log.WithError(err).Error("sttp")
	}
	return err
}
