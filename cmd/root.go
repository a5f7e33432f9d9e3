package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mocker/cmd/request"
	"github.com/ValentinKolb/mocker/cmd/serve"
	"github.com/ValentinKolb/mocker/cmd/workspace"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mocker",
		Short: "local mock http api server",
		Long: fmt.Sprintf(`mocker (v%s)

A local mock API server. Routes are declared in a configuration file and
served from json, toml, yaml or msgpack files, so frontends can be developed
against an API that does not exist yet.`, Version),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mocker",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mocker v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(workspace.InitCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(request.RequestCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. Errors are printed as "fatal: <msg>" and
// exit the process with status 1. This is called by main.main().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
