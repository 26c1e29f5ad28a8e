// Package cli wires the postassist binary's cobra command tree: serve starts
// the HTTP orchestrator, healthcheck pings a running instance's /health
// endpoint, and the root's --version flag prints the build version. Grounded
// on the reference CLI's root.go cobra construction pattern, generalized from
// its multi-command local-agent tree down to the two subcommands a stateless
// HTTP service needs.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "postassist",
		Short:        "PostAssist — turns a paper title into a verified LinkedIn post",
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHealthcheckCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
