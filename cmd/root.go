package cmd

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syedmoizurrehman/DistributedKVStore/cmd/client"
	"github.com/syedmoizurrehman/DistributedKVStore/cmd/serve"
	"github.com/syedmoizurrehman/DistributedKVStore/cmd/util"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dkvstore",
		Short: "distributed key-value store",
		Long: fmt.Sprintf(`DistributedKVStore (v%s)

A Dynamo-style distributed key-value store written in Go: a replicated
hash ring of peer processes with a configured coordinator mediating
client operations, gossip-based membership and last-writer-wins
reconciliation.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dkvstore",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("DistributedKVStore v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// rewriteLegacyArgs translates the historical invocation form into
// subcommands: a first argument of "-<ipv4>" selects the serve command with
// that coordinator, and a second argument of "-client" selects the client
// shell instead.
func rewriteLegacyArgs(args []string) []string {
	if len(args) == 0 || !strings.HasPrefix(args[0], "-") {
		return args
	}
	addr := strings.TrimPrefix(args[0], "-")
	if net.ParseIP(addr) == nil {
		return args
	}

	if len(args) > 1 && args[1] == "-client" {
		return append([]string{"client", "--coordinator", addr}, args[2:]...)
	}
	return append([]string{"serve", "--role", "node", "--coordinator", addr}, args[1:]...)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	RootCmd.SetArgs(rewriteLegacyArgs(os.Args[1:]))
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
