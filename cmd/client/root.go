package client

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cmdUtil "github.com/syedmoizurrehman/DistributedKVStore/cmd/util"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/codec"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/node"
)

var (
	ClientCmd = &cobra.Command{
		Use:     "client",
		Short:   "Interactive client shell",
		Long:    `Connect to the coordinator and run the interactive shell: R reads a key, W writes a key-value pair, D deletes a key, E exits.`,
		PreRunE: processClientConfig,
		RunE:    runShell,
	}

	clientConfig *common.ClientConfig
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)
	cmdUtil.SetupClientFlags(ClientCmd)
	ClientCmd.AddCommand(perfCmd)
}

// processClientConfig reads the client configuration from flags and environment
func processClientConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}
	clientConfig = cmdUtil.GetClientConfig()
	return nil
}

// newClient builds the client role against the configured coordinator
func newClient() (*node.Client, error) {
	trans, err := cmdUtil.GetTransport(clientConfig.Transport, clientConfig.NetworkTimeout())
	if err != nil {
		return nil, err
	}

	endpoint := func(string) string { return clientConfig.CoordinatorEndpoint() }
	return node.NewClient("client", clientConfig.CoordinatorAddress, node.ClientDeps{
		Transport: trans,
		Codec:     codec.NewTextCodec(),
		Endpoint:  endpoint,
	}), nil
}

// runShell drives the interactive command loop
func runShell(_ *cobra.Command, _ []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	fmt.Println(clientConfig.String())
	fmt.Println("Commands: R (read), W (write), D (delete), E (exit)")

	scanner := bufio.NewScanner(os.Stdin)
	prompt := func(label string) (string, bool) {
		fmt.Print(label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		cmd, ok := prompt("> ")
		if !ok {
			return nil
		}

		switch strings.ToUpper(cmd) {
		case "R":
			key, ok := prompt("Key: ")
			if !ok {
				return nil
			}
			rec, found, err := c.Read(key)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if !found {
				fmt.Println("Key was not found.")
				continue
			}
			fmt.Printf("Key: %s\nValue: %s\nTimeStamp: %d\n", rec.Key, rec.Value, rec.Timestamp)

		case "W":
			key, ok := prompt("Key: ")
			if !ok {
				return nil
			}
			value, ok := prompt("Value: ")
			if !ok {
				return nil
			}
			if err := c.Write(key, value); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Println("OK")

		case "D":
			key, ok := prompt("Key: ")
			if !ok {
				return nil
			}
			if err := c.Delete(key); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Println("OK")

		case "E":
			return nil

		case "":
			// ignore empty input

		default:
			fmt.Println("Unknown command. Use R, W, D or E.")
		}
	}
}
