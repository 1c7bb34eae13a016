package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/syedmoizurrehman/DistributedKVStore/cmd/util"
	"github.com/syedmoizurrehman/DistributedKVStore/lib/store/fstore"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/codec"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/node"
)

var (
	serveCmdConfig = &common.Config{}
	serveAddress   = ""
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start a ring peer (coordinator or node)",
		Long:    `Start a ring peer with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DKVS_<flag> (e.g. DKVS_NETWORK_TIMEOUT=5000)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "role"
	ServeCmd.PersistentFlags().String(key, "node", cmdUtil.WrapString("Role of this peer: coordinator or node"))

	key = "address"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1", cmdUtil.WrapString("IPv4 address this peer is reachable at; also its identity in the membership view"))

	key = "coordinator"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("IPv4 address of the coordinator (required for nodes)"))

	key = "port"
	ServeCmd.PersistentFlags().Int(key, common.DefaultPort, cmdUtil.WrapString("TCP port to listen on"))

	key = "replication-factor"
	ServeCmd.PersistentFlags().Int(key, common.DefaultReplicationFactor, cmdUtil.WrapString("Desired number of replicas per key"))

	key = "default-ring-size"
	ServeCmd.PersistentFlags().Int(key, common.DefaultRingSize, cmdUtil.WrapString("Advisory initial ring size"))

	key = "network-timeout"
	ServeCmd.PersistentFlags().Int(key, common.DefaultNetworkTimeoutMs, cmdUtil.WrapString("Per-operation network timeout in milliseconds"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("Directory for the persistent record and lookup tables"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the peer configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Role = viper.GetString("role")
	serveCmdConfig.CoordinatorAddress = viper.GetString("coordinator")
	serveCmdConfig.Port = viper.GetInt("port")
	serveCmdConfig.ReplicationFactor = viper.GetInt("replication-factor")
	serveCmdConfig.DefaultRingSize = viper.GetInt("default-ring-size")
	serveCmdConfig.NetworkTimeoutMs = viper.GetInt("network-timeout")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveAddress = viper.GetString("address")

	// The coordinator serves itself; nodes must be pointed at one.
	if serveCmdConfig.Role == "coordinator" && serveCmdConfig.CoordinatorAddress == "" {
		serveCmdConfig.CoordinatorAddress = serveAddress
	}

	return serveCmdConfig.Validate()
}

// run starts the peer and blocks until the process is signalled
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(serveCmdConfig.LogLevel)

	fmt.Println(serveCmdConfig.String())

	// Build the role
	role := common.StatusNode
	if serveCmdConfig.Role == "coordinator" {
		role = common.StatusCoordinator
	}

	// Open the local tables: data nodes keep records, the coordinator keeps
	// the key-to-ring-size lookup.
	deps := node.Deps{
		Codec:    codec.NewTextCodec(),
		Endpoint: serveCmdConfig.ListenAddress,
	}
	switch role {
	case common.StatusCoordinator:
		lookup, err := fstore.NewLookupStore(serveCmdConfig.DataDir)
		if err != nil {
			return err
		}
		defer lookup.Close()
		deps.Lookup = lookup
	case common.StatusNode:
		records, err := fstore.NewRecordStore(serveCmdConfig.DataDir)
		if err != nil {
			return err
		}
		defer records.Close()
		deps.Records = records
	}

	// Build the transport
	trans, err := cmdUtil.GetTransport(serveCmdConfig.Transport, serveCmdConfig.NetworkTimeout())
	if err != nil {
		return err
	}
	if err := trans.Listen(serveCmdConfig.ListenAddress(serveAddress)); err != nil {
		return err
	}
	defer trans.Close()
	deps.Transport = trans

	peer := node.New(serveCmdConfig, role, serveAddress, deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := peer.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
