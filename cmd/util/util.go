package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport/tcp"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport/unix"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dkvs")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupClientFlags adds the common connection flags to a client-side command
func SetupClientFlags(cmd *cobra.Command) {
	key := "coordinator"
	cmd.PersistentFlags().String(key, "127.0.0.1", WrapString("IPv4 address of the coordinator"))

	key = "port"
	cmd.PersistentFlags().Int(key, common.DefaultPort, WrapString("TCP port the ring listens on"))

	key = "network-timeout"
	cmd.PersistentFlags().Int(key, common.DefaultNetworkTimeoutMs, WrapString("Per-operation network timeout in milliseconds"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		CoordinatorAddress: viper.GetString("coordinator"),
		Port:               viper.GetInt("port"),
		Transport:          viper.GetString("transport"),
		NetworkTimeoutMs:   viper.GetInt("network-timeout"),
	}
}

// GetTransport creates a transport based on configuration
func GetTransport(name string, timeout time.Duration) (transport.ITransport, error) {
	switch name {
	case "tcp":
		return tcp.NewTCPTransport(timeout), nil
	case "unix":
		return unix.NewUnixTransport(timeout), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", name)
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
