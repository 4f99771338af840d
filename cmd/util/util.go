package util

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/ValentinKolb/dUID/rpc/client"
	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/serializer"
	"github.com/ValentinKolb/dUID/rpc/transport"
	"github.com/ValentinKolb/dUID/rpc/transport/http"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
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
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and makes viper read DUID_* environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("duid")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// SetupRPCClientFlags adds the flags needed to reach a server shard
func SetupRPCClientFlags(cmd *cobra.Command, defaultShard int) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "http://localhost:8080", WrapString("The address of the dUID server. Multiple endpoints can be specified as a comma-separated list, requests are sent round-robin"))

	key = "transport-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("How many times to retry the request"))

	key = "shard"
	cmd.PersistentFlags().Int(key, defaultShard, WrapString("ID of the shard to connect to"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		RetryCount:    viper.GetInt("transport-retries"),
		Endpoints:     strings.Split(viper.GetString("transport-endpoints"), ","),
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetClientTransport creates the client transport based on configuration
func GetClientTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return uint64(viper.GetInt("shard"))
}

// NewRemoteStore connects to the configured shard
func NewRemoteStore() (store.IStore, error) {
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	t, err := GetClientTransport()
	if err != nil {
		return nil, err
	}
	return client.NewRPCStore(GetShardID(), *GetClientConfig(), t, s)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// HashString maps a node name (e.g. "node-1") to a non-zero replica ID
func HashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	if v := h.Sum64() >> 1; v != 0 {
		return v
	}
	return 1
}
