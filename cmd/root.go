package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dUID/cmd/id"
	"github.com/ValentinKolb/dUID/cmd/obj"
	"github.com/ValentinKolb/dUID/cmd/serve"
	"github.com/ValentinKolb/dUID/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "duid",
		Short: "unique id allocation and batched object persistence",
		Long: fmt.Sprintf(`dUID (v%s)

Allocates unique object ids across processes from one shared sequence
(one sequence round trip per 1024 ids) and persists objects in
all-or-nothing batches against a local, Raft replicated or PostgreSQL store.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dUID",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dUID v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(id.IDCommands)
	RootCmd.AddCommand(obj.ObjectCommands)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
