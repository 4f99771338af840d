package id

import (
	"io"

	"github.com/ValentinKolb/dUID/cmd/util"
	"github.com/ValentinKolb/dUID/lib/alloc"
	"github.com/ValentinKolb/dUID/lib/seq"
	"github.com/ValentinKolb/dUID/lib/seq/fseq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	source    seq.ISequenceSource
	closeFunc func()

	// IDCommands represents the id command group
	IDCommands = &cobra.Command{
		Use:   "id",
		Short: "Allocate and inspect object ids",
		Long: `Allocate and inspect object ids.

Ids are allocated from a shared sequence: either the sequence of a server
shard (default) or a sequence file shared by processes on this host
(--sequence-file).`,
	}
)

func init() {
	util.SetupRPCClientFlags(IDCommands, 100)

	key := "sequence"
	IDCommands.PersistentFlags().String(key, seq.DefaultName, util.WrapString("Name of the sequence the seeds are drawn from"))
	key = "sequence-file"
	IDCommands.PersistentFlags().String(key, "", util.WrapString("Draw seeds from this local file instead of a server. The file is locked during every increment, so processes on one host can share it"))

	nextCmd.PersistentPreRunE = setupSource
	perfCmd.PersistentPreRunE = setupSource
	nextCmd.PersistentPostRun = closeSource
	perfCmd.PersistentPostRun = closeSource

	IDCommands.AddCommand(nextCmd)
	IDCommands.AddCommand(decodeCmd)
	IDCommands.AddCommand(perfCmd)
}

// setupSource creates the sequence source from the flags
func setupSource(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if path := viper.GetString("sequence-file"); path != "" {
		fs, err := fseq.New(path)
		if err != nil {
			return err
		}
		source = fs
		closeFunc = func() {}
		return nil
	}

	s, err := util.NewRemoteStore()
	if err != nil {
		return err
	}
	source = seq.FromStore(s, viper.GetString("sequence"))
	closeFunc = func() {
		if c, ok := s.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return nil
}

func closeSource(*cobra.Command, []string) {
	if closeFunc != nil {
		closeFunc()
	}
}

// newAllocator returns an allocator on the configured source
func newAllocator() *alloc.Allocator {
	return alloc.New(source)
}
