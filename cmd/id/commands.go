package id

import (
	"fmt"

	"github.com/ValentinKolb/dUID/lib/alloc"
	"github.com/ValentinKolb/dUID/lib/ident"
	"github.com/spf13/cobra"
)

var (
	nextCmd = &cobra.Command{
		Use:   "next",
		Short: "Allocate new ids and print them, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := cmd.Flags().GetInt("count")
			if err != nil {
				return err
			}
			if n < 1 {
				return fmt.Errorf("count must be at least 1")
			}

			a := newAllocator()
			for i := 0; i < n; i++ {
				number, err := a.NextID()
				if err != nil {
					return err
				}
				id, err := ident.Encode(number)
				if err != nil {
					return err
				}
				fmt.Println(id)
			}
			return nil
		},
	}

	decodeCmd = &cobra.Command{
		Use:   "decode [id]...",
		Short: "Print number, seed and block offset of ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				number, err := ident.Decode(ident.ID(arg))
				if err != nil {
					return err
				}
				fmt.Printf("%s\tnumber=%d\tseed=%d\toffset=%d\n",
					arg, number, number/alloc.BlockSize, number%alloc.BlockSize)
			}
			return nil
		},
	}
)

func init() {
	nextCmd.Flags().IntP("count", "n", 1, "Number of ids to allocate")
}
