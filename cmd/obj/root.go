package obj

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/dUID/cmd/util"
	"github.com/ValentinKolb/dUID/lib/alloc"
	"github.com/ValentinKolb/dUID/lib/entity"
	"github.com/ValentinKolb/dUID/lib/seq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	current *session

	// ObjectCommands represents the obj command group
	ObjectCommands = &cobra.Command{
		Use:   "obj",
		Short: "Persist and query objects of the types defined in a YAML file",
		Long: `Persist and query objects of the types defined in a YAML file (--types).

Inserted objects get an id allocated from the shared sequence of the shard.
Updates, refreshes and deletes are guarded by the id and the universal
condition of the type, deletes are written to the audit log first.`,
		PersistentPreRunE:  setupSession,
		PersistentPostRunE: closeSession,
	}
)

func init() {
	util.SetupRPCClientFlags(ObjectCommands, 100)

	key := "types"
	ObjectCommands.PersistentFlags().String(key, "types.yaml", util.WrapString("YAML file with the object type definitions"))
	key = "tenant"
	ObjectCommands.PersistentFlags().String(key, "", util.WrapString("Tenant for types with a tenantField. Rows of other tenants are invisible"))
	key = "sequence"
	ObjectCommands.PersistentFlags().String(key, seq.DefaultName, util.WrapString("Name of the sequence ids are drawn from"))

	ObjectCommands.AddCommand(insertCmd)
	ObjectCommands.AddCommand(updateCmd)
	ObjectCommands.AddCommand(refreshCmd)
	ObjectCommands.AddCommand(deleteCmd)
	ObjectCommands.AddCommand(getCmd)
	ObjectCommands.AddCommand(selectCmd)
}

// setupSession loads the types and connects to the store
func setupSession(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	types, err := entity.LoadTypesFile(viper.GetString("types"), entity.NewRegistry())
	if err != nil {
		return err
	}

	s, err := util.NewRemoteStore()
	if err != nil {
		return err
	}

	current = newSession(s, types, alloc.New(seq.FromStore(s, viper.GetString("sequence"))))
	return nil
}

func closeSession(*cobra.Command, []string) error {
	if current == nil {
		return nil
	}
	if c, ok := current.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// commandContext carries the tenant and the client timeout
func commandContext() (context.Context, context.CancelFunc) {
	ctx := context.Background()
	if tenant := viper.GetString("tenant"); tenant != "" {
		ctx = entity.WithTenant(ctx, tenant)
	}
	timeout := time.Duration(viper.GetInt("timeout")) * time.Second
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func printObject(obj *entity.Object) {
	fmt.Println(format(obj))
}
