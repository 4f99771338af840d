package obj

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	insertCmd = &cobra.Command{
		Use:   "insert [type] [field=value]...",
		Short: "Insert a new object and print it with its allocated id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			obj, err := current.insert(ctx, args[0], fields)
			if err != nil {
				return err
			}
			printObject(obj)
			return nil
		},
	}

	updateCmd = &cobra.Command{
		Use:   "update [type] [id] [field=value]...",
		Short: "Set fields of an object, then run the update triggers of its type",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			obj, err := current.update(ctx, args[0], args[1], fields)
			if err != nil {
				return err
			}
			printObject(obj)
			return nil
		},
	}

	refreshCmd = &cobra.Command{
		Use:   "refresh [type] [id]",
		Short: "Run the refresh triggers of an object and write it back",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			obj, err := current.refresh(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printObject(obj)
			return nil
		},
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [type] [id]...",
		Short: "Delete objects in one batch",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			if err := current.delete(ctx, args[0], args[1:]); err != nil {
				return err
			}
			fmt.Printf("deleted %d object(s)\n", len(args)-1)
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [type] [id]",
		Short: "Print an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			obj, err := current.get(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printObject(obj)
			return nil
		},
	}

	selectCmd = &cobra.Command{
		Use:   "select [type] [field=value]...",
		Short: "Print all objects of a type whose fields equal the given values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()

			rows, err := current.selectRows(ctx, args[0], filters)
			if err != nil {
				return err
			}
			for _, row := range rows {
				fmt.Printf("%s[%s] %s\n", row.Type, row.ID, row.Describe())
			}
			return nil
		},
	}
)
