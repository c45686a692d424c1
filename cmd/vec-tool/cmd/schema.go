package cmd

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/borealdb/boreal/arrowvec"
)

var schemaCmd = &cobra.Command{
	Use:     "schema",
	Example: "vec-tool schema <file.arrows>",
	Short:   "print the engine schema an arrow IPC stream maps to",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchema(args[0])
	},
}

func runSchema(file string) error {
	schema, err := readStreamSchema(file)
	if err != nil {
		return err
	}
	header, err := arrowvec.SchemaHeader(schema)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Column", "Arrow Type", "Engine Type"})
	for i, f := range header {
		table.Append([]string{f.Name, schema.Field(i).Type.String(), f.Type.String()})
	}
	table.Render()
	return nil
}

func readStreamSchema(file string) (*arrow.Schema, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading IPC stream %s: %w", file, err)
	}
	defer r.Release()
	return r.Schema(), nil
}
