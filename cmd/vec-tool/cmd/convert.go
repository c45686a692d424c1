package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/borealdb/boreal/arrowvec"
	"github.com/borealdb/boreal/shuffle"
	"github.com/borealdb/boreal/vec"
)

var (
	convertColumns      []string
	convertAllowMissing bool
	convertNestedTables bool
	convertCompressed   bool
	convertMaxRows      int64
	convertMaxBytes     int64
)

var convertCmd = &cobra.Command{
	Use:     "convert",
	Example: "vec-tool convert <file.arrows>",
	Short:   "convert an arrow IPC stream to engine blocks and print block stats",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(args[0])
	},
}

func init() {
	convertCmd.Flags().StringSliceVar(&convertColumns, "columns", nil, "columns to convert (default all)")
	convertCmd.Flags().BoolVar(&convertAllowMissing, "allow-missing", false, "backfill requested columns missing from a batch")
	convertCmd.Flags().BoolVar(&convertNestedTables, "nested-tables", false, "resolve dotted column names against struct columns")
	convertCmd.Flags().BoolVar(&convertCompressed, "compressed", false, "input stream is zstd compressed")
	convertCmd.Flags().Int64Var(&convertMaxRows, "max-rows", 0, "coalesce blocks up to this many rows (0 disables)")
	convertCmd.Flags().Int64Var(&convertMaxBytes, "max-bytes", 0, "coalesce blocks up to this payload size (0 disables)")
}

func runConvert(file string) error {
	header, err := targetHeader(file)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	var options []arrowvec.Option
	if convertAllowMissing {
		options = append(options, arrowvec.WithAllowMissingColumns())
	}
	if convertNestedTables {
		options = append(options, arrowvec.WithNestedTables())
	}
	bridge := arrowvec.New(header, newLogger(), prometheus.NewRegistry(), options...)

	readerOptions := []shuffle.Option{
		shuffle.WithMaxReadRows(convertMaxRows),
		shuffle.WithMaxReadBytes(convertMaxBytes),
	}
	if convertCompressed {
		readerOptions = append(readerOptions, shuffle.WithCompression())
	}
	reader, err := shuffle.NewReader(f, bridge, readerOptions...)
	if err != nil {
		return err
	}
	defer reader.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Block", "Rows", "Size"})

	var totalRows, totalSize int64
	for i := 0; ; i++ {
		block, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		size := block.Size()
		totalRows += int64(block.Rows)
		totalSize += size
		table.Append([]string{
			strconv.Itoa(i),
			strconv.Itoa(block.Rows),
			humanize.Bytes(uint64(size)),
		})
	}
	table.SetFooter([]string{"total", strconv.FormatInt(totalRows, 10), humanize.Bytes(uint64(totalSize))})
	table.Render()
	return nil
}

// targetHeader derives the conversion target from the stream's own schema,
// optionally narrowed to the requested columns.
func targetHeader(file string) (vec.Schema, error) {
	schema, err := readStreamSchema(file)
	if err != nil {
		return nil, err
	}
	header, err := arrowvec.SchemaHeader(schema)
	if err != nil {
		return nil, err
	}
	if len(convertColumns) == 0 {
		return header, nil
	}

	selected := make(vec.Schema, 0, len(convertColumns))
	for _, name := range convertColumns {
		idx := header.FieldIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not present in stream schema", name)
		}
		selected = append(selected, header[idx])
	}
	return selected, nil
}
