// Command pmtable-dump lists the known PM table layouts and prints the named
// fields of a captured table.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/skobkin/ryzenmon/internal/capture"
	"github.com/skobkin/ryzenmon/internal/pmtable"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "pmtable-dump: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		list       bool
		rawVersion string
		layoutDir  string
	)

	flagSet := pflag.NewFlagSet("pmtable-dump", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.BoolVarP(&list, "list", "l", false, "list layouts and exit")
	flagSet.StringVarP(&rawVersion, "pm-version", "p", "", "layout version of the capture, e.g. 0x380804")
	flagSet.StringVar(&layoutDir, "layouts", "", "validate the YAML layouts in this directory instead of the built-in ones")
	flagSet.Usage = func() {
		fmt.Fprintf(out, "Usage: pmtable-dump [--list] [--layouts DIR] [-p VERSION CAPTURE]\n\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	schemas := builtinSchemas()
	if layoutDir != "" {
		loaded, err := pmtable.LoadLayouts(os.DirFS(layoutDir), ".")
		if err != nil {
			return fmt.Errorf("load layouts: %w", err)
		}
		schemas = loaded
	}

	if list || flagSet.NArg() == 0 {
		return listSchemas(out, schemas)
	}

	if rawVersion == "" {
		return errors.New("a capture carries no version, pass --pm-version")
	}
	version, err := pmtable.ParseVersion(rawVersion)
	if err != nil {
		return err
	}
	schema, ok := schemas[version]
	if !ok {
		return fmt.Errorf("%w %s", pmtable.ErrUnknownVersion, pmtable.FormatVersion(version))
	}

	data, err := capture.Open(flagSet.Arg(0))
	if err != nil {
		return err
	}
	table, err := pmtable.Bind(schema, data)
	if err != nil {
		return fmt.Errorf("capture file too short: %w", err)
	}
	return dumpTable(out, table, len(data))
}

func builtinSchemas() map[uint32]*pmtable.Schema {
	out := make(map[uint32]*pmtable.Schema)
	for _, v := range pmtable.Versions() {
		if s, err := pmtable.Lookup(v); err == nil {
			out[v] = s
		}
	}
	return out
}

func listSchemas(out io.Writer, schemas map[uint32]*pmtable.Schema) error {
	versions := make([]uint32, 0, len(schemas))
	for v := range schemas {
		versions = append(versions, v)
	}
	slices.Sort(versions)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCODENAME\tZEN\tCORES\tFIELDS\tMIN SIZE\tSTATUS")
	for _, v := range versions {
		s := schemas[v]
		status := "verified"
		if s.Flags.Experimental {
			status = "experimental"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n", s, s.Codename, s.Zen, s.MaxCores, len(s.Fields()), s.MinSize, status)
	}
	return tw.Flush()
}

func dumpTable(out io.Writer, table *pmtable.Table, size int) error {
	schema := table.Schema()
	fmt.Fprintf(out, "# %s %s, %d of %d bytes decoded\n", schema, schema.Codename, schema.MinSize, size)
	for _, a := range table.Aliases() {
		fmt.Fprintf(out, "# %s reads %s\n", a.Target, a.Source)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, f := range schema.Fields() {
		series := table.Series(f.Name)
		fmt.Fprintf(tw, "%s\t@0x%04x", f.Name, f.Offset*pmtable.ElementSize)
		for _, v := range series.Floats() {
			fmt.Fprintf(tw, "\t%s", strconv.FormatFloat(v, 'g', 7, 64))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
