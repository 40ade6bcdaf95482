package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coffersys/coffer/pkg/container"
	"github.com/coffersys/coffer/pkg/errors"
	"github.com/coffersys/coffer/pkg/link"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	deps    bool // print the preload dependency lists per export
	imports bool // print the import table
}

// newInspectCmd creates the inspect command.
func newInspectCmd() *cobra.Command {
	opts := inspectOpts{}

	cmd := &cobra.Command{
		Use:   "inspect <file.coffer>",
		Short: "Print the tables of a finished container",
		Long: `Print the tables of a finished container.

The export table is printed in load order; positions are what a loader sees.

Examples:
  coffer inspect props.coffer
  coffer inspect props.coffer --deps --imports`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runInspect(&opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.deps, "deps", false, "print preload dependency lists")
	cmd.Flags().BoolVar(&opts.imports, "imports", false, "print the import table")

	return cmd
}

func runInspect(opts *inspectOpts, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "container %s", path)
		}
		return err
	}
	defer f.Close()

	file, err := container.Read(f)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(file.Container))
	printKeyValue("names", fmt.Sprintf("%d", len(file.Names)))
	printKeyValue("exports", fmt.Sprintf("%d", len(file.Tables.Exports)))
	printKeyValue("imports", fmt.Sprintf("%d", len(file.Tables.Imports)))
	printKeyValue("edges", fmt.Sprintf("%d", depTotal(file.Tables)))

	fmt.Println()
	fmt.Println(StyleTitle.Render("Exports"))
	for i, rec := range file.Tables.Exports {
		line := fmt.Sprintf("%4d  %s", i, rec.Ref.Name)
		if rec.Flags != 0 {
			line += "  " + StyleDim.Render(rec.Flags.String())
		}
		if size := rec.PayloadSize; size > 0 {
			line += "  " + StyleDim.Render(fmt.Sprintf("%dB payload", size))
		}
		fmt.Println(line)
		if opts.deps {
			printDeps(file.Tables, i)
		}
	}

	if opts.imports {
		fmt.Println()
		fmt.Println(StyleTitle.Render("Imports"))
		for i, rec := range file.Tables.Imports {
			fmt.Printf("%4d  %s\n", i, rec.Ref)
		}
	}

	return nil
}

func printDeps(tables *link.Tables, i int) {
	if i >= len(tables.Deps) {
		return
	}
	set := tables.Deps[i]
	for k := link.DependencyKind(0); k < link.KindCount; k++ {
		for _, x := range set.Lists[k] {
			printDetail("%s %s %s", k, iconArrow, tables.RefOf(x))
		}
	}
}

func depTotal(tables *link.Tables) int {
	n := 0
	for i := range tables.Deps {
		n += tables.Deps[i].Total()
	}
	return n
}
