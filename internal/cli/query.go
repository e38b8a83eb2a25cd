package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// queryFlags are shared by the commands that take query text.
type queryFlags struct {
	binds []string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.binds, "bind", "b", nil, "substitute ?name with value (name=value, repeatable)")
}

func (c *CLI) selectCommand() *cobra.Command {
	var qf queryFlags
	var format string
	var raw bool

	cmd := &cobra.Command{
		Use:   "select QUERY",
		Short: "Run a SELECT query and print the results as a table",
		Long: `Run a SELECT query and print the results as a table.

QUERY is the query text, @FILE to read it from a file, or - for stdin.
Prefixes the query uses but does not declare are added from the endpoint's
prefix table, and --bind values replace the matching ?variables.`,
		Example: `  gastrodon select -e dbpedia 'SELECT ?p ?o { dbr:Tokyo ?p ?o } LIMIT 10'
  gastrodon select --data people.ttl -b who=ex:alice @friends.rq --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, tableFormats); err != nil {
				return err
			}
			ctx := cmd.Context()
			text, err := readText(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			b, err := parseBindings(qf.binds)
			if err != nil {
				return err
			}
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			prog := newProgress(loggerFromContext(ctx))
			if raw {
				res, err := q.SelectRaw(ctx, text, b)
				if err != nil {
					return err
				}
				prog.done("select", "rows", len(res.Rows))
				return sparql.EncodeJSON(c.Out, res)
			}
			f, err := q.Select(ctx, text, b)
			if err != nil {
				return err
			}
			prog.done("select", "rows", f.Len())
			return writeFrame(c.Out, f, format)
		},
	}
	qf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, csv, json")
	cmd.Flags().BoolVar(&raw, "raw", false, "print SPARQL JSON results without conversion")
	return cmd
}

func (c *CLI) askCommand() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "ask QUERY",
		Short: "Run an ASK query and print true or false",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readText(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			b, err := parseBindings(qf.binds)
			if err != nil {
				return err
			}
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			ok, err := q.Ask(ctx, text, b)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.Out, ok)
			return err
		},
	}
	qf.register(cmd)
	return cmd
}

func (c *CLI) constructCommand() *cobra.Command {
	var qf queryFlags
	var out graphOutput

	cmd := &cobra.Command{
		Use:     "construct QUERY",
		Short:   "Run a CONSTRUCT or DESCRIBE query and print the graph",
		Example: `  gastrodon construct --data people.ttl 'CONSTRUCT { ?s foaf:knows ?o } WHERE { ?s foaf:knows ?o }' -f svg -o knows.svg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readText(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			b, err := parseBindings(qf.binds)
			if err != nil {
				return err
			}
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			prog := newProgress(loggerFromContext(ctx))
			g, err := q.Construct(ctx, text, b)
			if err != nil {
				return err
			}
			prog.done("construct", "triples", g.Len())
			return out.write(c.Out, q, g)
		},
	}
	qf.register(cmd)
	out.register(cmd)
	return cmd
}

func (c *CLI) updateCommand() *cobra.Command {
	var qf queryFlags
	cmd := &cobra.Command{
		Use:   "update UPDATE",
		Short: "Run a SPARQL update",
		Long: `Run a SPARQL update.

Against --data files the update only changes the in-memory copy; use serve to
keep a graph alive across updates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readText(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			b, err := parseBindings(qf.binds)
			if err != nil {
				return err
			}
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := q.Update(ctx, text, b); err != nil {
				return err
			}
			printSuccess("Update applied")
			return nil
		},
	}
	qf.register(cmd)
	return cmd
}

func (o *graphOutput) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", formatTurtle, "output format: turtle, ntriples, jsonld, dot, svg, pdf, png")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write to FILE instead of stdout")
	cmd.Flags().BoolVar(&o.inline, "inline-literals", false, "diagrams: show literal values inside their subject")
	cmd.Flags().Float64Var(&o.scale, "scale", 2, "png: scale factor")
}
