package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/frame"
	"github.com/matzehuels/gastrodon/pkg/rdf"
	"github.com/matzehuels/gastrodon/pkg/sparql"
)

// prefixed is implemented by both endpoint kinds.
type prefixed interface {
	Prefixes() *rdf.Namespaces
}

// resolveNode turns a RESOURCE argument into a term: <iri>, a full IRI,
// _:label or prefix:local.
func resolveNode(q endpoint.Querier, arg string) (rdf.Term, error) {
	switch v := bindValue(arg).(type) {
	case rdf.IRI:
		return v, nil
	case rdf.BlankNode:
		return v, nil
	case endpoint.QName:
		if strings.Contains(arg, "://") || strings.HasPrefix(arg, "urn:") {
			return rdf.IRI(arg), nil
		}
		var ns *rdf.Namespaces
		if p, ok := q.(prefixed); ok {
			ns = p.Prefixes()
		}
		if ns != nil {
			if _, ok := ns.Namespace(strings.SplitN(arg, ":", 2)[0]); !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput, "unknown prefix in %q", arg)
			}
		}
		return v.Resolve(ns)
	}
	if strings.Contains(arg, "://") {
		return rdf.IRI(arg), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "%q is not an IRI, prefixed name or blank node", arg)
}

func (c *CLI) peelCommand() *cobra.Command {
	var out graphOutput
	cmd := &cobra.Command{
		Use:   "peel RESOURCE",
		Short: "Print a resource with every blank node reachable from it",
		Long: `Print the triples of a resource, following blank node objects breadth-first
so that nested structures come out whole.

RESOURCE is <iri>, a full IRI, or a prefixed name known to the endpoint.`,
		Example: `  gastrodon peel --data people.ttl ex:bob -f svg -o bob.svg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			node, err := resolveNode(q, args[0])
			if err != nil {
				return err
			}
			prog := newProgress(loggerFromContext(ctx))
			g, err := q.Peel(ctx, node)
			if err != nil {
				return err
			}
			prog.done("peel", "triples", g.Len())
			return out.write(c.Out, q, g)
		},
	}
	out.register(cmd)
	return cmd
}

func (c *CLI) decollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decollect RESOURCE",
		Short: "Print the members of an rdf:Seq, rdf:Bag or rdf:Alt",
		Long: `Print the members of a container. Sequence members come out in order;
bag members come out once each with their multiplicity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			node, err := resolveNode(q, args[0])
			if err != nil {
				return err
			}
			coll, err := q.Decollect(ctx, node)
			if err != nil {
				return err
			}
			for i, item := range coll.Items {
				if coll.IsBag() {
					fmt.Fprintf(c.Out, "%s\t%d\n", frame.Format(item), coll.Counts[i])
					continue
				}
				fmt.Fprintln(c.Out, frame.Format(item))
			}
			return nil
		},
	}
	return cmd
}

func (c *CLI) describeCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "describe RESOURCE",
		Short: "Print the properties of a resource as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, tableFormats); err != nil {
				return err
			}
			ctx := cmd.Context()
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			node, err := resolveNode(q, args[0])
			if err != nil {
				return err
			}
			f, err := q.Select(ctx, sparql.MustBankQuery(sparql.QueryDescribe, nil), endpoint.Bindings{"s": node})
			if err != nil {
				return err
			}
			return writeFrame(c.Out, f, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, csv, json")
	return cmd
}

func (c *CLI) sampleCommand() *cobra.Command {
	var format string
	var limit int
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a few triples from the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, tableFormats); err != nil {
				return err
			}
			if limit <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "--limit must be positive")
			}
			ctx := cmd.Context()
			q, closeFn, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			text, err := sparql.BankQuery(sparql.QuerySample, struct{ Limit int }{limit})
			if err != nil {
				return err
			}
			f, err := q.Select(ctx, text, nil)
			if err != nil {
				return err
			}
			return writeFrame(c.Out, f, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, csv, json")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of triples")
	return cmd
}

func (c *CLI) namespacesCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "Print the target's prefix table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, tableFormats); err != nil {
				return err
			}
			q, closeFn, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return writeFrame(c.Out, q.Namespaces(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, csv, json")
	return cmd
}
