package cli

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gastrodon/pkg/endpoint"
	"github.com/matzehuels/gastrodon/pkg/errors"
	"github.com/matzehuels/gastrodon/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var readOnly bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve [FILE...]",
		Short: "Serve RDF files over the SPARQL 1.1 Protocol",
		Long: `Load RDF files into memory and serve them over the SPARQL 1.1 Protocol
until interrupted. Files may also come from --data or a local endpoint profile.

Routes: GET/POST /sparql, POST /update, GET /health.`,
		Example: `  gastrodon serve people.ttl --addr :3030
  gastrodon select --url http://localhost:3030/sparql 'SELECT * { ?s ?p ?o } LIMIT 5'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			local, err := c.openLocal(args)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
			}
			url := "http://" + displayAddr(ln.Addr().String()) + "/sparql"
			printSuccess("Serving %s triples", StyleNumber.Render(strconv.Itoa(local.Graph().Len())))
			printKeyValue("Endpoint", StyleLink.Render(url))
			if readOnly {
				printDetail("Updates are disabled")
			}
			printNewline()
			printNextStep("Query it", "gastrodon select --url "+url+" 'SELECT * { ?s ?p ?o } LIMIT 5'")

			srv := server.New(local, server.Options{
				Addr:     addr,
				ReadOnly: readOnly,
				Timeout:  timeout,
				Logger:   loggerFromContext(ctx),
			})
			return srv.Serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:3030", "listen address")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "reject updates")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-request timeout")
	return cmd
}

// openLocal loads the files to serve: the arguments, else --data, else the
// selected endpoint profile, which must then be a local one.
func (c *CLI) openLocal(files []string) (*endpoint.Local, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		c.target.data = files
	}
	if c.target.url != "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "serve needs local data, not --url")
	}
	e, err := c.profile(cfg)
	if err != nil {
		return nil, err
	}
	if !e.IsLocal() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "endpoint %q is remote; serve needs local data", c.target.endpoint)
	}
	q, err := cfg.Connect(e, nil, c.Logger)
	if err != nil {
		return nil, err
	}
	return q.(*endpoint.Local), nil
}

// displayAddr makes a wildcard listen address clickable.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, "[::]:") {
		return "localhost" + strings.TrimPrefix(addr, "[::]")
	}
	if strings.HasPrefix(addr, "0.0.0.0:") {
		return "localhost" + strings.TrimPrefix(addr, "0.0.0.0")
	}
	return addr
}
