package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/coordgeom/api"
	"github.com/TFMV/coordgeom/loader"
	"github.com/TFMV/coordgeom/pkg/config"
	"github.com/TFMV/coordgeom/pkg/eval"
	"github.com/TFMV/coordgeom/pkg/metrics"
)

// decodeArg decodes a command-line argument as JSON. Arguments that are not
// valid JSON are passed on as strings and rejected by the geometry layer.
func decodeArg(s string) interface{} {
	var v interface{}
	if err := sonic.UnmarshalString(s, &v); err != nil {
		return s
	}
	return v
}

func namedArgs(names []string, values []string) eval.Args {
	args := make(eval.Args, len(names))
	for i, name := range names {
		args[name] = decodeArg(values[i])
	}
	return args
}

// run evaluates req locally or on the configured server and prints the result
func (c *cli) run(cmd *cobra.Command, req eval.Request) error {
	var res eval.Result
	if c.serverURL != "" {
		var err error
		res, err = api.NewClient(c.serverURL).Evaluate(cmd.Context(), req)
		if err != nil {
			return err
		}
	} else {
		res = c.evaluator(nil).Evaluate(req)
	}

	if c.jsonOutput {
		if err := c.printJSON(res); err != nil {
			return err
		}
	} else if !res.Failed() {
		fmt.Fprintln(c.out, formatValue(res.Value))
	}

	if res.Failed() {
		if res.Kind != "" {
			return fmt.Errorf("%s: %s", res.Kind, res.Error)
		}
		return errors.New(res.Error)
	}
	return nil
}

func (c *cli) printJSON(v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func (c *cli) parallelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parallel M B1 B2",
		Short: "Distance between the parallel lines y = M*x + B1 and y = M*x + B2",
		Long: `Distance between the parallel lines y = M*x + B1 and y = M*x + B2.

Put -- before the arguments when any of them is negative, otherwise it is
read as a flag:

  coordgeom parallel -- 2 4 -1`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, eval.Request{
				Op:   eval.ParallelDistance,
				Args: namedArgs([]string{"m", "b1", "b2"}, args),
			})
		},
	}
}

func (c *cli) distanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distance X1 X2",
		Short: "Distance between two vectors",
		Long: `Distance between two vectors of equal length.

Metrics: euclidean, manhattan, chebyshev, minkowski (requires --p).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqArgs := namedArgs([]string{"x1", "x2"}, args)

			metric, _ := cmd.Flags().GetString("metric")
			if metric != "" {
				reqArgs["metric"] = metric
			}
			if cmd.Flags().Changed("p") {
				p, _ := cmd.Flags().GetString("p")
				reqArgs["p"] = decodeArg(p)
			}

			return c.run(cmd, eval.Request{Op: eval.VectorDistance, Args: reqArgs})
		},
	}
	cmd.Flags().String("metric", "", "distance metric (default from geometry.default_metric)")
	cmd.Flags().String("p", "", "Minkowski order")
	return cmd
}

func (c *cli) intersectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intersect M1 B1 M2 B2",
		Short: "Whether two 3-D lines, each a direction and a point, intersect",
		Long: `Whether two 3-D lines intersect. Components are rounded to integers
first; parallel lines, including coincident ones, do not intersect.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, eval.Request{
				Op:   eval.LinesIntersect3D,
				Args: namedArgs([]string{"m1", "b1", "m2", "b2"}, args),
			})
		},
	}
}

func (c *cli) orthogonalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orthogonal M1 M2",
		Short: "Whether two vectors are orthogonal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, eval.Request{
				Op:   eval.VectorsOrthogonal,
				Args: namedArgs([]string{"m1", "m2"}, args),
			})
		},
	}
}

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch PATH",
		Short: "Evaluate the requests in a JSON, JSON-lines or CSV file, or a directory of them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}

			if info.IsDir() {
				if c.serverURL != "" {
					return errors.New("directories can only be evaluated locally")
				}
				out, err := loader.EvaluateDirectory(cmd.Context(), path, c.evaluator(nil), c.log)
				if err != nil {
					return err
				}
				return c.printJSON(out)
			}

			reqs, err := loader.LoadFile(path, c.log)
			if err != nil {
				return err
			}

			var results []eval.Result
			if c.serverURL != "" {
				results, err = api.NewClient(c.serverURL).Batch(cmd.Context(), reqs)
			} else {
				results, err = c.evaluator(nil).EvaluateAll(cmd.Context(), reqs)
			}
			if err != nil {
				return err
			}
			return c.printJSON(results)
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the coordgeom HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var collector *metrics.Collector
			if c.cfg.Server.EnableMetrics {
				collector = metrics.NewCollector(true)
			}

			server := api.NewServer(api.OptionsFromConfig(c.cfg.Server), c.evaluator(collector), collector, c.log)
			c.log.Info("coordgeom server starting",
				zap.String("version", version),
				zap.String("address", server.Addr()),
				zap.Bool("metrics", c.cfg.Server.EnableMetrics),
			)
			return server.Start()
		},
	}

	// Add server-specific flags
	cmd.Flags().String("host", "localhost", "server host")
	cmd.Flags().Int("port", 8080, "server port")
	cmd.Flags().Bool("prefork", false, "spawn one server process per CPU")
	cmd.Flags().Bool("metrics", true, "expose Prometheus metrics on /metrics")

	// Bind flags to viper
	for key, flag := range map[string]string{
		"server.host":           "host",
		"server.port":           "port",
		"server.prefork":        "prefork",
		"server.enable_metrics": "metrics",
	} {
		if err := c.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
		}
	}
	return cmd
}

func (c *cli) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration and any validation issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.printJSON(c.cfg); err != nil {
				return err
			}
			fmt.Fprintln(c.out, config.FormatValidationIssues(config.Validate(c.cfg)))
			return nil
		},
	}
}
