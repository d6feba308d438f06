package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/extraction"
	"github.com/nodeadmin/alcomo/logging"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/metrics"
)

func newRepairCmd(g *globalOptions) *cobra.Command {
	var (
		in          inputFlags
		ef          extractionFlags
		out         string
		format      string
		reportPath  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Remove correspondences until the mapping is coherent",
		Long: `Load both ontologies and the mapping, run the configured search strategy and
write the extracted mapping. A summary line goes to stderr.

Interrupting the run while conflicts are still being computed reports every
correspondence as discarded and completed=false. Interrupting the search
itself returns its best result so far.

Examples:
  alcomo repair --source a.owl --target b.owl --mapping ab.rdf --out repaired.rdf
  alcomo repair --source a.owl --target b.owl --mapping ab.txt --strategy greedy --reasoning pattern-only
  alcomo repair --source a.owl --target b.owl --mapping ab.rdf --timeout 2m --report run.yaml
  alcomo repair --source a.owl --target b.owl --mapping ab.txt --normalize --threshold 0.3 --sensitivity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, cfg, log, err := setup(ctx, cmd, g, &in, &ef)
			if err != nil {
				return err
			}

			if metricsAddr == "" && cfg.Metrics.Enabled {
				metricsAddr = cfg.Metrics.Addr
			}
			if metricsAddr != "" {
				serveCtx, cancel := context.WithCancel(ctx)
				defer cancel()
				go func() {
					if err := metrics.Serve(serveCtx, metricsAddr); err != nil {
						log.Error("metrics endpoint failed", logging.Err(err))
					}
				}()
			}

			report, err := p.Solve(ctx)
			if err != nil {
				return err
			}
			extracted, err := p.Extracted()
			if err != nil {
				return err
			}

			if out != "" {
				err = mapping.WriteFile(out, extracted, mapping.Format(format))
			} else {
				err = writeMapping(cmd.OutOrStdout(), extracted, mapping.Format(format))
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "extracted %d of %d correspondences (%d discarded, %d non-referring, %d below threshold), completed=%t\n",
				report.Extracted, report.Input, report.Discarded, report.NonReferring, report.Thresholded, report.Completed)
			if reportPath != "" {
				return writeReport(reportPath, report)
			}
			return nil
		},
	}

	in.register(cmd)
	ef.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output mapping file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", string(mapping.FormatAuto), "Output format (auto|txt|xml)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML run report to this file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address while running")
	return cmd
}

// writeMapping writes to a stream; auto picks the text format.
func writeMapping(w io.Writer, m mapping.Mapping, format mapping.Format) error {
	if format == mapping.FormatXML {
		return mapping.WriteXML(w, m, mapping.XMLOptions{})
	}
	return mapping.WriteTXT(w, m)
}

func writeReport(path string, r *extraction.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "creating report").WithDetail(path)
	}
	defer f.Close()
	return r.WriteYAML(f)
}
