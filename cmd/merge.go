package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/mapping"
)

func newMergeCmd() *cobra.Command {
	var (
		paths     []string
		weights   []float64
		vote      bool
		threshold float64
		out       string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Combine the mappings of several matchers into one",
		Long: `Combine mappings produced for the same pair of ontologies. By default the
confidences are summed with the given weights (equal weights when none are
given). With --vote a correspondence found by more matchers always ranks
above one found by fewer.

Examples:
  alcomo merge --mapping a.rdf --mapping b.txt --out merged.rdf
  alcomo merge --mapping a.rdf --mapping b.txt --weights 0.7,0.3 --threshold 0.4
  alcomo merge --mapping a.rdf --mapping b.txt --mapping c.rdf --vote`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(paths) < 2 {
				return errors.New(errors.ErrCodeInvalidOperation, "merge needs at least two mappings")
			}
			if vote && len(weights) > 0 {
				return errors.New(errors.ErrCodeInvalidOperation, "--weights and --vote exclude each other")
			}
			inputs := make([]mapping.Mapping, len(paths))
			for i, path := range paths {
				m, err := mapping.ReadFile(path, mapping.FormatAuto)
				if err != nil {
					return err
				}
				inputs[i] = m
			}

			var merged mapping.Mapping
			if vote {
				family := mapping.NewFamily()
				for i, m := range inputs {
					family.Add(paths[i], m)
				}
				merged = family.MergeByVote()
			} else {
				var err error
				if merged, err = mapping.Join(inputs, weights); err != nil {
					return err
				}
			}
			merged, dropped := merged.Threshold(threshold)

			var err error
			if out != "" {
				err = mapping.WriteFile(out, merged, mapping.Format(format))
			} else {
				err = writeMapping(cmd.OutOrStdout(), merged, mapping.Format(format))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "merged %d mappings into %d correspondences (%d below threshold)\n",
				len(inputs), len(merged), dropped)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringArrayVar(&paths, "mapping", nil, "Input mapping, repeat for each matcher [REQUIRED]")
	fs.Float64SliceVar(&weights, "weights", nil, "One weight per mapping (default: equal)")
	fs.BoolVar(&vote, "vote", false, "Rank by the number of matchers agreeing, then by confidence")
	fs.Float64Var(&threshold, "threshold", 0, "Keep correspondences with confidence above this value")
	fs.StringVar(&out, "out", "", "Output mapping file (default: stdout)")
	fs.StringVar(&format, "format", string(mapping.FormatAuto), "Output format (auto|txt|xml)")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}
