package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/hierarchy"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/ontology"
	"github.com/nodeadmin/alcomo/reasoner"
)

func newConflictsCmd(g *globalOptions) *cobra.Command {
	var (
		in  inputFlags
		ef  extractionFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List the pairwise conflicts of a mapping",
		Long: `Write the referring part of the mapping in the extended Alignment format,
with cid attributes and a conflicts block listing every pair of
correspondences the pattern detector finds incompatible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, _, _, err := setup(ctx, cmd, g, &in, &ef)
			if err != nil {
				return err
			}
			pairs, err := p.ConflictPairs(ctx)
			if err != nil {
				return err
			}
			opts := mapping.XMLOptions{Extended: true, Conflicts: conflict.AsXMLConflicts(pairs)}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeIO, "creating output").WithDetail(out)
				}
				defer f.Close()
				w = f
			}
			if err := mapping.WriteXML(w, p.Referring(), opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d conflicting pairs among %d correspondences\n", len(pairs), len(p.Referring()))
			return nil
		},
	}
	in.register(cmd)
	ef.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}

// classification is the JSON form of the classify output.
type classification struct {
	ontology.Summary
	Inconsistent  bool     `json:"inconsistent"`
	Unsatisfiable []string `json:"unsatisfiable"`
}

func newClassifyCmd(g *globalOptions) *cobra.Command {
	var (
		path     string
		backend  string
		keepABox bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the unsatisfiable concepts of one ontology",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("reasoner") {
				backend = cfg.Extraction.Reasoner
			}
			classifier, err := reasoner.NewClassifier(backend)
			if err != nil {
				return err
			}
			ont, err := ontology.ParseFile(path)
			if err != nil {
				return err
			}
			h, err := hierarchy.Load(cmd.Context(), ont, classifier, hierarchy.Options{
				RemoveIndividuals: !keepABox,
				Workers:           cfg.Extraction.Workers,
				Logger:            log,
			})
			if err != nil {
				return err
			}

			unsat := []string{}
			for _, name := range h.UnsatisfiableNames() {
				if strings.HasSuffix(name, reasoner.DomainSuffix) || strings.HasSuffix(name, reasoner.RangeSuffix) {
					continue
				}
				unsat = append(unsat, name)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return ontology.WriteJSON(w, classification{
					Summary:       ontology.Summarize(ont),
					Inconsistent:  h.Inconsistent(),
					Unsatisfiable: unsat,
				}, true)
			}
			if h.Inconsistent() {
				fmt.Fprintln(w, "# ontology is inconsistent")
			}
			for _, name := range unsat {
				fmt.Fprintln(w, name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "ontology", "", "Ontology file [REQUIRED]")
	cmd.Flags().StringVar(&backend, "reasoner", reasoner.BackendSaturation, "Classifier backend (saturation|naive)")
	cmd.Flags().BoolVar(&keepABox, "keep-individuals", false, "Classify with individuals")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entity counts and unsatisfiable concepts as JSON")
	_ = cmd.MarkFlagRequired("ontology")
	return cmd
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	var (
		in inputFlags
		ef extractionFlags
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that a mapping is coherent",
		Long: `Merge both ontologies through the mapping and report the concepts that
become unsatisfiable. Exits non-zero when there is any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, _, _, err := setup(ctx, cmd, g, &in, &ef)
			if err != nil {
				return err
			}
			unsat, err := p.MergedUnsatisfiable(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(unsat) == 0 {
				fmt.Fprintf(w, "coherent: %d correspondences\n", len(p.Referring()))
				return nil
			}
			for _, name := range unsat {
				fmt.Fprintln(w, name)
			}
			return errors.Newf(errors.ErrCodeInvalidMapping, "mapping is incoherent: %d unsatisfiable concepts", len(unsat))
		},
	}
	in.register(cmd)
	ef.register(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "alcomo %s (%s)\n", Version, GitCommit)
		},
	}
}
