package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/nodeadmin/alcomo/config"
	"github.com/nodeadmin/alcomo/extraction"
	"github.com/nodeadmin/alcomo/logging"
)

// inputFlags name the two ontologies and the mapping.
type inputFlags struct {
	source  string
	target  string
	mapping string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "Source ontology (.owl, .rdf, .xml or .obo) [REQUIRED]")
	cmd.Flags().StringVar(&f.target, "target", "", "Target ontology (.owl, .rdf, .xml or .obo) [REQUIRED]")
	cmd.Flags().StringVar(&f.mapping, "mapping", "", "Mapping in Alignment XML or 'source rel target | confidence' text [REQUIRED]")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("mapping")
}

// extractionFlags override config.Extraction. Only flags set on the
// command line take effect.
type extractionFlags struct {
	strategy          string
	reasoning         string
	entities          string
	reasoner          string
	timeout           time.Duration
	oneToOne          bool
	oneToMany         bool
	manyToOne         bool
	rangeExtension    bool
	removeIndividuals bool
	disableReasoning  bool
	workers           int
	seed              int64
	threshold         float64
	normalize         bool
	sensitivity       bool
}

func (f *extractionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.strategy, "strategy", "", "Search strategy (greedy|greedy-minimize|optimal|optimal-one-to-one)")
	fs.StringVar(&f.reasoning, "reasoning", "", "Reasoning (pattern-only|pattern-then-complete|brute-force-complete)")
	fs.StringVar(&f.entities, "entities", "", "Entities taking part (concepts-only|concepts-and-properties)")
	fs.StringVar(&f.reasoner, "reasoner", "", "Classifier backend (saturation|naive)")
	fs.DurationVar(&f.timeout, "timeout", 0, "Search time limit, 0 for none")
	fs.BoolVar(&f.oneToOne, "one-to-one", false, "Reject correspondences sharing a source or a target")
	fs.BoolVar(&f.oneToMany, "one-to-many", false, "Reject correspondences sharing a target")
	fs.BoolVar(&f.manyToOne, "many-to-one", false, "Reject correspondences sharing a source")
	fs.BoolVar(&f.rangeExtension, "range-extension", false, "Compare property ranges as well as domains")
	fs.BoolVar(&f.removeIndividuals, "remove-individuals", true, "Strip individuals before classification")
	fs.BoolVar(&f.disableReasoning, "disable-reasoning", false, "Apply cardinality constraints only")
	fs.IntVar(&f.workers, "workers", 0, "Worker goroutines, 0 for one per CPU")
	fs.Int64Var(&f.seed, "seed", 0, "Seed for higher-order conflict keys (default from config)")
	fs.Float64Var(&f.threshold, "threshold", 0, "Drop correspondences with confidence at or below this value, 0 to keep all")
	fs.BoolVar(&f.normalize, "normalize", false, "Rescale confidences to [0,1] before thresholding")
	fs.BoolVar(&f.sensitivity, "sensitivity", false, "Lower the confidence of correspondences involved in many conflicts")
}

func (f *extractionFlags) apply(cmd *cobra.Command, e *config.Extraction) {
	changed := cmd.Flags().Changed
	if changed("strategy") {
		e.Strategy = f.strategy
	}
	if changed("reasoning") {
		e.Reasoning = f.reasoning
	}
	if changed("entities") {
		e.Entities = f.entities
	}
	if changed("reasoner") {
		e.Reasoner = f.reasoner
	}
	if changed("timeout") {
		e.Timeout = f.timeout
	}
	if changed("one-to-one") {
		e.OneToOne = f.oneToOne
	}
	if changed("one-to-many") {
		e.OneToMany = f.oneToMany
	}
	if changed("many-to-one") {
		e.ManyToOne = f.manyToOne
	}
	if changed("range-extension") {
		e.RangeExtension = f.rangeExtension
	}
	if changed("remove-individuals") {
		e.RemoveIndividuals = f.removeIndividuals
	}
	if changed("disable-reasoning") {
		e.DisableReasoning = f.disableReasoning
	}
	if changed("workers") {
		e.Workers = f.workers
	}
	if changed("seed") {
		seed := f.seed
		e.Seed = &seed
	}
	if changed("threshold") {
		e.Threshold = f.threshold
	}
	if changed("normalize") {
		e.Normalize = f.normalize
	}
	if changed("sensitivity") {
		e.Sensitivity = f.sensitivity
	}
}

// setup loads the configuration, applies the command line overrides and
// returns an initialized problem.
func setup(ctx context.Context, cmd *cobra.Command, g *globalOptions, in *inputFlags, ef *extractionFlags) (*extraction.Problem, *config.Config, logging.Logger, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, nil, nil, err
	}
	if ef != nil {
		ef.apply(cmd, &cfg.Extraction)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := extraction.New(extraction.Options{Extraction: cfg.Extraction, CacheSize: cfg.Cache.Size, Logger: log})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := p.Init(ctx, in.source, in.target, in.mapping); err != nil {
		return nil, nil, nil, err
	}
	return p, cfg, log, nil
}
