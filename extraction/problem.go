// Package extraction ties the pipeline together: it loads two ontologies
// and a mapping, binds the mapping to the ontologies, builds the conflict
// stores and runs a search strategy under the configured timeout.
package extraction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nodeadmin/alcomo/config"
	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/hierarchy"
	"github.com/nodeadmin/alcomo/logging"
	"github.com/nodeadmin/alcomo/mapping"
	"github.com/nodeadmin/alcomo/ontology"
	"github.com/nodeadmin/alcomo/reasoner"
	"github.com/nodeadmin/alcomo/search"
)

// Options controls New.
type Options struct {
	Extraction config.Extraction
	// CacheSize of the complete reasoner's verdict cache; 0 means the
	// default.
	CacheSize int
	Logger    logging.Logger
}

// Problem is one extraction run over a source ontology, a target ontology
// and a mapping between them.
type Problem struct {
	cfg       config.Extraction
	cacheSize int
	log       logging.Logger

	source, target *hierarchy.Hierarchy
	input          mapping.Mapping
	thresholded    int
	referring      mapping.Mapping
	nonReferring   mapping.Mapping
	detector       *conflict.Detector
	complete       *conflict.Complete

	result *search.Result
}

// New validates the options and returns an empty problem.
func New(opts Options) (*Problem, error) {
	cfg := &config.Config{Extraction: opts.Extraction, Cache: config.Cache{Size: opts.CacheSize}}
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Problem{
		cfg:       cfg.Extraction,
		cacheSize: cfg.Cache.Size,
		log:       logging.OrNop(opts.Logger).Named("extraction"),
	}, nil
}

// Init loads both ontologies concurrently, reads the mapping and binds it.
func (p *Problem) Init(ctx context.Context, sourcePath, targetPath, mappingPath string) error {
	classifier, err := reasoner.NewClassifier(p.cfg.Reasoner)
	if err != nil {
		return err
	}

	var source, target *hierarchy.Hierarchy
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := p.load(gctx, sourcePath, classifier)
		source = h
		return err
	})
	g.Go(func() error {
		h, err := p.load(gctx, targetPath, classifier)
		target = h
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	m, err := mapping.ReadFile(mappingPath, mapping.FormatAuto)
	if err != nil {
		return err
	}
	p.log.Info("mapping loaded", logging.String("path", mappingPath), logging.Int("correspondences", len(m)))
	return p.InitWith(source, target, m)
}

func (p *Problem) load(ctx context.Context, path string, classifier reasoner.Classifier) (*hierarchy.Hierarchy, error) {
	p.log.Info("loading ontology", logging.String("path", path))
	ont, err := ontology.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return hierarchy.Load(ctx, ont, classifier, hierarchy.Options{
		Properties:        p.cfg.Properties(),
		RemoveIndividuals: p.cfg.RemoveIndividuals,
		Workers:           p.cfg.Workers,
		Logger:            p.log,
	})
}

// InitWith binds m to already loaded hierarchies. Confidences are
// rescaled and thresholded first when configured. Correspondences that do
// not refer to bound entities, or refer to properties when only concepts
// are extracted, are set aside as non-referring.
func (p *Problem) InitWith(source, target *hierarchy.Hierarchy, m mapping.Mapping) error {
	if source == nil || target == nil {
		return errors.New(errors.ErrCodeInvalidOperation, "source and target hierarchies are required")
	}
	p.source, p.target = source, target
	p.input = m.Copy()

	candidates := p.input.Copy()
	if p.cfg.Normalize {
		if err := candidates.Rescale(0, 1); err != nil {
			return err
		}
	}
	p.thresholded = 0
	if p.cfg.Threshold > 0 {
		candidates, p.thresholded = candidates.Threshold(p.cfg.Threshold)
		if p.thresholded > 0 {
			p.log.Info("correspondences below threshold dropped",
				logging.Int("count", p.thresholded),
				logging.Float64("threshold", p.cfg.Threshold))
		}
	}
	p.referring, p.nonReferring = mapping.Bind(candidates,
		scope{source, p.cfg.Properties()}, scope{target, p.cfg.Properties()})
	p.detector = conflict.NewDetector(source, target, p.cfg.Policy())
	p.complete = nil
	p.result = nil

	if len(p.nonReferring) > 0 {
		p.log.Warn("correspondences do not refer to bound entities",
			logging.Int("count", len(p.nonReferring)))
	}
	return nil
}

// scope restricts a hierarchy's entities to concepts unless properties
// take part.
type scope struct {
	h          *hierarchy.Hierarchy
	properties bool
}

func (s scope) HasEntity(uri string) bool {
	e, err := s.h.Entity(uri)
	if err != nil {
		return false
	}
	return s.properties || !e.IsProperty()
}

// Solve runs the configured strategy and reports the result. The search is
// bounded by the configured timeout; when it expires the best partition
// found so far is reported as not completed. A cancellation before the
// search starts, while conflicts are precomputed, reports every referring
// correspondence as discarded.
func (p *Problem) Solve(ctx context.Context) (*Report, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	reasoning := search.Reasoning(p.cfg.Reasoning)

	store, err := p.store(ctx, reasoning)
	if err != nil {
		return p.abandon(ctx, err, start)
	}
	if p.cfg.Sensitivity {
		if reasoning == search.BruteForce {
			p.log.Warn("sensitivity needs pattern conflicts, ignored with brute-force reasoning")
		} else {
			store.Reweight()
		}
	}
	opts := search.Options{Reasoning: reasoning, Logger: p.log}
	if reasoning.Complete() {
		if opts.Complete, err = p.completeReasoner(ctx); err != nil {
			return p.abandon(ctx, err, start)
		}
	}
	session, err := search.NewSession(store, opts)
	if err != nil {
		return nil, err
	}
	strategy, err := search.New(p.cfg.Strategy, session)
	if err != nil {
		return nil, err
	}

	res, err := p.run(ctx, strategy)
	if err != nil {
		return nil, err
	}
	return p.finish(strategy.Name(), res, start), nil
}

// abandon turns a cancellation before the search into an empty, not
// completed extraction. Other errors pass through.
func (p *Problem) abandon(ctx context.Context, err error, start time.Time) (*Report, error) {
	if ctx.Err() == nil {
		return nil, err
	}
	p.log.Warn("cancelled before the search started, discarding every correspondence", logging.Err(err))
	res := search.Result{Active: mapping.Mapping{}, Inactive: p.referring.Copy()}
	return p.finish(p.cfg.Strategy, res, start), nil
}

func (p *Problem) finish(strategy string, res search.Result, start time.Time) *Report {
	p.result = &res
	report := &Report{
		RunID:        uuid.NewString(),
		Strategy:     strategy,
		Reasoning:    p.cfg.Reasoning,
		Completed:    res.Completed,
		Input:        len(p.input),
		Thresholded:  p.thresholded,
		NonReferring: len(p.nonReferring),
		Extracted:    len(res.Active),
		Discarded:    len(res.Inactive),
		Trust:        res.Trust(),
		Duration:     time.Since(start),
		Removed:      keys(res.Inactive),
	}
	p.log.Info("extraction finished",
		logging.String("run_id", report.RunID),
		logging.Int("extracted", report.Extracted),
		logging.Int("discarded", report.Discarded),
		logging.Bool("completed", report.Completed))
	return report
}

func (p *Problem) run(ctx context.Context, strategy search.Strategy) (search.Result, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}
	res, err := strategy.Run(ctx)
	if err != nil {
		return search.Result{}, err
	}
	if !res.Completed {
		p.log.Warn("search cut short, using best partition found", logging.Duration("timeout", p.cfg.Timeout))
	}
	return res, nil
}

func (p *Problem) store(ctx context.Context, reasoning search.Reasoning) (*conflict.Store, error) {
	opts := p.storeOptions()
	if reasoning == search.BruteForce {
		return conflict.NewEmptyStore(p.referring, opts), nil
	}
	return conflict.NewStore(ctx, p.referring, p.detector, opts)
}

func (p *Problem) storeOptions() conflict.StoreOptions {
	return conflict.StoreOptions{Seed: p.cfg.Seed, Workers: p.cfg.Workers, Logger: p.log}
}

func (p *Problem) completeReasoner(ctx context.Context) (*conflict.Complete, error) {
	if p.complete != nil {
		p.complete.ResetValidated()
		return p.complete, nil
	}
	c, err := conflict.NewComplete(ctx, p.source, p.target, conflict.CompleteOptions{
		RangeExtension: p.cfg.RangeExtension,
		CacheSize:      p.cacheSize,
		Logger:         p.log,
	})
	if err != nil {
		return nil, err
	}
	p.complete = c
	return c, nil
}

func (p *Problem) ready() error {
	if p.source == nil {
		return errors.New(errors.ErrCodeInvalidOperation, "problem is not initialized")
	}
	return nil
}

func (p *Problem) solved() error {
	if p.result == nil {
		return errors.New(errors.ErrCodeInvalidOperation, "problem is not solved")
	}
	return nil
}

// Input returns the mapping as read.
func (p *Problem) Input() mapping.Mapping { return p.input }

// Referring returns the correspondences that take part in the search.
func (p *Problem) Referring() mapping.Mapping { return p.referring }

// NonReferring returns the correspondences set aside by binding.
func (p *Problem) NonReferring() mapping.Mapping { return p.nonReferring }

// Extracted returns the coherent subset found by Solve.
func (p *Problem) Extracted() (mapping.Mapping, error) {
	if err := p.solved(); err != nil {
		return nil, err
	}
	return p.result.Active, nil
}

// Discarded returns the correspondences Solve removed.
func (p *Problem) Discarded() (mapping.Mapping, error) {
	if err := p.solved(); err != nil {
		return nil, err
	}
	return p.result.Inactive, nil
}

// IsCoherentExtraction checks the extracted mapping with the complete
// reasoner, whatever reasoning mode the search used.
func (p *Problem) IsCoherentExtraction(ctx context.Context) (bool, error) {
	if err := p.solved(); err != nil {
		return false, err
	}
	c, err := p.completeReasoner(ctx)
	if err != nil {
		return false, err
	}
	conflicting, err := c.IsConflictSet(ctx, p.result.Active)
	if err != nil {
		return false, err
	}
	return !conflicting, nil
}

// LocalUnsatisfiable returns the concepts that are unsatisfiable in the
// source and target ontologies on their own.
func (p *Problem) LocalUnsatisfiable() (source, target []string, err error) {
	if err := p.ready(); err != nil {
		return nil, nil, err
	}
	return p.source.UnsatisfiableNames(), p.target.UnsatisfiableNames(), nil
}

// MergedUnsatisfiable returns the concepts the referring mapping makes
// unsatisfiable in the merged ontology.
func (p *Problem) MergedUnsatisfiable(ctx context.Context) ([]string, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	c, err := p.completeReasoner(ctx)
	if err != nil {
		return nil, err
	}
	return c.UnsatisfiableClasses(ctx, p.referring)
}

// ConflictPairs enumerates the pairwise pattern conflicts of the referring
// mapping. Indices refer to Referring().
func (p *Problem) ConflictPairs(ctx context.Context) ([]conflict.Pair, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	return conflict.Pairs(ctx, p.referring, p.detector, p.storeOptions())
}

// IncoherenceDegree is the share of the referring mapping an optimal
// pattern-based diagnosis removes.
func (p *Problem) IncoherenceDegree(ctx context.Context) (float64, error) {
	if err := p.ready(); err != nil {
		return 0, err
	}
	if len(p.referring) == 0 {
		return 0, nil
	}
	store, err := conflict.NewStore(ctx, p.referring, p.detector, p.storeOptions())
	if err != nil {
		return 0, err
	}
	session, err := search.NewSession(store, search.Options{Reasoning: search.PatternOnly, Logger: p.log})
	if err != nil {
		return 0, err
	}
	res, err := p.run(ctx, search.NewAStar(session))
	if err != nil {
		return 0, err
	}
	return float64(len(res.Inactive)) / float64(len(p.referring)), nil
}

func keys(m mapping.Mapping) []string {
	out := make([]string, len(m))
	for i, c := range m {
		out[i] = c.Key()
	}
	return out
}
