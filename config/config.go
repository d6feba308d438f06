// Package config provides configuration loading, defaults, and validation for
// mapping extraction runs.
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/logging"
)

// Option values.
const (
	EntitiesConcepts              = "concepts-only"
	EntitiesConceptsAndProperties = "concepts-and-properties"
)

// Config is the root configuration.
type Config struct {
	Extraction Extraction     `mapstructure:"extraction" yaml:"extraction"`
	Log        logging.Config `mapstructure:"log" yaml:"log"`
	Metrics    Metrics        `mapstructure:"metrics" yaml:"metrics"`
	Cache      Cache          `mapstructure:"cache" yaml:"cache"`
}

// Extraction controls how a mapping is repaired.
type Extraction struct {
	// Strategy is one of greedy, greedy-minimize, optimal, optimal-one-to-one.
	Strategy string `mapstructure:"strategy" yaml:"strategy" validate:"oneof=greedy greedy-minimize optimal optimal-one-to-one"`
	// Entities is concepts-only or concepts-and-properties.
	Entities string `mapstructure:"entities" yaml:"entities" validate:"oneof=concepts-only concepts-and-properties"`
	// Reasoning is pattern-only, pattern-then-complete or brute-force-complete.
	Reasoning string `mapstructure:"reasoning" yaml:"reasoning" validate:"oneof=pattern-only pattern-then-complete brute-force-complete"`

	OneToOne          bool `mapstructure:"one_to_one" yaml:"one_to_one"`
	OneToMany         bool `mapstructure:"one_to_many" yaml:"one_to_many"`
	ManyToOne         bool `mapstructure:"many_to_one" yaml:"many_to_one"`
	OneToOneOnlyEquiv bool `mapstructure:"one_to_one_only_equiv" yaml:"one_to_one_only_equiv"`

	RangeExtension    bool `mapstructure:"range_extension" yaml:"range_extension"`
	RemoveIndividuals bool `mapstructure:"remove_individuals" yaml:"remove_individuals"`
	DisableReasoning  bool `mapstructure:"disable_reasoning" yaml:"disable_reasoning"`

	// Reasoner is the classifier backend: saturation or naive.
	Reasoner string `mapstructure:"reasoner" yaml:"reasoner" validate:"oneof=saturation naive"`
	// Workers bounds conflict precomputation and ontology classification;
	// 0 uses every CPU.
	Workers int `mapstructure:"workers" yaml:"workers" validate:"gte=0"`
	// Timeout bounds the search; 0 means none.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
	// Seed drives the choice of key for stored higher-order conflicts.
	// Unset means conflict.DefaultSeed; 0 is a valid seed.
	Seed *int64 `mapstructure:"seed" yaml:"seed"`

	// Normalize rescales the input confidences onto [0,1] before the
	// threshold applies.
	Normalize bool `mapstructure:"normalize" yaml:"normalize"`
	// Threshold drops correspondences whose confidence is not above it.
	Threshold float64 `mapstructure:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	// Sensitivity scales each confidence by the share of the mapping it
	// does not conflict with before the search starts.
	Sensitivity bool `mapstructure:"sensitivity" yaml:"sensitivity"`
}

// Metrics controls the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// Cache sizes the complete reasoner's verdict cache.
type Cache struct {
	Size int `mapstructure:"size" yaml:"size" validate:"gte=0"`
}

// Policy returns the conflict detector policy.
func (e Extraction) Policy() conflict.Policy {
	return conflict.Policy{
		OneToOne:          e.OneToOne,
		OneToMany:         e.OneToMany,
		ManyToOne:         e.ManyToOne,
		OneToOneOnlyEquiv: e.OneToOneOnlyEquiv,
		DisableReasoning:  e.DisableReasoning,
		RangeExtension:    e.RangeExtension,
	}
}

// Properties reports whether properties take part in the extraction.
func (e Extraction) Properties() bool {
	return e.Entities == EntitiesConceptsAndProperties
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{
		Extraction: Extraction{
			RemoveIndividuals: true,
			OneToOneOnlyEquiv: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields. Boolean defaults can only be told apart
// from an explicit false by the loader; see Default.
func ApplyDefaults(cfg *Config) {
	e := &cfg.Extraction
	if e.Strategy == "" {
		e.Strategy = "optimal"
	}
	if e.Entities == "" {
		e.Entities = EntitiesConceptsAndProperties
	}
	if e.Reasoning == "" {
		e.Reasoning = "pattern-then-complete"
	}
	if e.Reasoner == "" {
		e.Reasoner = "saturation"
	}
	if e.Seed == nil {
		seed := int64(conflict.DefaultSeed)
		e.Seed = &seed
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Metrics.Addr == "" && cfg.Metrics.Enabled {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = conflict.DefaultCacheSize
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field values and option combinations. The error names
// the first offending option by its configuration key.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Newf(errors.ErrCodeInvalidConfig, "invalid value %v for option %s", fe.Value(), optionName(fe.Namespace())).
				WithDetail("rule " + fe.Tag())
		}
		return errors.Wrap(err, errors.ErrCodeInvalidConfig, "validating configuration")
	}

	e := c.Extraction
	if e.Strategy == "greedy-minimize" && e.Reasoning != "pattern-only" {
		return errors.Newf(errors.ErrCodeInvalidConfig,
			"option extraction.reasoning: strategy greedy-minimize supports only pattern-only, got %s", e.Reasoning)
	}
	if e.Strategy == "optimal-one-to-one" && e.Reasoning == "brute-force-complete" {
		return errors.New(errors.ErrCodeInvalidConfig,
			"option extraction.reasoning: strategy optimal-one-to-one does not support brute-force-complete")
	}
	return nil
}

// optionName turns a validator namespace such as Config.extraction.strategy
// into the configuration key.
func optionName(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
