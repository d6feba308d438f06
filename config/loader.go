package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/nodeadmin/alcomo/errors"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "ALCOMO"

// newViper builds a Viper instance with YAML files, ALCOMO_ env overrides
// and "." mapped to "_", so that extraction.strategy resolves to
// ALCOMO_EXTRACTION_STRATEGY. Every key gets a default so that env
// overrides reach Unmarshal even without a file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := Default()
	e := d.Extraction
	v.SetDefault("extraction.strategy", e.Strategy)
	v.SetDefault("extraction.entities", e.Entities)
	v.SetDefault("extraction.reasoning", e.Reasoning)
	v.SetDefault("extraction.one_to_one", e.OneToOne)
	v.SetDefault("extraction.one_to_many", e.OneToMany)
	v.SetDefault("extraction.many_to_one", e.ManyToOne)
	v.SetDefault("extraction.one_to_one_only_equiv", e.OneToOneOnlyEquiv)
	v.SetDefault("extraction.range_extension", e.RangeExtension)
	v.SetDefault("extraction.remove_individuals", e.RemoveIndividuals)
	v.SetDefault("extraction.disable_reasoning", e.DisableReasoning)
	v.SetDefault("extraction.reasoner", e.Reasoner)
	v.SetDefault("extraction.workers", e.Workers)
	v.SetDefault("extraction.timeout", e.Timeout)
	v.SetDefault("extraction.seed", *e.Seed)
	v.SetDefault("extraction.normalize", e.Normalize)
	v.SetDefault("extraction.threshold", e.Threshold)
	v.SetDefault("extraction.sensitivity", e.Sensitivity)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("cache.size", d.Cache.Size)
}

// Load reads the YAML file at path, merges ALCOMO_* environment overrides,
// applies defaults for unset fields and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "reading config file").WithDetail(path)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from ALCOMO_* environment variables and
// defaults only.
//
//	ALCOMO_<SECTION>_<FIELD>   e.g.  ALCOMO_EXTRACTION_STRATEGY, ALCOMO_LOG_LEVEL
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "decoding configuration")
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
