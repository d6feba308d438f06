package extraction

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nodeadmin/alcomo/errors"
)

// Report summarizes one Solve call.
type Report struct {
	RunID        string        `yaml:"run_id"`
	Strategy     string        `yaml:"strategy"`
	Reasoning    string        `yaml:"reasoning"`
	Completed    bool          `yaml:"completed"`
	Input        int           `yaml:"input"`
	Thresholded  int           `yaml:"thresholded"`
	NonReferring int           `yaml:"non_referring"`
	Extracted    int           `yaml:"extracted"`
	Discarded    int           `yaml:"discarded"`
	Trust        float64       `yaml:"trust"`
	Duration     time.Duration `yaml:"duration"`
	// Removed lists the keys of the discarded correspondences.
	Removed []string `yaml:"removed,omitempty"`
}

// WriteYAML writes r as a YAML document.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "encoding report")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "encoding report")
	}
	return nil
}
