package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/alcomo/errors"
	"github.com/nodeadmin/alcomo/mapping"
)

const sourceOWL = `<?xml version="1.0"?>
<rdf:RDF xml:base="http://example.org/source"
     xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
     xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <owl:Ontology rdf:about="http://example.org/source"/>
  <owl:Class rdf:about="#Person"/>
  <owl:Class rdf:about="#Document">
    <owl:disjointWith rdf:resource="#Person"/>
  </owl:Class>
  <owl:Class rdf:about="#Chimera">
    <rdfs:subClassOf rdf:resource="#Person"/>
    <rdfs:subClassOf rdf:resource="#Document"/>
  </owl:Class>
</rdf:RDF>`

const targetOWL = `<?xml version="1.0"?>
<rdf:RDF xml:base="http://example.org/target"
     xmlns:owl="http://www.w3.org/2002/07/owl#"
     xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
     xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <owl:Ontology rdf:about="http://example.org/target"/>
  <owl:Class rdf:about="#Human"/>
  <owl:Class rdf:about="#Author">
    <rdfs:subClassOf rdf:resource="#Human"/>
  </owl:Class>
  <owl:Class rdf:about="#Article">
    <owl:disjointWith rdf:resource="#Human"/>
  </owl:Class>
</rdf:RDF>`

const mappingTXT = `http://example.org/source#Person = http://example.org/target#Human | 0.9
http://example.org/source#Chimera = http://example.org/target#Article | 0.7
http://example.org/source#Document = http://example.org/target#Author | 0.4
http://example.org/source#Document = http://example.org/target#Article | 0.6
`

type inputs struct {
	dir, source, target, mapping string
}

func writeInputs(t *testing.T) inputs {
	t.Helper()
	dir := t.TempDir()
	in := inputs{
		dir:     dir,
		source:  filepath.Join(dir, "source.owl"),
		target:  filepath.Join(dir, "target.owl"),
		mapping: filepath.Join(dir, "mapping.txt"),
	}
	require.NoError(t, os.WriteFile(in.source, []byte(sourceOWL), 0o644))
	require.NoError(t, os.WriteFile(in.target, []byte(targetOWL), 0o644))
	require.NoError(t, os.WriteFile(in.mapping, []byte(mappingTXT), 0o644))
	return in
}

func (in inputs) args(command string, extra ...string) []string {
	args := []string{command, "--log-level", "error",
		"--source", in.source, "--target", in.target, "--mapping", in.mapping}
	return append(args, extra...)
}

func execute(args ...string) (stdout, stderr string, err error) {
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"repair", "conflicts", "classify", "check", "merge", "version"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "alcomo "+Version)
}

func TestRepairCmd(t *testing.T) {
	in := writeInputs(t)
	outPath := filepath.Join(in.dir, "repaired.txt")
	reportPath := filepath.Join(in.dir, "run.yaml")

	_, stderr, err := execute(in.args("repair", "--out", outPath, "--report", reportPath)...)
	require.NoError(t, err)

	repaired, err := mapping.ReadFile(outPath, mapping.FormatAuto)
	require.NoError(t, err)
	require.Len(t, repaired, 2)
	assert.Equal(t, "http://example.org/source#Person", repaired[0].Source)
	assert.Equal(t, "http://example.org/target#Article", repaired[1].Target)

	assert.Contains(t, stderr, "extracted 2 of 4", "the summary is printed alongside the report")

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "extracted: 2")
	assert.Contains(t, string(report), "completed: true")
}

func TestRepairCmd_Stdout(t *testing.T) {
	in := writeInputs(t)
	out, stderr, err := execute(in.args("repair", "--strategy", "greedy", "--reasoning", "pattern-only")...)
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.org/source#Chimera")
	assert.NotContains(t, out, "http://example.org/target#Author")
	assert.Contains(t, stderr, "extracted 3 of 4")
}

func TestRepairCmd_Threshold(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		summary string
		dropped []string
	}{
		{
			name:    "raw confidences",
			flags:   []string{"--threshold", "0.5"},
			summary: "extracted 3 of 4 correspondences (0 discarded, 0 non-referring, 1 below threshold)",
			dropped: []string{"http://example.org/target#Author"},
		},
		{
			name:    "normalized first",
			flags:   []string{"--normalize", "--threshold", "0.5"},
			summary: "extracted 2 of 4 correspondences (0 discarded, 0 non-referring, 2 below threshold)",
			dropped: []string{"http://example.org/target#Author", "http://example.org/source#Document"},
		},
		{
			name:    "threshold out of range",
			flags:   []string{"--threshold", "1.5"},
			summary: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := writeInputs(t)
			args := append([]string{"--strategy", "greedy", "--reasoning", "pattern-only"}, tt.flags...)
			out, stderr, err := execute(in.args("repair", args...)...)
			if tt.summary == "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, stderr, tt.summary)
			for _, iri := range tt.dropped {
				assert.NotContains(t, out, iri)
			}
		})
	}
}

func TestRepairCmd_SeedZeroAccepted(t *testing.T) {
	in := writeInputs(t)
	_, stderr, err := execute(in.args("repair", "--seed", "0", "--sensitivity")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, "completed=true")
}

func TestRepairCmd_InvalidCombination(t *testing.T) {
	in := writeInputs(t)
	_, _, err := execute(in.args("repair", "--strategy", "greedy-minimize")...)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
	assert.Contains(t, err.Error(), "extraction.reasoning")
}

func TestRepairCmd_MissingFlag(t *testing.T) {
	_, _, err := execute("repair", "--source", "a.owl")
	require.Error(t, err)
}

func TestConflictsCmd(t *testing.T) {
	in := writeInputs(t)
	out, stderr, err := execute(in.args("conflicts")...)
	require.NoError(t, err)
	assert.Contains(t, out, `<Cell cid="0">`)
	assert.Contains(t, out, `<correspondence cid="0">`)
	assert.Contains(t, out, `<conflictswith cid="2"/>`)
	assert.Contains(t, stderr, "2 conflicting pairs among 4 correspondences")
}

func TestCheckCmd(t *testing.T) {
	in := writeInputs(t)
	out, _, err := execute(in.args("check")...)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidMapping))
	assert.Contains(t, out, "http://example.org/target#Article")
}

func TestClassifyCmd(t *testing.T) {
	in := writeInputs(t)
	out, _, err := execute("classify", "--log-level", "error", "--ontology", in.source)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/source#Chimera\n", out)

	out, _, err = execute("classify", "--log-level", "error", "--ontology", in.target, "--reasoner", "naive")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClassifyCmd_JSON(t *testing.T) {
	in := writeInputs(t)
	out, _, err := execute("classify", "--log-level", "error", "--ontology", in.source, "--json")
	require.NoError(t, err)

	var got struct {
		IRI           string   `json:"iri"`
		Classes       int      `json:"classes"`
		Inconsistent  bool     `json:"inconsistent"`
		Unsatisfiable []string `json:"unsatisfiable"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "http://example.org/source", got.IRI)
	assert.Equal(t, 3, got.Classes)
	assert.False(t, got.Inconsistent)
	assert.Equal(t, []string{"http://example.org/source#Chimera"}, got.Unsatisfiable)
}

func TestMergeCmd(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte(`http://example.org/source#Person = http://example.org/target#Human | 0.9
http://example.org/source#Chimera = http://example.org/target#Article | 0.7
`), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`http://example.org/source#Person = http://example.org/target#Human | 0.5
http://example.org/source#Document = http://example.org/target#Author | 0.4
`), 0o644))

	tests := []struct {
		name    string
		flags   []string
		summary string
		kept    []string
		wantErr bool
	}{
		{
			name:    "equal weights and threshold",
			flags:   []string{"--threshold", "0.3"},
			summary: "merged 2 mappings into 2 correspondences (1 below threshold)",
			kept:    []string{"source#Person", "source#Chimera"},
		},
		{
			name:    "explicit weights",
			flags:   []string{"--weights", "1,0", "--threshold", "0.5"},
			summary: "merged 2 mappings into 2 correspondences (1 below threshold)",
			kept:    []string{"source#Person", "source#Chimera"},
		},
		{
			name:    "vote",
			flags:   []string{"--vote", "--threshold", "0.5"},
			summary: "merged 2 mappings into 1 correspondences (2 below threshold)",
			kept:    []string{"source#Person"},
		},
		{
			name:    "weight count mismatch",
			flags:   []string{"--weights", "1"},
			wantErr: true,
		},
		{
			name:    "weights with vote",
			flags:   []string{"--weights", "1,1", "--vote"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"merge", "--mapping", a, "--mapping", b}, tt.flags...)
			out, stderr, err := execute(args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidOperation))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, stderr, tt.summary)
			for _, iri := range tt.kept {
				assert.Contains(t, out, iri)
			}
		})
	}
}
