package mapping

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

// ReadTXT parses the line format "source <rel> target | confidence".
// Empty lines and lines starting with '#' are skipped.
func ReadTXT(r io.Reader) (Mapping, error) {
	var m Mapping
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := parseTXTLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeInvalidMapping, "line %d", lineNo).WithDetail(line)
		}
		m = append(m, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "reading mapping")
	}
	return m, nil
}

func parseTXTLine(line string) (Correspondence, error) {
	bar := strings.LastIndexByte(line, '|')
	if bar < 0 {
		return Correspondence{}, fmt.Errorf("missing '|' separator")
	}
	fields := strings.Fields(line[:bar])
	if len(fields) != 3 {
		return Correspondence{}, fmt.Errorf("expected 'source relation target', got %d fields", len(fields))
	}
	rel, err := ParseRelation(fields[1])
	if err != nil {
		return Correspondence{}, err
	}
	conf, err := parseConfidence(line[bar+1:])
	if err != nil {
		return Correspondence{}, err
	}
	return Correspondence{Source: fields[0], Target: fields[2], Relation: rel, Confidence: conf}, nil
}

// parseConfidence reads a float. Values outside [0,1] or literals that do
// not fit a float64 are re-read with arbitrary precision before they are
// accepted; negative and non-finite values are rejected.
func parseConfidence(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 1 {
		f, _, perr := big.ParseFloat(s, 10, 128, big.ToNearestEven)
		if perr != nil {
			return 0, fmt.Errorf("invalid confidence %q", s)
		}
		v, _ = f.Float64()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("confidence %q is not finite", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("confidence %q is negative", s)
	}
	return v, nil
}

// WriteTXT writes m in the line format read by ReadTXT.
func WriteTXT(w io.Writer, m Mapping) error {
	bw := bufio.NewWriter(w)
	for _, c := range m {
		if _, err := fmt.Fprintf(bw, "%s %s %s | %s\n", c.Source, c.Relation, c.Target,
			strconv.FormatFloat(c.Confidence, 'g', -1, 64)); err != nil {
			return errors.Wrap(err, errors.ErrCodeIO, "writing mapping")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "writing mapping")
	}
	return nil
}
