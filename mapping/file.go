package mapping

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nodeadmin/alcomo/errors"
)

// Format selects a mapping file format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatTXT  Format = "txt"
	FormatXML  Format = "xml"
)

// DetectFormat maps a file extension to a format. Anything that is not
// .txt is read as Alignment XML.
func DetectFormat(path string, explicit Format) Format {
	if explicit != "" && explicit != FormatAuto {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".tsv":
		return FormatTXT
	}
	return FormatXML
}

// ReadFile reads a mapping from path.
func ReadFile(path string, format Format) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIO, "opening mapping").WithDetail(path)
	}
	defer f.Close()

	if DetectFormat(path, format) == FormatTXT {
		return ReadTXT(f)
	}
	return ReadXML(f)
}

// WriteFile writes m to path.
func WriteFile(path string, m Mapping, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIO, "creating mapping file").WithDetail(path)
	}
	defer f.Close()

	if DetectFormat(path, format) == FormatTXT {
		return WriteTXT(f, m)
	}
	return WriteXML(f, m, XMLOptions{})
}
