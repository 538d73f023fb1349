package aquaox

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hhkbp2/go-logging"
	"gopkg.in/yaml.v3"
)

// Format selects the decoder for a saturation document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// saturationDocument is the on-disk layout of a saturation table:
//
//	{"metadata": {"temperature_range": {"step": 1}, "salinity_range": {"step": 0.5}, "unit": "mg/L"},
//	 "data": [[14.62, 14.57, ...], ...]}
type saturationDocument struct {
	Metadata struct {
		TemperatureRange axisRange `json:"temperature_range" yaml:"temperature_range"`
		SalinityRange    axisRange `json:"salinity_range" yaml:"salinity_range"`
		Unit             *string   `json:"unit" yaml:"unit"`
	} `json:"metadata" yaml:"metadata"`
	Data [][]float64 `json:"data" yaml:"data"`
}

type axisRange struct {
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step *float64 `json:"step" yaml:"step"`
}

// LoadSaturationTable reads the saturation table at path. The format follows the file
// extension (.json, .yaml, .yml), optionally gzip-compressed with a trailing .gz.
//
// A missing file yields a *DataNotFoundError; anything that cannot be decoded into a
// table covering the full temperature and salinity domain yields a *DataFormatError.
func LoadSaturationTable(path string) (*SaturationTable, error) {
	logger := logging.GetLogger("aquaox")

	f, err := os.Open(path)
	if err != nil {
		return nil, &DataNotFoundError{Path: path, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gf, gerr := gzip.NewReader(f)
		if gerr != nil {
			return nil, &DataFormatError{Path: path, Err: gerr}
		}
		defer gf.Close()
		r = gf
	}

	table, err := DecodeSaturationTable(r, formatFromPath(path))
	if err != nil {
		return nil, withPath(err, path)
	}
	if err := table.CheckCoverage(); err != nil {
		return nil, withPath(err, path)
	}

	rows, cols := table.Dims()
	logger.Infof("saturation table loaded: %s (%dx%d, %s)", path, rows, cols, table.Unit())
	return table, nil
}

// DecodeSaturationTable decodes a saturation document from r. Unlike
// LoadSaturationTable it does not require full domain coverage.
func DecodeSaturationTable(r io.Reader, format Format) (*SaturationTable, error) {
	var doc saturationDocument
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, &DataFormatError{Err: fmt.Errorf("decode json: %w", err)}
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, &DataFormatError{Err: fmt.Errorf("decode yaml: %w", err)}
		}
	default:
		return nil, &DataFormatError{Err: fmt.Errorf("unsupported format %q", format)}
	}

	md := doc.Metadata
	switch {
	case md.TemperatureRange.Step == nil:
		return nil, &DataFormatError{Err: errors.New("missing metadata.temperature_range.step")}
	case md.SalinityRange.Step == nil:
		return nil, &DataFormatError{Err: errors.New("missing metadata.salinity_range.step")}
	case md.Unit == nil:
		return nil, &DataFormatError{Err: errors.New("missing metadata.unit")}
	case doc.Data == nil:
		return nil, &DataFormatError{Err: errors.New("missing data")}
	}

	return NewSaturationTable(doc.Data, *md.TemperatureRange.Step, *md.SalinityRange.Step, *md.Unit)
}

func withPath(err error, path string) error {
	var fe *DataFormatError
	if errors.As(err, &fe) {
		fe.Path = path
	}
	return err
}

// formatFromPath picks the decoder from the extension, ignoring a trailing .gz.
// Unknown extensions are read as JSON.
func formatFromPath(path string) Format {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".gz")
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
