// Package report exports picked peaks as YAML or JSON documents
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/peaks"
)

// Report is the exported summary of one run
type Report struct {
	Spectrum   string         `json:"spectrum" yaml:"spectrum"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Peaks      []PeakEntry    `json:"peaks" yaml:"peaks"`
	Charges    []ChargeEntry  `json:"charges,omitempty" yaml:"charges,omitempty"`
}

// PeakEntry holds the exported fields of one peak
type PeakEntry struct {
	Label          string        `json:"label" yaml:"label"`
	Mass           float64       `json:"mass" yaml:"mass"`
	Height         float64       `json:"height" yaml:"height"`
	Ignored        bool          `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Marker         string        `json:"marker" yaml:"marker"`
	Color          [3]float64    `json:"color" yaml:"color,flow"`
	ErrorFWHM      float64       `json:"error_fwhm" yaml:"error_fwhm"`
	ErrorMean      float64       `json:"error_mean" yaml:"error_mean"`
	Area           float64       `json:"area" yaml:"area"`
	KendrickNumber float64       `json:"kendrick_number,omitempty" yaml:"kendrick_number,omitempty"`
	KendrickDefect float64       `json:"kendrick_defect,omitempty" yaml:"kendrick_defect,omitempty"`
	ChargeStates   []ChargeEntry `json:"charge_states,omitempty" yaml:"charge_states,omitempty"`
}

// ChargeEntry is one charge state with its m/z, when known
type ChargeEntry struct {
	Charge    int     `json:"charge" yaml:"charge"`
	MZ        float64 `json:"mz,omitempty" yaml:"mz,omitempty"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

// Build assembles a report. Masses are rounded to the peak list's bin
// precision; cfg and charges may be nil.
func Build(spectrumID string, cfg *config.EngineConfig, pks *peaks.Peaks, charges []peaks.ChargeState) (*Report, error) {
	r := &Report{Spectrum: spectrumID, Peaks: []PeakEntry{}}

	if cfg != nil {
		values, err := cfg.Values()
		if err != nil {
			return nil, fmt.Errorf("collecting parameters: %w", err)
		}
		r.Parameters = values
	}

	if pks != nil {
		precision := pks.Precision()
		for _, p := range pks.Items {
			entry := PeakEntry{
				Label:          p.Label,
				Mass:           core.RoundFloat(p.Mass, precision),
				Height:         p.Height,
				Ignored:        p.Ignore,
				Marker:         p.Marker,
				Color:          p.Color,
				ErrorFWHM:      p.ErrorFWHM,
				ErrorMean:      p.ErrorMean,
				Area:           p.Area,
				KendrickNumber: p.KendrickNum,
				KendrickDefect: p.KendrickDefect,
			}
			for _, ci := range p.ChargeTable {
				entry.ChargeStates = append(entry.ChargeStates, ChargeEntry{Charge: ci.Charge, MZ: ci.MZ, Intensity: ci.Intensity})
			}
			r.Peaks = append(r.Peaks, entry)
		}
	}

	for _, cs := range charges {
		r.Charges = append(r.Charges, ChargeEntry{Charge: cs.Charge, Intensity: cs.Intensity})
	}
	return r, nil
}

// WriteYAML writes the report as YAML
func WriteYAML(w io.Writer, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Write writes the report in the named format, "yaml" or "json"
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case "yaml", "yml":
		return WriteYAML(w, r)
	case "json":
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
