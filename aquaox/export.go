package aquaox

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Result labels, in report order.
const (
	LabelVolume    = "Pond Volume (m³)"
	LabelCs        = "Cs (mg/L)"
	LabelKLaT      = "KlaT (h⁻¹)"
	LabelKLa20     = "Kla20 (h⁻¹)"
	LabelSOTR      = "SOTR (kg O₂/h)"
	LabelSAE       = "SAE (kg O₂/kWh)"
	LabelCost      = "US$/kg O₂"
	LabelPower     = "Power (kW)"
	LabelAeratorID = "Normalized Aerator ID"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteTo writes one "label: value" line per field.
func (m AerationMetrics) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	line := func(label, value string) {
		buf.WriteString(label)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\n")
	}
	line(LabelVolume, formatFloat(m.Volume))
	line(LabelCs, formatFloat(m.Cs))
	line(LabelKLaT, formatFloat(m.KLaT))
	line(LabelKLa20, formatFloat(m.KLa20))
	line(LabelSOTR, formatFloat(m.SOTR))
	line(LabelSAE, formatFloat(m.SAE))
	line(LabelCost, formatFloat(m.CostPerKgO2))
	line(LabelPower, formatFloat(m.PowerKW))
	line(LabelAeratorID, m.AeratorID)
	return buf.WriteTo(w)
}

// ToCSV writes one row per batch result. Failed rows leave the metric columns
// empty and carry the error message.
func (r *BatchReport) ToCSV(buf *bytes.Buffer) error {
	w := csv.NewWriter(buf)
	header := []string{"row", LabelVolume, LabelCs, LabelKLaT, LabelKLa20, LabelSOTR, LabelSAE, LabelCost, LabelPower, LabelAeratorID, "error"}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, res := range r.Results {
		record := make([]string, len(header))
		record[0] = strconv.Itoa(i + 1)
		if res.Err != nil {
			record[len(header)-1] = res.Err.Error()
		} else {
			m := res.Metrics
			record[1] = formatFloat(m.Volume)
			record[2] = formatFloat(m.Cs)
			record[3] = formatFloat(m.KLaT)
			record[4] = formatFloat(m.KLa20)
			record[5] = formatFloat(m.SOTR)
			record[6] = formatFloat(m.SAE)
			record[7] = formatFloat(m.CostPerKgO2)
			record[8] = formatFloat(m.PowerKW)
			record[9] = m.AeratorID
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ToJSON writes the report as a JSON document.
func (r *BatchReport) ToJSON(buf *bytes.Buffer) error {
	type row struct {
		Test    AerationTest     `json:"test"`
		Metrics *AerationMetrics `json:"metrics,omitempty"`
		Error   string           `json:"error,omitempty"`
	}
	doc := struct {
		GeneratedAt string `json:"generated_at"`
		Rows        []row  `json:"rows"`
		Failed      int    `json:"failed"`
	}{
		GeneratedAt: r.GeneratedAt.UTC().Format(time.RFC3339),
		Rows:        make([]row, len(r.Results)),
		Failed:      r.Failed(),
	}
	for i, res := range r.Results {
		doc.Rows[i].Test = res.Test
		if res.Err != nil {
			doc.Rows[i].Error = res.Err.Error()
			continue
		}
		m := res.Metrics
		doc.Rows[i].Metrics = &m
	}

	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode batch report: %w", err)
	}
	return nil
}
