package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/sustainlab/ecopipe/pkg/dataset"
	"github.com/sustainlab/ecopipe/pkg/sustain"
	"github.com/sustainlab/ecopipe/pkg/train"
	"gonum.org/v1/gonum/stat"
)

// Row summarizes one perturbation: a single driver column scaled by Factor,
// everything else held at baseline.
type Row struct {
	Driver          string  `json:"driver"`
	Column          string  `json:"column"`
	Factor          float64 `json:"factor"`
	MeanPrediction  float64 `json:"mean_prediction"`
	DeltaPrediction float64 `json:"delta_prediction"`
	MeanEnergy      float64 `json:"mean_energy"`
	MeanCO2         float64 `json:"mean_co2"`
	DeltaCO2        float64 `json:"delta_co2"`
	MeanMCI         float64 `json:"mean_mci"`
}

// Report is the sensitivity of the selected model's predictions and v1 proxy
// scores to driver perturbations.
type Report struct {
	Baseline Row   `json:"baseline"`
	Rows     []Row `json:"rows"`
}

// Run perturbs each v1 driver by every factor and re-scores with the model
// and the v1 proxy. Rows are ordered driver-alphabetical then
// factor-ascending, so repeated runs produce identical reports.
func Run(f *dataset.Frame, m *train.Model, weights map[string]float64, factors []float64) (*Report, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("no perturbation factors configured")
	}
	for _, fac := range factors {
		if fac <= 0 {
			return nil, fmt.Errorf("perturbation factor must be positive, got %v", fac)
		}
	}

	basePred, err := m.Predict(f)
	if err != nil {
		return nil, fmt.Errorf("baseline prediction: %w", err)
	}
	baseProxy, err := sustain.V1(f, basePred, weights)
	if err != nil {
		return nil, fmt.Errorf("baseline proxy: %w", err)
	}

	report := &Report{
		Baseline: Row{
			Driver:         "baseline",
			Factor:         1,
			MeanPrediction: stat.Mean(basePred, nil),
			MeanEnergy:     stat.Mean(baseProxy.Energy, nil),
			MeanCO2:        stat.Mean(baseProxy.CO2, nil),
			MeanMCI:        stat.Mean(baseProxy.MCI, nil),
		},
	}

	drivers := make([]string, 0, len(baseProxy.Drivers))
	for d := range baseProxy.Drivers {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)

	sorted := append([]float64(nil), factors...)
	sort.Float64s(sorted)

	for _, driver := range drivers {
		col := baseProxy.Drivers[driver]
		for _, factor := range sorted {
			row, err := perturb(f, m, weights, driver, col, factor, report.Baseline)
			if err != nil {
				return nil, err
			}
			report.Rows = append(report.Rows, row)
		}
	}

	return report, nil
}

func perturb(f *dataset.Frame, m *train.Model, weights map[string]float64, driver, col string, factor float64, baseline Row) (Row, error) {
	scaled := f.Clone()
	vals, err := scaled.Column(col)
	if err != nil {
		return Row{}, err
	}
	for i := range vals {
		vals[i] *= factor
	}

	pred, err := m.Predict(scaled)
	if err != nil {
		return Row{}, fmt.Errorf("scenario %s x%v: %w", driver, factor, err)
	}
	proxy, err := sustain.V1(scaled, pred, weights)
	if err != nil {
		return Row{}, fmt.Errorf("scenario %s x%v: %w", driver, factor, err)
	}

	row := Row{
		Driver:         driver,
		Column:         col,
		Factor:         factor,
		MeanPrediction: stat.Mean(pred, nil),
		MeanEnergy:     stat.Mean(proxy.Energy, nil),
		MeanCO2:        stat.Mean(proxy.CO2, nil),
		MeanMCI:        stat.Mean(proxy.MCI, nil),
	}
	row.DeltaPrediction = row.MeanPrediction - baseline.MeanPrediction
	row.DeltaCO2 = row.MeanCO2 - baseline.MeanCO2
	return row, nil
}

// WriteCSV persists the report rows (baseline first).
func (r *Report) WriteCSV(path string) (retErr error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	w := csv.NewWriter(out)
	header := []string{"driver", "column", "factor", "mean_prediction", "delta_prediction", "mean_energy", "mean_co2", "delta_co2", "mean_mci"}
	if err := w.Write(header); err != nil {
		return err
	}

	writeRow := func(row Row) error {
		return w.Write([]string{
			row.Driver,
			row.Column,
			formatFloat(row.Factor),
			formatFloat(row.MeanPrediction),
			formatFloat(row.DeltaPrediction),
			formatFloat(row.MeanEnergy),
			formatFloat(row.MeanCO2),
			formatFloat(row.DeltaCO2),
			formatFloat(row.MeanMCI),
		})
	}

	if err := writeRow(r.Baseline); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
