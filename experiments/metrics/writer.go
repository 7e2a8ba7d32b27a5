package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type RunRecord struct {
	ID      int
	Optimum float64
	SearchMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates a fresh directory <output>/<name>/<uuid> for the records of one experiment.
func NewWriter(output, name string) (*Writer, error) {
	baseDir := filepath.Join(output, name, uuid.NewString())
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

// WriteSetup dumps the experiment setup as YAML.
func (w *Writer) WriteSetup(setup any) error {
	data, err := yaml.Marshal(setup)
	if err != nil {
		return fmt.Errorf("failed to marshal setup: %w", err)
	}
	err = os.WriteFile(filepath.Join(w.baseDir, "setup.yaml"), data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write setup file: %w", err)
	}
	return nil
}

func (w *Writer) WriteRunRecords(records []RunRecord) error {
	header := []string{"id", "policy", "goroutines", "duration", "episodes", "expansions", "best_score", "optimum"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.ID),
			record.Policy,
			strconv.Itoa(record.Goroutines),
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.Expansions),
			formatFloat(record.BestScore),
			formatFloat(record.Optimum),
		})
	}
	return w.writeCSV("runs.csv", "run records", header, rows)
}

func (w *Writer) WriteEventRecords(records []EventRecord) error {
	header := []string{"run", "node", "visits", "scores_left", "scores_right", "evicted", "wins_left", "wins_right",
		"p_left_before", "p_right_before", "p_left", "p_right", "gamma"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Run),
			record.Node,
			strconv.Itoa(record.Visits),
			strconv.Itoa(record.ScoresLeft),
			strconv.Itoa(record.ScoresRight),
			strconv.FormatBool(record.Evicted),
			strconv.Itoa(record.WinsLeft),
			strconv.Itoa(record.WinsRight),
			formatFloat(record.PLeftBefore),
			formatFloat(record.PRightBefore),
			formatFloat(record.PLeft),
			formatFloat(record.PRight),
			formatFloat(record.Gamma),
		})
	}
	return w.writeCSV("events.csv", "event records", header, rows)
}

func (w *Writer) writeCSV(file, what string, header []string, rows [][]string) error {
	// Create a file
	path := filepath.Join(w.baseDir, file)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", what, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", what, err)
	}

	// Write each row
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", what, err)
		}
	}

	return nil
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
