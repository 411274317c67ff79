package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/couchcryptid/storm-track-archive/internal/domain"
)

// Writer emits archive rows in canonical column order.
type Writer struct {
	file *os.File
	csv  *csv.Writer
}

// Create creates (or truncates) an archive file and writes its header.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	w := &Writer{file: f, csv: csv.NewWriter(f)}
	if err := w.csv.Write(domain.Columns()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// WriteObservation appends one agency report.
func (w *Writer) WriteObservation(obs domain.Observation) error {
	cells := map[string]string{
		domain.ColSID:      obs.SID,
		domain.ColName:     obs.Name,
		domain.ColAgency:   string(obs.Agency),
		domain.ColATCFID:   obs.ATCFID,
		domain.ColISOTime:  obs.Time.UTC().Format(domain.TimeLayout),
		domain.ColNature:   string(obs.Classification),
		domain.ColLat:      formatFloat(obs.Lat),
		domain.ColLon:      formatFloat(obs.Lon),
		domain.ColWind:     formatOptional(obs.Wind),
		domain.ColPressure: formatOptional(obs.Pressure),
		domain.ColBasin:    string(obs.Basin),
		domain.ColSubbasin: string(obs.Subbasin),
		domain.ColRMW:      formatOptional(obs.RMW),
		domain.ColDistLand: formatOptional(obs.DistToLand),
	}
	quads := [3]domain.Quadrants{obs.Radii.R34, obs.Radii.R50, obs.Radii.R64}
	for i, col := range domain.RadiiColumns {
		cells[col] = formatOptional(quadrant(quads[i/4], i%4))
	}
	return w.WriteRow(cells)
}

// WriteRow appends raw cells keyed by column name. Cells under unknown
// columns are dropped; this is the escape hatch for writing
// deliberately broken rows in test archives.
func (w *Writer) WriteRow(cells map[string]string) error {
	columns := domain.Columns()
	record := make([]string, len(columns))
	for i, col := range columns {
		record[i] = cells[col]
	}
	return w.csv.Write(record)
}

// Close flushes buffered rows and releases the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush archive: %w", err)
	}
	return w.file.Close()
}

func quadrant(q domain.Quadrants, i int) *float64 {
	switch i {
	case 0:
		return q.NE
	case 1:
		return q.SE
	case 2:
		return q.SW
	}
	return q.NW
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
