package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/nodepnl/series"
)

var csvHeader = []string{"factor_id", "date", "value"}

// ReadCSV parses factor_id,date,value rows into one Raw per factor, sorted by
// factor id. A header row is optional.
func ReadCSV(r io.Reader) ([]series.Raw, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	byFactor := map[string][]series.Point{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(rec[0], csvHeader[0]) {
			continue
		}

		t, err := time.Parse(dateLayout, strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := strings.TrimSpace(rec[0])
		byFactor[id] = append(byFactor[id], series.Point{Date: t, Value: v})
	}

	ids := make([]string, 0, len(byFactor))
	for id := range byFactor {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]series.Raw, 0, len(ids))
	for _, id := range ids {
		out = append(out, series.NewRaw(id, byFactor[id]))
	}
	return out, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]series.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes raws in the format ReadCSV accepts.
func WriteCSV(w io.Writer, raws ...series.Raw) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range raws {
		for _, p := range r.Points() {
			if err := cw.Write([]string{
				r.FactorID,
				p.Date.Format(dateLayout),
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
