package tracker

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/wonny/covidwatch/internal/covid"
)

// CSVFilename is the download name for a country export
func CSVFilename(name string) string {
	return fmt.Sprintf("%s_covid_data.csv", name)
}

// ExportCSV writes a header and one row for the named country
func (s *Service) ExportCSV(ctx context.Context, name string, w io.Writer) error {
	c, err := s.Country(ctx, name)
	if err != nil {
		return err
	}
	return WriteCSV(w, c)
}

// WriteCSV writes the flattened country record
func WriteCSV(w io.Writer, c covid.Country) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(covid.CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.Write(c.CSVRecord()); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
