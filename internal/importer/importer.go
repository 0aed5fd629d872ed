// Package importer loads lead profiles from CSV and XLSX files into the store.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/ccrestaurant/lead-intel/internal/model"
	"github.com/ccrestaurant/lead-intel/internal/store"
)

// columnSetters maps recognized header names to profile field assignments.
// Header matching is case-insensitive and ignores spaces and underscores.
var columnSetters = map[string]func(*model.LeadProfile, string){
	"companyname":       func(p *model.LeadProfile, v string) { p.CompanyName = v },
	"name":              func(p *model.LeadProfile, v string) { p.CompanyName = v },
	"website":           func(p *model.LeadProfile, v string) { p.Website = v },
	"url":               func(p *model.LeadProfile, v string) { p.Website = v },
	"phone":             func(p *model.LeadProfile, v string) { p.Phone = v },
	"email":             func(p *model.LeadProfile, v string) { p.Email = v },
	"address":           func(p *model.LeadProfile, v string) { p.Address = v },
	"town":              func(p *model.LeadProfile, v string) { p.Town = v },
	"city":              func(p *model.LeadProfile, v string) { p.Town = v },
	"cuisinetype":       func(p *model.LeadProfile, v string) { p.CuisineType = v },
	"cuisine":           func(p *model.LeadProfile, v string) { p.CuisineType = v },
	"servicestyle":      func(p *model.LeadProfile, v string) { p.ServiceStyle = v },
	"ownername":         func(p *model.LeadProfile, v string) { p.OwnerName = v },
	"owner":             func(p *model.LeadProfile, v string) { p.OwnerName = v },
	"possystem":         func(p *model.LeadProfile, v string) { p.POSSystem = v },
	"pos":               func(p *model.LeadProfile, v string) { p.POSSystem = v },
	"onlineordering":    func(p *model.LeadProfile, v string) { p.OnlineOrdering = v },
	"reservationsystem": func(p *model.LeadProfile, v string) { p.ReservationSystem = v },
	"sociallinks":       func(p *model.LeadProfile, v string) { p.SocialLinks = v },
	"rating":            func(p *model.LeadProfile, v string) { p.Rating = v },
	"pricelevel":        func(p *model.LeadProfile, v string) { p.PriceLevel = v },
	"seatingcapacity":   func(p *model.LeadProfile, v string) { p.SeatingCapacity = v },
	"licenseinfo":       func(p *model.LeadProfile, v string) { p.LicenseInfo = v },
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	h = strings.ReplaceAll(h, "-", "")
	return h
}

// Summary reports the outcome of an import.
type Summary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ImportFile reads leads from a CSV or XLSX file, dispatching on the
// extension, and creates one lead per data row. Rows without a company
// name are skipped.
func ImportFile(ctx context.Context, st store.Store, path string) (*Summary, error) {
	var rows [][]string
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	default:
		return nil, eris.Errorf("importer: unsupported file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	return importRows(ctx, st, rows)
}

func importRows(ctx context.Context, st store.Store, rows [][]string) (*Summary, error) {
	if len(rows) < 2 {
		return nil, eris.New("importer: file has no data rows")
	}

	setters := make([]func(*model.LeadProfile, string), len(rows[0]))
	matched := 0
	for i, h := range rows[0] {
		if fn, ok := columnSetters[normalizeHeader(h)]; ok {
			setters[i] = fn
			matched++
		}
	}
	if matched == 0 {
		return nil, eris.New("importer: no recognized columns in header row")
	}

	sum := &Summary{}
	for _, row := range rows[1:] {
		p := &model.LeadProfile{ID: uuid.NewString()}
		for i, cell := range row {
			if i >= len(setters) || setters[i] == nil {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				setters[i](p, v)
			}
		}

		if p.CompanyName == "" {
			sum.Skipped++
			continue
		}

		if err := st.CreateLead(ctx, p); err != nil {
			return sum, eris.Wrap(err, "importer: create lead")
		}
		sum.Created++
	}

	zap.L().Info("import complete",
		zap.Int("created", sum.Created),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read csv row")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: xlsx file has no sheets")
	}

	var rows [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
