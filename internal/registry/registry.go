// Package registry loads the dual-listing instrument table from a CSV
// reference file and exposes immutable lookups by venue-native code.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jaydog12322/Anatta/internal/domain"
)

// Registry is the static lookup of tradable dual-listed instruments. It is
// built once at startup and never mutated, so reads need no locking.
type Registry struct {
	instruments []domain.Instrument
	byKRX       map[string]domain.Instrument
	byNXT       map[string]domain.Instrument
}

// Load reads the instrument table from the CSV file at path. The file must
// have a header row with columns KRX_code, NXT_code and Name.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the instrument table from r. Split out from Load so tests can
// feed in-memory CSV data.
func Parse(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("registry: read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"KRX_code", "NXT_code", "Name"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("registry: missing column %q", required)
		}
	}

	reg := &Registry{
		byKRX: make(map[string]domain.Instrument),
		byNXT: make(map[string]domain.Instrument),
	}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("registry: read row: %w", err)
		}
		inst := domain.Instrument{
			KRXCode: strings.TrimSpace(row[col["KRX_code"]]),
			NXTCode: strings.TrimSpace(row[col["NXT_code"]]),
			Name:    strings.TrimSpace(row[col["Name"]]),
		}
		if inst.KRXCode == "" || inst.NXTCode == "" {
			return nil, fmt.Errorf("registry: row %q: empty venue code", row)
		}
		reg.instruments = append(reg.instruments, inst)
		reg.byKRX[inst.KRXCode] = inst
		reg.byNXT[inst.NXTCode] = inst
	}
	return reg, nil
}

// All returns every loaded instrument in file order. Callers must not modify
// the returned slice.
func (r *Registry) All() []domain.Instrument { return r.instruments }

// Len returns the number of loaded instruments.
func (r *Registry) Len() int { return len(r.instruments) }

// ByKRXCode looks an instrument up by its primary-venue code.
func (r *Registry) ByKRXCode(code string) (domain.Instrument, bool) {
	inst, ok := r.byKRX[code]
	return inst, ok
}

// ByNXTCode looks an instrument up by its secondary-venue code.
func (r *Registry) ByNXTCode(code string) (domain.Instrument, bool) {
	inst, ok := r.byNXT[code]
	return inst, ok
}

// ByCode resolves a code on either venue, returning the instrument and the
// venue the code belongs to.
func (r *Registry) ByCode(code string) (domain.Instrument, domain.Venue, bool) {
	if inst, ok := r.byKRX[code]; ok {
		return inst, domain.VenueKRX, true
	}
	if inst, ok := r.byNXT[code]; ok {
		return inst, domain.VenueNXT, true
	}
	return domain.Instrument{}, "", false
}
