package domain

import "fmt"

// ReferenceDataset is a named tabular export produced from the local store
// for one export target (taxa, observers, organizations, nomenclatures).
// Datasets are generated fresh per publish cycle and discarded after upload.
type ReferenceDataset struct {
	// Name identifies the export target (e.g. "taxa").
	Name string

	// Header lists the column names. Header arity must match every row.
	Header []string

	// Rows holds the ordered records.
	Rows [][]string
}

// NewReferenceDataset builds a dataset, enforcing the arity invariant:
// every row must have exactly as many fields as the header.
func NewReferenceDataset(name string, header []string, rows [][]string) (*ReferenceDataset, error) {
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: dataset %q row %d has %d fields, header has %d",
				ErrInvalidInput, name, i, len(row), len(header))
		}
	}
	return &ReferenceDataset{Name: name, Header: header, Rows: rows}, nil
}

// Empty reports whether the dataset has no rows.
func (d *ReferenceDataset) Empty() bool {
	return len(d.Rows) == 0
}

// Mnemonics returned by nomenclature exports are restricted to this
// whitelist of controlled-vocabulary codes.
var NomenclatureMnemonics = []string{
	"TYPE_PERTURBATION",
	"INCLINE_TYPE",
	"PHYSIOGNOMY_TYPE",
	"HABITAT_STATUS",
	"THREAT_LEVEL",
	"PHENOLOGY_TYPE",
	"FREQUENCY_METHOD",
	"COUNTING_TYPE",
}

// Reference table rows as read from the local store.

// TaxonRow is one taxon list entry.
type TaxonRow struct {
	CdNom      int
	NomComplet string
	NomVern    string
}

// ObserverRow is one observer roster entry.
type ObserverRow struct {
	IDRole     int
	NomComplet string
}

// NomenclatureRow is one controlled-vocabulary entry.
type NomenclatureRow struct {
	Mnemonique     string
	IDNomenclature int
	CdNomenclature string
	LabelDefault   string
}
