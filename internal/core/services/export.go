package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
)

// Exporter produces the reference datasets pushed into a form before it
// is republished. All reads go through the reference store; the exporter
// itself has no side effects.
type Exporter struct {
	refs driven.ReferenceStore
}

// NewExporter creates an exporter over a reference store.
func NewExporter(refs driven.ReferenceStore) *Exporter {
	return &Exporter{refs: refs}
}

// NamedDataset pairs a dataset with the attachment file name it is
// uploaded under.
type NamedDataset struct {
	FileName string
	Dataset  *domain.ReferenceDataset
}

// ExportTaxa exports the taxon list as {cd_nom, nom_complet, nom_vern}.
func (e *Exporter) ExportTaxa(ctx context.Context, listID int) (*domain.ReferenceDataset, error) {
	taxa, err := e.refs.Taxa(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("export taxa: %w", err)
	}

	rows := make([][]string, 0, len(taxa))
	for _, t := range taxa {
		rows = append(rows, []string{strconv.Itoa(t.CdNom), t.NomComplet, t.NomVern})
	}
	return domain.NewReferenceDataset("taxa",
		[]string{"cd_nom", "nom_complet", "nom_vern"}, rows)
}

// ExportObservers exports the observer roster as {id_role, nom_complet}.
func (e *Exporter) ExportObservers(ctx context.Context, menuID int) (*domain.ReferenceDataset, error) {
	observers, err := e.refs.Observers(ctx, menuID)
	if err != nil {
		return nil, fmt.Errorf("export observers: %w", err)
	}

	rows := make([][]string, 0, len(observers))
	for _, o := range observers {
		rows = append(rows, []string{strconv.Itoa(o.IDRole), o.NomComplet})
	}
	return domain.NewReferenceDataset("observers",
		[]string{"id_role", "nom_complet"}, rows)
}

// ExportOrganizations exports the organization roster.
// Currently a stub producing an empty dataset; the upstream source has no
// organization export yet. Documented gap, not an error.
func (e *Exporter) ExportOrganizations(_ context.Context) (*domain.ReferenceDataset, error) {
	return domain.NewReferenceDataset("organizations", nil, nil)
}

// ExportNomenclatures exports the controlled-vocabulary entries for the
// fixed mnemonic whitelist as
// {mnemonique, id_nomenclature, cd_nomenclature, label_default}.
func (e *Exporter) ExportNomenclatures(ctx context.Context) (*domain.ReferenceDataset, error) {
	entries, err := e.refs.Nomenclatures(ctx, domain.NomenclatureMnemonics)
	if err != nil {
		return nil, fmt.Errorf("export nomenclatures: %w", err)
	}

	rows := make([][]string, 0, len(entries))
	for _, n := range entries {
		rows = append(rows, []string{
			n.Mnemonique, strconv.Itoa(n.IDNomenclature), n.CdNomenclature, n.LabelDefault,
		})
	}
	return domain.NewReferenceDataset("nomenclatures",
		[]string{"mnemonique", "id_nomenclature", "cd_nomenclature", "label_default"}, rows)
}

// ExportAll builds every dataset a publish cycle uploads for a form, in
// upload order, honouring the skip flags. File names are prefixed with
// the form's lower-cased module code.
func (e *Exporter) ExportAll(
	ctx context.Context, form *domain.RegisteredForm, skip domain.SkipFlags,
) ([]NamedDataset, error) {
	prefix := strings.ToLower(form.ModuleCode)
	if prefix == "" {
		prefix = "form"
	}

	var out []NamedDataset

	if !skip.Taxa {
		ds, err := e.ExportTaxa(ctx, form.TaxonListID)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedDataset{FileName: prefix + "_taxons.csv", Dataset: ds})
	}
	if !skip.Observers {
		ds, err := e.ExportObservers(ctx, form.ObserverMenuID)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedDataset{FileName: prefix + "_observers.csv", Dataset: ds})
	}
	if !skip.Organizations {
		ds, err := e.ExportOrganizations(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedDataset{FileName: prefix + "_organizations.csv", Dataset: ds})
	}
	if !skip.Nomenclatures {
		ds, err := e.ExportNomenclatures(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedDataset{FileName: prefix + "_nomenclatures.csv", Dataset: ds})
	}

	return out, nil
}

// EncodeCSV serialises a dataset as comma-delimited UTF-8 text with the
// header as first row.
func EncodeCSV(ds *domain.ReferenceDataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if len(ds.Header) > 0 {
		if err := w.Write(ds.Header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	for _, row := range ds.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
