package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"opname/collections"
)

var rabImportColumns = []importColumn{
	{Key: "kategori_pekerjaan", Label: "Kategori Pekerjaan", Aliases: []string{"kategori"}},
	{Key: "jenis_pekerjaan", Label: "Jenis Pekerjaan", Aliases: []string{"uraian pekerjaan", "uraian"}, Required: true},
	{Key: "satuan", Label: "Satuan", Required: true},
	{Key: "vol_rab", Label: "Volume", Aliases: []string{"vol rab", "vol"}, Required: true, Numeric: true},
	{Key: "harga_material", Label: "Harga Material", Aliases: []string{"harga satuan material"}, Numeric: true},
	{Key: "harga_upah", Label: "Harga Upah", Aliases: []string{"harga satuan upah"}, Numeric: true},
	{Key: "no_ulok", Label: "No. Ulok", Aliases: []string{"nomor ulok"}},
	{Key: "nama_toko", Label: "Nama Toko"},
	{Key: "alamat", Label: "Alamat"},
	{Key: "pic_username", Label: "PIC"},
	{Key: "kontraktor_username", Label: "Kontraktor"},
}

// RABImportRow is one validated data row of an upload.
type RABImportRow struct {
	Row      int
	Values   map[string]string
	Volume   decimal.Decimal
	Material decimal.Decimal
	Labor    decimal.Decimal
}

// RABImportResult is returned after parsing and validating an uploaded RAB.
type RABImportResult struct {
	TotalRows    int               `json:"total_rows"`
	ValidRows    int               `json:"valid_rows"`
	ErrorRows    int               `json:"error_rows"`
	Imported     int               `json:"imported"`
	Errors       []ValidationError `json:"errors"`
	Unrecognized []string          `json:"unrecognized_columns,omitempty"`
	Rows         []RABImportRow    `json:"-"`
}

// ValidateRABFile parses an uploaded CSV or XLSX RAB and validates each row.
func ValidateRABFile(file io.Reader, fileName string) (*RABImportResult, error) {
	headers, rows, err := ParseUpload(file, fileName)
	if err != nil {
		return nil, err
	}
	return ValidateRABRows(headers, rows)
}

// ValidateRABRows maps headers to data_rab fields and checks every row.
// Blank rows are skipped. Only rows without errors are kept in Rows.
func ValidateRABRows(headers []string, rows [][]string) (*RABImportResult, error) {
	keys, unrecognized := mapHeadersToFields(headers, rabImportColumns)

	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k != "" {
			present[k] = true
		}
	}
	var missing []string
	for _, c := range rabImportColumns {
		if c.Required && !present[c.Key] {
			missing = append(missing, c.Label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	result := &RABImportResult{Unrecognized: unrecognized}
	for rowIdx, row := range rows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		values := make(map[string]string, len(keys))
		blank := true
		for colIdx, key := range keys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[colIdx])
			values[key] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		result.TotalRows++

		parsed := RABImportRow{Row: rowNum, Values: values}
		var rowErrors []ValidationError
		for _, c := range rabImportColumns {
			v := values[c.Key]
			if c.Required && v == "" {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: c.Label, Message: c.Label + " wajib diisi"})
				continue
			}
			if !c.Numeric || v == "" {
				continue
			}
			d, err := parseAmount(v)
			if err != nil {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: c.Label, Message: fmt.Sprintf("%s %q bukan angka", c.Label, v)})
				continue
			}
			if d.IsNegative() {
				rowErrors = append(rowErrors, ValidationError{Row: rowNum, Field: c.Label, Message: c.Label + " tidak boleh negatif"})
				continue
			}
			switch c.Key {
			case "vol_rab":
				parsed.Volume = d
			case "harga_material":
				parsed.Material = d
			case "harga_upah":
				parsed.Labor = d
			}
		}

		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorRows++
			continue
		}
		result.Rows = append(result.Rows, parsed)
	}
	result.ValidRows = len(result.Rows)
	return result, nil
}

// ImportRAB appends validated rows to the RAB of storeCode in one
// transaction, after the store's existing lines. Store name, project
// reference and address left blank in a row are taken from the existing
// lines of the store; a new store without a name is named by its code.
func ImportRAB(app core.App, storeCode string, rows []RABImportRow) (int, error) {
	storeCode = strings.TrimSpace(storeCode)
	if storeCode == "" {
		return 0, fmt.Errorf("import rab: %w", ErrInvalidStore)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	col, err := app.FindCollectionByNameOrId(collections.DataRAB)
	if err != nil {
		return 0, fmt.Errorf("import rab: find collection: %w", err)
	}

	imported := 0
	err = app.RunInTransaction(func(txApp core.App) error {
		inherited, nextOrder, err := lastRABLine(txApp, storeCode)
		if err != nil {
			return err
		}
		for i, row := range rows {
			record := core.NewRecord(col)
			record.Set("kode_toko", storeCode)
			for _, c := range rabImportColumns {
				if c.Numeric {
					continue
				}
				v := row.Values[c.Key]
				if v == "" {
					v = inherited[c.Key]
				}
				if v != "" {
					record.Set(c.Key, v)
				}
			}
			record.Set("vol_rab", row.Volume.InexactFloat64())
			record.Set("harga_material", row.Material.InexactFloat64())
			record.Set("harga_upah", row.Labor.InexactFloat64())
			record.Set("sort_order", nextOrder+i)

			if err := txApp.Save(record); err != nil {
				return fmt.Errorf("row %d: %w", row.Row, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import rab: %w", err)
	}
	return imported, nil
}

// lastRABLine returns the fields a new line of storeCode inherits and the
// next free sort_order. It runs inside the import transaction so concurrent
// imports of one store never reuse an order.
func lastRABLine(txApp core.App, storeCode string) (map[string]string, int, error) {
	existing, err := txApp.FindRecordsByFilter(collections.DataRAB,
		"kode_toko = {:kode}", "-sort_order", 1, 0,
		map[string]any{"kode": storeCode},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query existing rows: %w", err)
	}
	if len(existing) == 0 {
		return map[string]string{"nama_toko": storeCode}, 1, nil
	}

	last := existing[0]
	inherited := make(map[string]string, 5)
	for _, key := range []string{"nama_toko", "no_ulok", "alamat", "pic_username", "kontraktor_username"} {
		inherited[key] = last.GetString(key)
	}
	return inherited, last.GetInt("sort_order") + 1, nil
}
