package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseUpload_CSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHdr  []string
		wantRows int
	}{
		{
			name:     "comma",
			input:    "Jenis Pekerjaan,Satuan,Volume\nCat dinding,m2,10\n",
			wantHdr:  []string{"Jenis Pekerjaan", "Satuan", "Volume"},
			wantRows: 1,
		},
		{
			name:     "semicolon with decimal comma",
			input:    "Jenis Pekerjaan;Satuan;Volume\nCat dinding;m2;10,5\nPasang keramik;m2;4\n",
			wantHdr:  []string{"Jenis Pekerjaan", "Satuan", "Volume"},
			wantRows: 2,
		},
		{
			name:     "byte order mark",
			input:    "\xef\xbb\xbfJenis Pekerjaan,Satuan\nCat,m2\n",
			wantHdr:  []string{"Jenis Pekerjaan", "Satuan"},
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, rows, err := ParseUpload(strings.NewReader(tt.input), "rab.CSV")
			if err != nil {
				t.Fatalf("ParseUpload() error = %v", err)
			}
			if strings.Join(headers, "|") != strings.Join(tt.wantHdr, "|") {
				t.Errorf("headers = %q, want %q", headers, tt.wantHdr)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(rows), tt.wantRows)
			}
		})
	}
}

func TestParseUpload_Errors(t *testing.T) {
	if _, _, err := ParseUpload(strings.NewReader("a,b"), "rab.txt"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unsupported extension error = %v", err)
	}
	if _, _, err := ParseUpload(strings.NewReader("Jenis Pekerjaan,Satuan\n"), "rab.csv"); err == nil {
		t.Error("expected error for header-only file")
	}
	if _, _, err := ParseUpload(strings.NewReader("not a zip"), "rab.xlsx"); err == nil {
		t.Error("expected error for invalid xlsx")
	}
}

func TestParseUpload_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "Jenis Pekerjaan")
	f.SetCellValue(sheet, "B1", "Satuan")
	f.SetCellValue(sheet, "A2", "Cat dinding")
	f.SetCellValue(sheet, "B2", "m2")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f.Close()

	headers, rows, err := ParseUpload(&buf, "rab.xlsx")
	if err != nil {
		t.Fatalf("ParseUpload() error = %v", err)
	}
	if len(headers) != 2 || headers[0] != "Jenis Pekerjaan" {
		t.Errorf("headers = %q", headers)
	}
	if len(rows) != 1 || rows[0][1] != "m2" {
		t.Errorf("rows = %q", rows)
	}
}

func TestMapHeadersToFields(t *testing.T) {
	headers := []string{"No", "Uraian Pekerjaan *", "SATUAN", "Vol. RAB", "harga_material", "Catatan", "Satuan"}
	keys, unrecognized := mapHeadersToFields(headers, rabImportColumns)

	want := []string{"", "jenis_pekerjaan", "satuan", "vol_rab", "harga_material", "", ""}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if strings.Join(unrecognized, "|") != "No|Catatan|Satuan" {
		t.Errorf("unrecognized = %q", unrecognized)
	}
}

func TestGenerateErrorReport(t *testing.T) {
	result, err := GenerateErrorReport([]ValidationError{
		{Row: 2, Field: "Volume", Message: "Volume wajib diisi"},
		{Row: 3, Field: "Satuan", Message: "=cmd"},
	})
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("invalid xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Errors")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][2] != "Volume wajib diisi" {
		t.Errorf("message = %q", rows[1][2])
	}
	if rows[2][2] != "'=cmd" {
		t.Errorf("sanitized message = %q", rows[2][2])
	}
}
