package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"opname/services"
)

// maxImportSize caps an uploaded RAB file.
const maxImportSize = 10 << 20

// HandleRABImport receives a CSV or XLSX upload, validates every row and
// appends the rows to the store's RAB. A file with any invalid row is not
// imported; the errors come back as JSON, or as an Excel report when
// format=xlsx. With dry_run=1 the file is only validated.
// Route: POST /stores/{kode}/rab/import
func HandleRABImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		code := strings.TrimSpace(e.Request.PathValue("kode"))
		if code == "" {
			return e.JSON(http.StatusBadRequest, message("Kode toko diperlukan."))
		}

		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, maxImportSize)
		if err := e.Request.ParseMultipartForm(maxImportSize); err != nil {
			return e.JSON(http.StatusBadRequest, message("File terlalu besar atau form tidak valid."))
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return e.JSON(http.StatusBadRequest, message("Pilih file yang akan di-upload."))
		}
		defer file.Close()

		result, err := services.ValidateRABFile(file, header.Filename)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, services.ErrUnsupportedFormat) {
				status = http.StatusUnsupportedMediaType
			}
			return e.JSON(status, message(err.Error()))
		}

		if result.ErrorRows > 0 {
			if e.Request.URL.Query().Get("format") == "xlsx" {
				report, err := services.GenerateErrorReport(result.Errors)
				if err != nil {
					log.Printf("rab_import: error report: %v", err)
					return e.JSON(http.StatusInternalServerError, message("Gagal membuat laporan kesalahan."))
				}
				return sendAttachment(e, xlsxContentType, "RAB_Import_Errors_"+services.SanitizeFilename(code)+".xlsx", report)
			}
			return e.JSON(http.StatusUnprocessableEntity, result)
		}

		if e.Request.URL.Query().Get("dry_run") == "1" {
			return e.JSON(http.StatusOK, result)
		}

		n, err := services.ImportRAB(app, code, result.Rows)
		if err != nil {
			log.Printf("rab_import: %s: %v", code, err)
			return e.JSON(http.StatusInternalServerError, message("Gagal menyimpan data RAB."))
		}
		result.Imported = n

		log.Printf("rab_import: %s imported %d rows from %s", code, n, header.Filename)
		return e.JSON(http.StatusCreated, result)
	}
}
