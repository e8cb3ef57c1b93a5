package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"opname/services"
	"opname/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

// newTestStore returns a test app with a ready sheet session and its store.
func newTestStore(t *testing.T) (*pocketbase.PocketBase, *services.SheetStore) {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	session := services.NewSession(app)
	if err := session.Open(); err != nil {
		t.Fatalf("session.Open() error: %v", err)
	}
	return app, services.NewSheetStore(session)
}

// seedStore saves two RAB lines and one approved submission for TZ01.
func seedStore(t *testing.T, app *pocketbase.PocketBase) {
	t.Helper()
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Melati", Ulok: "UL-01", Address: "Jl. Melati 1",
		Description: "Pembersihan lokasi", Unit: "ls", Volume: 1, Labor: 500000,
		PIC: "pic.bekasi", Contractor: "cv.karya", SortOrder: 1,
	})
	testhelpers.CreateTestRABItem(t, app, testhelpers.RABRow{
		StoreCode: "TZ01", StoreName: "Alfamart Melati", Ulok: "UL-01", Address: "Jl. Melati 1",
		Description: "Pasang Keramik Lantai", Unit: "m2", Volume: 10, Material: 100000, Labor: 50000,
		PIC: "pic.bekasi", Contractor: "cv.karya", SortOrder: 2,
	})
	testhelpers.CreateTestSubmission(t, app, testhelpers.SubmissionRow{
		StoreCode: "TZ01", StoreName: "Alfamart Melati", Description: "Pasang Keramik Lantai",
		Category: "PEKERJAAN PASANGAN", Unit: "m2", BudgetVol: 10, FinalVol: 12,
		Material: 100000, Labor: 50000, Total: 1800000, SubmittedAt: "17/10/2026 10.00.00",
	})
}

// serve runs handler against req and returns the recorded response.
func serve(t *testing.T, app *pocketbase.PocketBase, handler func(*core.RequestEvent) error, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}
