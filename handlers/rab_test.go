package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleRABList(t *testing.T) {
	app, store := newTestStore(t)
	seedStore(t, app)
	handler := HandleRABList(store)

	t.Run("missing store code", func(t *testing.T) {
		rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/api/rab", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("lists items", func(t *testing.T) {
		rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/api/rab?kode_toko=TZ01", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var items []rabItemJSON
		if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[1].Group != "PEKERJAAN PASANGAN" || items[1].Total != "1500000" {
			t.Errorf("items[1] = %+v", items[1])
		}
	})

	t.Run("unknown project reference", func(t *testing.T) {
		rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/api/rab?kode_toko=TZ01&no_ulok=UL-99", nil))
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestHandlePicContractor(t *testing.T) {
	app, store := newTestStore(t)
	seedStore(t, app)
	handler := HandlePicContractor(store)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantPIC    string
	}{
		{"missing ulok", "/api/pic-kontraktor", http.StatusBadRequest, ""},
		{"found", "/api/pic-kontraktor?no_ulok=UL-01", http.StatusOK, "pic.bekasi"},
		{"not found", "/api/pic-kontraktor?no_ulok=UL-99", http.StatusNotFound, "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["pic_username"] != tt.wantPIC {
				t.Errorf("pic_username = %q, want %q", body["pic_username"], tt.wantPIC)
			}
			if tt.wantStatus == http.StatusNotFound && body["kontraktor_username"] != "N/A" {
				t.Errorf("kontraktor_username = %q, want N/A", body["kontraktor_username"])
			}
		})
	}
}

func TestHandleFinalOpnameList(t *testing.T) {
	app, store := newTestStore(t)
	seedStore(t, app)
	handler := HandleFinalOpnameList(store)

	rec := serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/api/opname/final?kode_toko=TZ01", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var subs []submissionJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &subs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	if subs[0].Variance != "2" || subs[0].ApprovalState != "Approved" {
		t.Errorf("submission = %+v", subs[0])
	}

	rec = serve(t, app, handler, httptest.NewRequest(http.MethodGet, "/api/opname/final", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without kode_toko, got %d", rec.Code)
	}
}
