package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		description string
		want        Category
	}{
		{"Pembuatan pagar sementara", CategoryPersiapan},
		{"Pembersihan lokasi", CategoryPersiapan},
		{"Bongkar keramik lama", CategoryBongkaran},
		{"Galian tanah pondasi", CategoryTanah},
		{"Pondasi batu kali", CategoryPondasiBeton},
		{"Beton sloof 15/20", CategoryPondasiBeton},
		{"Pasang Keramik Lantai", CategoryPasangan},
		{"Pasangan bata ringan", CategoryPasangan},
		{"Plesteran dinding 1:4", CategoryPlesteran},
		{"Acian dinding", CategoryPlesteran},
		{"Rangka atap baja ringan", CategoryAtap},
		{"Instalasi Lantai Vinyl", CategoryLantai},
		{"Floor hardener", CategoryLantai},
		{"Partisi gypsum", CategoryDinding},
		{"Kusen aluminium", CategoryKusenPintuJendela},
		{"Rolling door", CategoryKusenPintuJendela},
		{"Plafond gypsum 9mm", CategoryPlafond},
		{"Pengecatan plafond", CategoryPlafond},
		{"Cat tembok exterior", CategoryPengecatan},
		{"Titik lampu", CategoryInstalasi},
		{"Instalasi AC split", CategoryInstalasi},
		{"Pembuatan signage", CategoryLainnya},
		{"", CategoryLainnya},
		{"   ", CategoryLainnya},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got := Classify(tt.description)
			if got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.description, got, tt.want)
			}
		})
	}
}

func TestClassify_Fixtures(t *testing.T) {
	if got := Classify("Pasang Keramik Lantai").String(); got != "PEKERJAAN PASANGAN" {
		t.Errorf("Pasang Keramik Lantai = %q, want PEKERJAAN PASANGAN", got)
	}
	if got := Classify("Instalasi Lantai Vinyl").String(); got != "PEKERJAAN LANTAI" {
		t.Errorf("Instalasi Lantai Vinyl = %q, want PEKERJAAN LANTAI", got)
	}
}

func TestClassify_WholeWordKeywords(t *testing.T) {
	// "cat" must not match inside "catatan", "ac" must not match inside "acara"
	if got := Classify("Catatan pekerjaan"); got != CategoryLainnya {
		t.Errorf("Catatan pekerjaan = %s, want %s", got, CategoryLainnya)
	}
	if got := Classify("Acara peresmian"); got != CategoryLainnya {
		t.Errorf("Acara peresmian = %s, want %s", got, CategoryLainnya)
	}
	if got := Classify("Service AC"); got != CategoryInstalasi {
		t.Errorf("Service AC = %s, want %s", got, CategoryInstalasi)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []string{"Pasang Keramik Lantai", "Instalasi Lantai Vinyl", "xyz", "PLAFOND"}
	for _, in := range inputs {
		first := Classify(in)
		for range 5 {
			if got := Classify(in); got != first {
				t.Fatalf("Classify(%q) changed from %s to %s", in, first, got)
			}
		}
	}
}

func TestCategories_Order(t *testing.T) {
	all := Categories()
	if len(all) != 14 {
		t.Fatalf("len(Categories()) = %d, want 14", len(all))
	}
	if all[0] != CategoryPersiapan || all[len(all)-1] != CategoryLainnya {
		t.Errorf("unexpected order: first %s, last %s", all[0], all[len(all)-1])
	}
	for i := 1; i < len(all); i++ {
		if all[i] <= all[i-1] {
			t.Errorf("categories out of order at %d", i)
		}
	}
	if got := Category(99).String(); got != "PEKERJAAN LAINNYA" {
		t.Errorf("out of range label = %q", got)
	}
}

func TestClassifyItem(t *testing.T) {
	tests := []struct {
		name string
		item BudgetItem
		want Category
	}{
		{
			name: "hint wins",
			item: BudgetItem{CategoryHint: "PEKERJAAN ATAP", Description: "Pasang keramik"},
			want: CategoryAtap,
		},
		{
			name: "unknown hint falls back to description",
			item: BudgetItem{CategoryHint: "PEKERJAAN TAMBAHAN", Description: "Pasang Keramik Lantai"},
			want: CategoryPasangan,
		},
		{
			name: "no hint",
			item: BudgetItem{Description: "Instalasi Lantai Vinyl", Volume: decimal.NewFromInt(1)},
			want: CategoryLantai,
		},
		{
			name: "nothing recognised",
			item: BudgetItem{CategoryHint: "lain-lain", Description: "signage"},
			want: CategoryLainnya,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyItem(tt.item); got != tt.want {
				t.Errorf("ClassifyItem() = %s, want %s", got, tt.want)
			}
		})
	}
}
