package services

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a RAB work category. The numeric order is the order in which
// categories appear in reports.
type Category int

const (
	CategoryPersiapan Category = iota
	CategoryBongkaran
	CategoryTanah
	CategoryPondasiBeton
	CategoryPasangan
	CategoryPlesteran
	CategoryAtap
	CategoryLantai
	CategoryDinding
	CategoryKusenPintuJendela
	CategoryPlafond
	CategoryPengecatan
	CategoryInstalasi
	CategoryLainnya
)

var categoryLabels = [...]string{
	CategoryPersiapan:         "PEKERJAAN PERSIAPAN",
	CategoryBongkaran:         "PEKERJAAN BONGKARAN",
	CategoryTanah:             "PEKERJAAN TANAH",
	CategoryPondasiBeton:      "PEKERJAAN PONDASI & BETON",
	CategoryPasangan:          "PEKERJAAN PASANGAN",
	CategoryPlesteran:         "PEKERJAAN PLESTERAN",
	CategoryAtap:              "PEKERJAAN ATAP",
	CategoryLantai:            "PEKERJAAN LANTAI",
	CategoryDinding:           "PEKERJAAN DINDING",
	CategoryKusenPintuJendela: "PEKERJAAN KUSEN, PINTU & JENDELA",
	CategoryPlafond:           "PEKERJAAN PLAFOND",
	CategoryPengecatan:        "PEKERJAAN PENGECATAN",
	CategoryInstalasi:         "PEKERJAAN INSTALASI",
	CategoryLainnya:           "PEKERJAAN LAINNYA",
}

// Categories lists every category in report order.
func Categories() []Category {
	all := make([]Category, 0, len(categoryLabels))
	for c := range categoryLabels {
		all = append(all, Category(c))
	}
	return all
}

// String returns the report label, e.g. "PEKERJAAN PASANGAN".
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryLabels) {
		return categoryLabels[CategoryLainnya]
	}
	return categoryLabels[c]
}

type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules is tested top to bottom and the first hit wins, so an item
// like "Pasang Keramik Lantai" lands in PASANGAN rather than LANTAI.
// Keywords padded with spaces only match whole words.
var categoryRules = []categoryRule{
	{CategoryPersiapan, []string{"persiapan", "pagar", "bouwplank", "pembersihan", "mobilisasi", "direksi keet", "papan nama"}},
	{CategoryBongkaran, []string{"bongkar", "pembongkaran"}},
	{CategoryTanah, []string{"galian", "urugan", "tanah", "pemadatan"}},
	{CategoryPondasiBeton, []string{"pondasi", "fondasi", "beton", "sloof", "kolom", "balok", "bekisting", "pembesian", "besi beton"}},
	{CategoryPasangan, []string{"pasangan", "keramik", "granit", "bata", "hebel", "batako", "roster"}},
	{CategoryPlesteran, []string{"plester", "acian"}},
	{CategoryAtap, []string{"atap", "genteng", "talang", "listplank", "bubungan", "spandek", "zincalume"}},
	{CategoryLantai, []string{"lantai", "floor", "vinyl", "epoxy"}},
	{CategoryDinding, []string{"dinding", "partisi", "cladding", "wallpaper"}},
	{CategoryKusenPintuJendela, []string{"kusen", "pintu", "jendela", "rolling door", "folding gate", "engsel", "kaca"}},
	{CategoryPlafond, []string{"plafon", "plafond", "ceiling", "gypsum"}},
	{CategoryPengecatan, []string{"pengecatan", " cat ", "dicat", "plamir", "paint"}},
	{CategoryInstalasi, []string{"instalasi", "listrik", "kabel", "stop kontak", "saklar", "lampu", "pipa", "plumbing", "air bersih", "air kotor", " ac ", "panel", "mep"}},
}

var lowerID = cases.Lower(language.Indonesian)

// Classify maps a free-text work description to a Category. It is total
// and deterministic; unmatched text is CategoryLainnya.
func Classify(description string) Category {
	text := " " + strings.Join(strings.Fields(lowerID.String(description)), " ") + " "
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return CategoryLainnya
}

// ClassifyItem classifies a RAB line by its sheet category first and falls
// back to the work description when the category text is not recognised.
func ClassifyItem(item BudgetItem) Category {
	if item.CategoryHint != "" {
		if c := Classify(item.CategoryHint); c != CategoryLainnya {
			return c
		}
	}
	return Classify(item.Description)
}
