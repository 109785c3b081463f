package model

import (
	"errors"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     string
		wantFail bool
	}{
		{"plain", "Matematika", "Matematika", false},
		{"spaces", "Matematika Dasar Kelas 5", "Matematika-Dasar-Kelas-5", false},
		{"accents", "Ciência é Fácil", "Ciencia-e-Facil", false},
		{"punctuation run", "IPA: Bab 1 / Tumbuhan??", "IPA-Bab-1-Tumbuhan", false},
		{"keeps dash and underscore", "ujian_akhir-2024", "ujian_akhir-2024", false},
		{"trims dashes", "--Sejarah--", "Sejarah", false},
		{"empty", "", DefaultFileName, true},
		{"only punctuation", "?!/:*", DefaultFileName, true},
		{"whitespace", "   ", DefaultFileName, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeName(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			var verr *ValidationError
			if tt.wantFail {
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if verr.Field != "package_name" {
					t.Errorf("expected field package_name, got %q", verr.Field)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewPackageDedupesTags(t *testing.T) {
	tags := []Tag{{1, "SD"}, {2, "Kelas 5"}, {1, "duplicate"}, {3, "UTS"}}
	qs := []QuestionAnswer{{"Q1", "A1"}}

	p := NewPackage("Matematika", tags, qs)

	if len(p.Tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(p.Tags))
	}
	if p.Tags[0].Name != "SD" {
		t.Errorf("expected first occurrence to win, got %q", p.Tags[0].Name)
	}
	want := []string{"SD", "Kelas 5", "UTS"}
	for i, name := range p.TagNames() {
		if name != want[i] {
			t.Errorf("TagNames()[%d] = %q, want %q", i, name, want[i])
		}
	}

	// The package owns its question slice.
	qs[0].Question = "changed"
	if p.Questions[0].Question != "Q1" {
		t.Error("NewPackage should copy questions")
	}
}

func TestPackageImportRoundTrip(t *testing.T) {
	pi := PackageImport{
		PackageID:   7,
		PackageName: "Biologi",
		UserID:      3,
		Tags:        []TagImport{{TagID: 4, TagName: "SMA", UserID: 3}},
		Questions:   []QuestionAnswer{{"Apa itu sel?", "Unit terkecil kehidupan"}},
	}

	p := pi.ToPackage()
	if p.ID != 7 || p.Name != "Biologi" {
		t.Fatalf("unexpected package %+v", p)
	}
	if len(p.Tags) != 1 || p.Tags[0] != (Tag{ID: 4, Name: "SMA"}) {
		t.Errorf("unexpected tags %+v", p.Tags)
	}

	back := ImportFromPackage(p)
	if back.PackageName != pi.PackageName || len(back.Questions) != 1 {
		t.Errorf("unexpected import %+v", back)
	}
	if back.Questions[0] != pi.Questions[0] {
		t.Errorf("question mismatch: %+v", back.Questions[0])
	}
}

func TestImportFromPackageEmptyQuestions(t *testing.T) {
	back := ImportFromPackage(Package{Name: "Kosong"})
	if back.Questions == nil {
		t.Error("questions should encode as an empty array, not null")
	}
}
