package repository

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func TestModelValidation(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name    string
		item    any
		wantErr bool
	}{
		{"valid subject", &Subject{Name: "Ciencias", Tags: []string{"lab"}}, false},
		{"subject without name", &Subject{}, true},
		{"subject negative order", &Subject{Name: "X", Order: -1}, true},
		{"valid publication", &Publication{Title: "Acto", Content: "Hoy", ImageURL: "https://i.ibb.co/x.jpg"}, false},
		{"publication bad image url", &Publication{Title: "Acto", Content: "Hoy", ImageURL: "nope"}, true},
		{"publication without content", &Publication{Title: "Acto"}, true},
		{"valid resource", &Resource{SubjectID: "s1", Title: "Guía", URL: "https://example.com/g.pdf", Kind: "document"}, false},
		{"resource unknown kind", &Resource{SubjectID: "s1", Title: "Guía", URL: "https://example.com", Kind: "podcast"}, true},
		{"resource without subject", &Resource{Title: "Guía", URL: "https://example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.item)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestPrepare(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	p := Publication{Title: "t", Content: "c"}
	p.Prepare(now)
	if p.ID == "" || p.Author != "Colegio" || !p.CreatedAt.Equal(now) {
		t.Errorf("unexpected prepared publication: %+v", p)
	}

	given := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	kept := Publication{ID: "fixed", CreatedAt: given}
	kept.Prepare(now)
	if kept.ID != "fixed" || !kept.CreatedAt.Equal(given) {
		t.Errorf("expected caller-provided fields to be kept: %+v", kept)
	}

	s := Subject{Name: "Arte"}
	s.Prepare(now)
	if s.ID == "" || s.Icon == "" || s.Color == "" {
		t.Errorf("unexpected prepared subject: %+v", s)
	}

	r := Resource{SubjectID: "s1"}
	r.Prepare(now)
	if r.Kind != "link" || r.ID == "" {
		t.Errorf("unexpected prepared resource: %+v", r)
	}
}

func TestPrepare_NormalizesToUTCAndResetsCounters(t *testing.T) {
	madrid := time.FixedZone("CEST", 2*60*60)
	local := time.Date(2026, 5, 1, 12, 0, 0, 0, madrid)

	p := Publication{Title: "t", Content: "c", Likes: 500, CreatedAt: local}
	p.Prepare(local)
	if p.CreatedAt.Location() != time.UTC || p.CreatedAt.Hour() != 10 {
		t.Errorf("expected 10:00 UTC, got %v", p.CreatedAt)
	}
	if p.Likes != 0 {
		t.Errorf("expected likes to start at 0, got %d", p.Likes)
	}

	r := Resource{SubjectID: "s1", Downloads: 42}
	r.Prepare(local)
	if r.CreatedAt.Location() != time.UTC || !r.CreatedAt.Equal(local) {
		t.Errorf("expected the server time in UTC, got %v", r.CreatedAt)
	}
	if r.Downloads != 0 {
		t.Errorf("expected downloads to start at 0, got %d", r.Downloads)
	}
}

func TestFilterResourcesBySubject(t *testing.T) {
	in := []Resource{{ID: "1", SubjectID: "a"}, {ID: "2", SubjectID: "b"}, {ID: "3", SubjectID: "a"}}

	got := FilterResourcesBySubject(in, "a")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("unexpected filter result: %+v", got)
	}
	if len(FilterResourcesBySubject(in, "zzz")) != 0 {
		t.Error("expected no resources for unknown subject")
	}
}

func TestSchoolInfo_DisplayFields(t *testing.T) {
	info := SchoolInfo{Name: "San Martín", Phone: "123", FoundedYear: 1962}

	fields := info.DisplayFields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 non-empty fields, got %d: %+v", len(fields), fields)
	}
	if fields[0].Key != "name" || fields[1].Key != "phone" || fields[2].Key != "foundedYear" {
		t.Errorf("unexpected field order: %+v", fields)
	}
	if fields[2].Value != "1962" {
		t.Errorf("expected founded year '1962', got '%s'", fields[2].Value)
	}
}

func TestSameContent(t *testing.T) {
	a := SchoolInfo{Name: "X", LastUpdate: 1}
	b := SchoolInfo{Name: "X", LastUpdate: 2}
	c := SchoolInfo{Name: "Y", LastUpdate: 1}

	if !SameContent(&a, &b) {
		t.Error("expected LastUpdate to be ignored")
	}
	if SameContent(&a, &c) {
		t.Error("expected different names to differ")
	}
	if SameContent(&a, nil) || !SameContent(nil, nil) {
		t.Error("unexpected nil handling")
	}
}
