package settings

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGet_DefaultsWhenFileMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data", "company-settings.json"))
	p := s.Get()
	if p.CompanyName == "" || p.StrategicCycle != "annual" {
		t.Fatalf("defaults: %+v", p)
	}
	if p.CurrentYear != time.Now().Year() {
		t.Fatalf("currentYear default: %d", p.CurrentYear)
	}
}

func TestUpdate_MergesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "company-settings.json")
	s := NewStore(path)

	p, err := s.Update(json.RawMessage(`{"companyName":"Acme","industry":"Manufacturing"}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.CompanyName != "Acme" || p.Industry != "Manufacturing" {
		t.Fatalf("merge: %+v", p)
	}
	if p.StrategicCycle != "annual" {
		t.Fatal("untouched fields must keep defaults")
	}

	// Partial update keeps earlier values.
	p, err = s.Update(json.RawMessage(`{"employeeCount":"500"}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.CompanyName != "Acme" || p.EmployeeCount != "500" {
		t.Fatalf("second merge: %+v", p)
	}

	got := NewStore(path).Get()
	if got.CompanyName != "Acme" {
		t.Fatalf("persisted: %+v", got)
	}
}

func TestPrefillText(t *testing.T) {
	p := Profile{CompanyName: "Acme", Industry: "Retail"}
	text := p.PrefillText()
	if !strings.Contains(text, "Company: Acme") || !strings.Contains(text, "Industry: Retail") {
		t.Fatalf("prefill: %q", text)
	}
	if !strings.HasSuffix(text, "[Strategic vision and pain points]\n") {
		t.Fatalf("prefill must end with the vision heading: %q", text)
	}
	if (Profile{}).PrefillText() != "" {
		t.Fatal("empty profile yields empty prefill")
	}
}
