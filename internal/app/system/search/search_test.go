package search

import (
	"fmt"
	"testing"

	"github.com/dalemusser/rosterhub/internal/domain/models"
)

func namedEmployees(names ...string) []models.Employee {
	out := make([]models.Employee, 0, len(names))
	for _, n := range names {
		out = append(out, models.Employee{Name: n})
	}
	return out
}

func TestEmployees_NameTiers(t *testing.T) {
	items := namedEmployees("Kumaravi", "Ravi Kumar", "Ravi")

	results := Employees(items, "ravi", "name", 0)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	want := []struct {
		name  string
		score float64
	}{
		{"Ravi", 1.0},
		{"Ravi Kumar", 0.8},
		{"Kumaravi", 0.5},
	}
	for i, w := range want {
		if results[i].Item.Name != w.name || results[i].Score != w.score {
			t.Errorf("result[%d] = %q score %v, want %q score %v",
				i, results[i].Item.Name, results[i].Score, w.name, w.score)
		}
	}
}

func TestEmployees_EmptyQueryReturnsAllInOrder(t *testing.T) {
	items := namedEmployees("Charlie", "Alpha", "Bravo")

	results := Employees(items, "", "all", 0)
	if len(results) != len(items) {
		t.Fatalf("got %d results, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Score != 1.0 {
			t.Errorf("result[%d] score = %v, want 1.0", i, r.Score)
		}
		if r.Item.Name != items[i].Name {
			t.Errorf("result[%d] = %q, want input order %q", i, r.Item.Name, items[i].Name)
		}
	}
}

func TestEmployees_AllFilterUsesFieldWeights(t *testing.T) {
	items := []models.Employee{
		{Name: "Suresh", District: "Mysuru"},
		{Name: "Mysuru Ravi"},
	}

	// "mysuru" matches the first record's district exactly (1.0 * 0.5) and
	// the second record's name as a prefix (0.8 * 1.0); the name match wins.
	results := Employees(items, "mysuru", "all", 0)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Item.Name != "Mysuru Ravi" {
		t.Errorf("top result = %q, want %q", results[0].Item.Name, "Mysuru Ravi")
	}
	if results[0].Score != 0.8 {
		t.Errorf("top score = %v, want 0.8", results[0].Score)
	}
	if results[1].Score != 0.5 {
		t.Errorf("second score = %v, want 0.5", results[1].Score)
	}
}

func TestEmployees_AllTakesMaxNotSum(t *testing.T) {
	items := []models.Employee{{Name: "Ravi", Station: "Ravi Nagar"}}

	results := Employees(items, "ravi", "all", 0)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Score != 1.0 {
		t.Errorf("score = %v, want 1.0 (max across fields, not a sum)", results[0].Score)
	}
}

func TestEmployees_FilterExcludesOtherFields(t *testing.T) {
	items := []models.Employee{
		{Name: "Ravi", District: "Tumakuru"},
		{Name: "Suresh", District: "Ravi Colony"},
	}

	results := Employees(items, "ravi", "district", 0)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Item.Name != "Suresh" {
		t.Errorf("matched %q, want the district match %q", results[0].Item.Name, "Suresh")
	}
}

func TestEmployees_MobileMatchesEitherNumber(t *testing.T) {
	items := []models.Employee{{Name: "Ravi", Mobile1: "9000000001", Mobile2: "8000000002"}}

	for _, q := range []string{"9000000001", "8000000002"} {
		results := Employees(items, q, "mobile", 0)
		if len(results) != 1 {
			t.Fatalf("query %q: got %d results, want 1", q, len(results))
		}
		if results[0].Score != MatchExact*0.9 {
			t.Errorf("query %q: score = %v, want %v", q, results[0].Score, MatchExact*0.9)
		}
	}
}

func TestRank_NonMatchesDropped(t *testing.T) {
	items := namedEmployees("Ravi", "Suresh")

	results := Employees(items, "ravi", "name", 0)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Item.Name != "Ravi" {
		t.Errorf("matched %q, want %q", results[0].Item.Name, "Ravi")
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	items := make([]models.Employee, 0, DefaultLimit+20)
	for i := 0; i < DefaultLimit+20; i++ {
		items = append(items, models.Employee{Name: fmt.Sprintf("Ravi %03d", i)})
	}

	results := Employees(items, "ravi", "name", 0)
	if len(results) != DefaultLimit {
		t.Errorf("got %d results, want default limit %d", len(results), DefaultLimit)
	}

	results = Employees(items, "ravi", "name", 5)
	if len(results) != 5 {
		t.Errorf("got %d results, want explicit limit 5", len(results))
	}
}

func TestRank_StableOrderForEqualScores(t *testing.T) {
	items := namedEmployees("Ravi A", "Ravi B", "Ravi C")

	results := Employees(items, "ravi", "name", 0)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"Ravi A", "Ravi B", "Ravi C"} {
		if results[i].Item.Name != want {
			t.Errorf("result[%d] = %q, want %q (input order for ties)", i, results[i].Item.Name, want)
		}
	}
}

func TestResult_Thresholds(t *testing.T) {
	tests := []struct {
		score float64
		exact bool
		high  bool
	}{
		{1.0, true, true},
		{0.8, false, true},
		{0.7, false, true},
		{0.5, false, false},
	}
	for _, tt := range tests {
		r := Result[models.Employee]{Score: tt.score}
		if r.IsExact() != tt.exact {
			t.Errorf("score %v: IsExact = %v, want %v", tt.score, r.IsExact(), tt.exact)
		}
		if r.IsHighRelevance() != tt.high {
			t.Errorf("score %v: IsHighRelevance = %v, want %v", tt.score, r.IsHighRelevance(), tt.high)
		}
	}
}

func TestOfficers_AGIDExact(t *testing.T) {
	items := []models.Officer{
		{AGID: "AGID0007", Name: "Prakash"},
		{AGID: "AGID0017", Name: "Mahesh"},
	}

	results := Officers(items, "agid0007", "agid", 0)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Item.Name != "Prakash" {
		t.Errorf("matched %q, want %q", results[0].Item.Name, "Prakash")
	}
	if results[0].Score != MatchExact*0.95 {
		t.Errorf("score = %v, want %v", results[0].Score, MatchExact*0.95)
	}
}
