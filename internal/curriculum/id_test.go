package curriculum_test

import (
	"encoding/json"
	"testing"

	"github.com/academy-dev/academy/internal/curriculum"
)

func TestNewDraftIDMonotonic(t *testing.T) {
	prev := curriculum.NewDraftID()
	for range 1000 {
		next := curriculum.NewDraftID()
		if next.Int64() <= prev.Int64() {
			t.Fatalf("NewDraftID() = %d after %d, want strictly increasing", next.Int64(), prev.Int64())
		}
		if !next.IsDraft() {
			t.Fatal("NewDraftID() not flagged as draft")
		}
		prev = next
	}
}

func TestIDJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: `42`, want: 42},
		{in: `42.0`, want: 42},
		{in: `null`, want: 0},
		{in: `"abc"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id curriculum.ID
			err := json.Unmarshal([]byte(tt.in), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if id.Int64() != tt.want {
				t.Errorf("Int64() = %d, want %d", id.Int64(), tt.want)
			}
			if id.IsDraft() {
				t.Error("decoded id should be saved, not draft")
			}
		})
	}
}

func TestDraftIDMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(curriculum.Draft(1700000000123))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != "1700000000123" {
		t.Errorf("Marshal() = %s, want 1700000000123", b)
	}
}

func TestIDString(t *testing.T) {
	if got := curriculum.Saved(5).String(); got != "5" {
		t.Errorf("Saved(5).String() = %q", got)
	}
	if got := curriculum.Draft(5).String(); got != "draft:5" {
		t.Errorf("Draft(5).String() = %q", got)
	}
}

func TestParseID(t *testing.T) {
	id, err := curriculum.ParseID("12")
	if err != nil || id != curriculum.Saved(12) {
		t.Errorf("ParseID(12) = %v, %v", id, err)
	}
	if _, err := curriculum.ParseID("x"); err == nil {
		t.Error("ParseID(x) should fail")
	}
}

func TestLanguageCatalogue(t *testing.T) {
	if got := curriculum.LanguageID("Python"); got != 70 {
		t.Errorf("LanguageID(Python) = %d, want 70", got)
	}
	if got := curriculum.LanguageID("Cobol"); got != 0 {
		t.Errorf("LanguageID(Cobol) = %d, want 0", got)
	}
	if name, ok := curriculum.LanguageName(54); !ok || name != "C++" {
		t.Errorf("LanguageName(54) = %q, %v", name, ok)
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, err := curriculum.ParseDifficulty("advanced"); err != nil || d != curriculum.Advanced {
		t.Errorf("ParseDifficulty(advanced) = %v, %v", d, err)
	}
	if _, err := curriculum.ParseDifficulty("expert"); err == nil {
		t.Error("ParseDifficulty(expert) should fail")
	}
}
