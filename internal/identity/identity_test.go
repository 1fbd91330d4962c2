package identity

import (
	"errors"
	"testing"
	"time"

	"voice-ingest-go/internal/types"
)

func TestFileNameIdentify(t *testing.T) {
	ex := FileName{Location: time.UTC}

	got, err := ex.Identify(types.CandidateFile{Name: "230415_1030.mp3"})
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	want := time.Date(2023, time.April, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date = %v, want %v", got, want)
	}
}

func TestFileNameRejects(t *testing.T) {
	ex := FileName{Location: time.UTC}
	for _, name := range []string{
		"meeting.mp3",
		"230415-1030.mp3",
		"2304151030.mp3",
		"23041_1030.mp3",
		"231315_1030.mp3", // month 13
		"230415_2561.mp3", // hour 25
		"x230415_1030.mp3",
	} {
		if _, err := ex.Identify(types.CandidateFile{Name: name}); !errors.Is(err, ErrFileNameFormat) {
			t.Errorf("Identify(%q) error = %v, want ErrFileNameFormat", name, err)
		}
	}
}

func TestModTimeIdentify(t *testing.T) {
	mod := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	got, err := ModTime{}.Identify(types.CandidateFile{Name: "anything.mp3", ModTime: mod})
	if err != nil {
		t.Fatalf("Identify() error = %v", err)
	}
	if !got.Equal(mod) {
		t.Fatalf("date = %v, want %v", got, mod)
	}

	if _, err := (ModTime{}).Identify(types.CandidateFile{Name: "a.mp3"}); !errors.Is(err, ErrNoTimestamp) {
		t.Fatalf("zero modtime error = %v, want ErrNoTimestamp", err)
	}
}

func TestNewStrategy(t *testing.T) {
	ex, err := New("modtime", nil)
	if err != nil || !ex.DerivesName() {
		t.Fatalf("modtime extractor = %v, %v", ex, err)
	}
	ex, err = New("", time.UTC)
	if err != nil || ex.DerivesName() {
		t.Fatalf("default extractor = %v, %v", ex, err)
	}
	if _, err := New("exif", nil); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestNameFor(t *testing.T) {
	d := time.Date(2024, time.March, 9, 7, 5, 0, 0, time.UTC)
	if got := NameFor(d, ".mp3"); got != "240309_0705.mp3" {
		t.Fatalf("NameFor = %q", got)
	}
}
