package wal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScan_MissingFile(t *testing.T) {
	called := false
	res, err := Scan(filepath.Join(t.TempDir(), "absent"), func(Line) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Exists || called {
		t.Fatalf("expected no lines for a missing file, got %+v", res)
	}
}

func TestScan_LinesAndTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	content := "one\n\n  \ntwo\nthr"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var lines []Line
	res, err := Scan(path, func(l Line) error {
		lines = append(lines, l)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(lines) != 3 || res.Lines != 3 {
		t.Fatalf("expected 3 non-blank lines, got %d (%+v)", len(lines), res)
	}
	if string(lines[0].Data) != "one" || lines[0].Num != 1 {
		t.Errorf("unexpected first line %+v", lines[0])
	}
	if string(lines[1].Data) != "two" || lines[1].Num != 4 || !lines[1].Complete {
		t.Errorf("unexpected second line %+v", lines[1])
	}
	if string(lines[2].Data) != "thr" || lines[2].Complete {
		t.Errorf("expected torn third line, got %+v", lines[2])
	}
	if !res.TornTail || res.ValidSize != int64(len("one\n\n  \ntwo\n")) {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestScan_StopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	os.WriteFile(path, []byte("a\nb\nc\n"), 0644)

	stop := errors.New("stop")
	seen := 0
	_, err := Scan(path, func(Line) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if err != stop || seen != 2 {
		t.Fatalf("expected stop after 2 lines, got err=%v seen=%d", err, seen)
	}
}
