package profiles

import (
	"os"
	"testing"
)

const testProfiles = `
backup:
  args: ["rsync", "-a", "src/", "dst/"]
  disclaim: true

repl:
  args: ["python3"]
  pty: true
  env:
    PYTHONUNBUFFERED: "1"
`

func writeProfiles(t *testing.T, content string) string {
	t.Helper()

	path := t.TempDir() + "/profiles.yaml"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	s, err := NewStore(writeProfiles(t, testProfiles))
	if err != nil {
		t.Fatal(err)
	}

	p, err := s.Get("backup")
	if err != nil {
		t.Fatal(err)
	}
	if p.Args[0] != "rsync" {
		t.Fatalf("unexpected args: %v", p.Args)
	}
	if p.Disclaim == nil || !*p.Disclaim {
		t.Fatal("expected disclaim=true")
	}

	p, err = s.Get("repl")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Pty {
		t.Fatal("expected pty")
	}
	if p.Env["PYTHONUNBUFFERED"] != "1" {
		t.Fatalf("unexpected env: %v", p.Env)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	s, err := NewStore(writeProfiles(t, testProfiles))
	if err != nil {
		t.Fatal(err)
	}

	names := s.Names()
	if len(names) != 2 || names[0] != "backup" || names[1] != "repl" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	s, err := NewStore(writeProfiles(t, testProfiles))
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Get("nope")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestMissingFile(t *testing.T) {
	t.Parallel()

	s, err := NewStore(t.TempDir() + "/none.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Names()) != 0 {
		t.Fatal("expected no profiles")
	}
}

func TestEmptyArgsRejected(t *testing.T) {
	t.Parallel()

	_, err := NewStore(writeProfiles(t, "bad:\n  args: []\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestReload(t *testing.T) {
	t.Parallel()

	path := writeProfiles(t, testProfiles)
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(path, []byte("only:\n  args: [\"true\"]\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get("backup"); err == nil {
		t.Fatal("expected backup to be gone")
	}
	if _, err := s.Get("only"); err != nil {
		t.Fatal(err)
	}
}
