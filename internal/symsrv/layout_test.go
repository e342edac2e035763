package symsrv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTwoTierPrefix(t *testing.T) {
	testCases := map[string]string{
		"ntdll.pdb":    "nt",
		"kernel32.pdb": "ke",
		"NTDLL.PDB":    "nt",
		"Kernel32.dll": "ke",
		"a.pdb":        "a.",
		"ab":           "ab",
		"A":            "a",
		"a":            "a",
		"":             "",
	}
	for input, want := range testCases {
		if got := TwoTierPrefix(input); got != want {
			t.Fatalf("TwoTierPrefix(%q) = %q, want %q", input, got, want)
		}
		if got := TwoTierPrefix(TwoTierPrefix(input)); got != want {
			t.Fatalf("TwoTierPrefix should be idempotent for %q, got %q", input, got)
		}
	}
}

func TestIsTwoTierTracksMarker(t *testing.T) {
	root := t.TempDir()
	if IsTwoTier(root) {
		t.Fatalf("empty cache root should be single-tier")
	}

	marker := filepath.Join(root, TwoTierMarker)
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if !IsTwoTier(root) {
		t.Fatalf("index2.txt should switch the root to two-tier")
	}

	if err := os.Remove(marker); err != nil {
		t.Fatalf("remove marker: %v", err)
	}
	if IsTwoTier(root) {
		t.Fatalf("removing index2.txt should switch back to single-tier")
	}
}

func TestIsTwoTierIgnoresNestedMarker(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "nt")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, TwoTierMarker), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if IsTwoTier(root) {
		t.Fatalf("only a top-level index2.txt counts")
	}
}

func TestCachePathLayouts(t *testing.T) {
	root := t.TempDir()
	hash := "3844DBB920174967BE7AA4A2C20430FA1"

	single := CachePath(root, "ntdll.pdb", hash)
	if want := filepath.Join(root, "ntdll.pdb", hash, "ntdll.pdb"); single != want {
		t.Fatalf("single-tier path %s, want %s", single, want)
	}

	if err := os.WriteFile(filepath.Join(root, TwoTierMarker), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	two := CachePath(root, "NTDLL.pdb", hash)
	if want := filepath.Join(root, "nt", "NTDLL.pdb", hash, "NTDLL.pdb"); two != want {
		t.Fatalf("two-tier path %s, want %s", two, want)
	}
	if rel := RelativePath(root, "NTDLL.pdb", hash); rel != filepath.Join("nt", "NTDLL.pdb", hash, "NTDLL.pdb") {
		t.Fatalf("unexpected relative path %s", rel)
	}
}

func TestRemoteURL(t *testing.T) {
	got := RemoteURL("https://msdl.microsoft.com/download/symbols", "ntdll.pdb", "ABC1")
	if got != "https://msdl.microsoft.com/download/symbols/ntdll.pdb/ABC1/ntdll.pdb" {
		t.Fatalf("unexpected url %s", got)
	}
	// base URL is used verbatim, trailing slash included
	if got := RemoteURL("http://h/s/", "a.dll", "1"); got != "http://h/s//a.dll/1/a.dll" {
		t.Fatalf("unexpected url %s", got)
	}
}
