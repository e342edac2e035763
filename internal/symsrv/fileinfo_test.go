package symsrv

import "testing"

func TestExeInfoHash(t *testing.T) {
	testCases := []struct {
		name string
		info ExeInfo
		want string
	}{
		{"example", ExeInfo{Timestamp: 0x5f4, Size: 0x2000}, "000005f42000"},
		{"lowercase", ExeInfo{Timestamp: 0xABCDEF12, Size: 0xFF}, "abcdef12ff"},
		{"zero", ExeInfo{}, "000000000"},
		{"max", ExeInfo{Timestamp: 0xFFFFFFFF, Size: 0xFFFFFFFF}, "ffffffffffffffff"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Hash(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPdbInfoHash(t *testing.T) {
	guid := GUIDFromUint64(0x3844dbb920174967, 0xbe7aa4a2c20430fa)
	testCases := []struct {
		name string
		info PdbInfo
		want string
	}{
		{"upper guid lower age", PdbInfo{GUID: guid, Age: 0x1a}, "3844DBB920174967BE7AA4A2C20430FA1a"},
		{"zero age", PdbInfo{GUID: guid, Age: 0}, "3844DBB920174967BE7AA4A2C20430FA0"},
		{"padded guid", PdbInfo{GUID: GUIDFromUint64(0, 1), Age: 2}, "000000000000000000000000000000012"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.Hash(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRawHashPassthrough(t *testing.T) {
	raw := RawHash("MixedCase123abc")
	if raw.Hash() != "MixedCase123abc" {
		t.Fatalf("raw hash must be passed through unchanged, got %s", raw.Hash())
	}
}

func TestParseGUID(t *testing.T) {
	want := GUIDFromUint64(0x3844dbb920174967, 0xbe7aa4a2c20430fa)
	inputs := []string{
		"3844DBB920174967BE7AA4A2C20430FA",
		"3844dbb9-2017-4967-be7a-a4a2c20430fa",
		"{3844DBB9-2017-4967-BE7A-A4A2C20430FA}",
	}
	for _, input := range inputs {
		got, err := ParseGUID(input)
		if err != nil {
			t.Fatalf("ParseGUID(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseGUID(%q) = %s, want %s", input, got, want)
		}
	}

	for _, bad := range []string{"", "1234", "ZZ44DBB920174967BE7AA4A2C20430FA"} {
		if _, err := ParseGUID(bad); err == nil {
			t.Fatalf("ParseGUID(%q) should fail", bad)
		}
	}
}

func TestFileInfoUsableAsMapKey(t *testing.T) {
	seen := map[FileInfo]int{}
	seen[ExeInfo{Timestamp: 1, Size: 2}]++
	seen[ExeInfo{Timestamp: 1, Size: 2}]++
	seen[PdbInfo{GUID: GUIDFromUint64(1, 2), Age: 3}]++
	seen[RawHash("abc")]++
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct keys, got %d", len(seen))
	}
	if seen[ExeInfo{Timestamp: 1, Size: 2}] != 2 {
		t.Fatalf("equal ExeInfo values should collide")
	}
}
