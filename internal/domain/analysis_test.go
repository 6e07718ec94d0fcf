package domain

import "testing"

func TestScanStatsDangerous(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		stats ScanStats
		want  bool
	}{
		{"clean", ScanStats{Harmless: 60, Undetected: 12}, false},
		{"zero report", ScanStats{}, false},
		{"malicious only", ScanStats{Malicious: 2, Harmless: 58}, true},
		{"suspicious only", ScanStats{Suspicious: 1, Harmless: 61}, true},
		{"both", ScanStats{Malicious: 3, Suspicious: 4}, true},
	}
	for _, tc := range cases {
		if got := tc.stats.Dangerous(); got != tc.want {
			t.Fatalf("%s: Dangerous() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseOperation(t *testing.T) {
	t.Parallel()

	if op, ok := ParseOperation("upload"); !ok || op != OperationUpload {
		t.Fatalf("parse upload: got %q, %v", op, ok)
	}
	if op, ok := ParseOperation("download"); !ok || op != OperationDownload {
		t.Fatalf("parse download: got %q, %v", op, ok)
	}
	for _, raw := range []string{"", "Upload", "delete", "UPLOAD"} {
		if _, ok := ParseOperation(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
