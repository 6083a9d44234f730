package httpapi

import (
	"testing"
	"time"
)

func TestManualDispatchID(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 9, 7, 30, 0, 5, time.FixedZone("WIB", 7*3600))
	tests := map[string]string{
		"dedup-members": "manual-dedup-members-20250309T003000.000000005Z",
		"dedup all/now": "manual-dedup-all-now-20250309T003000.000000005Z",
		"   ":           "manual-unknown-20250309T003000.000000005Z",
	}
	for job, want := range tests {
		if got := manualDispatchID(job, at); got != want {
			t.Fatalf("manualDispatchID(%q)=%q want=%q", job, got, want)
		}
	}
}
