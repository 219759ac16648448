package domain

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want StreamStatus
	}{
		{"pending", StreamPending},
		{"downloading", StreamDownloading},
		{"converting", StreamConverting},
		{"complete", StreamComplete},
		{"error", StreamError},
		{"", StreamPending},
		{"warming-up", StreamPending},
		{"DOWNLOADING", StreamPending},
	}
	for _, tc := range cases {
		if got := NormalizeStatus(tc.raw); got != tc.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
