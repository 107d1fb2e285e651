package storage

import "testing"

// TestRebindPostgres verifies ? placeholders become numbered parameters.
func TestRebindPostgres(t *testing.T) {
	q := &Queries{postgres: true}
	got := q.rebind(`SELECT a FROM t WHERE b = ? AND c IN (?, ?)`)
	want := `SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
}
