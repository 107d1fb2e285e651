package storage

// RebindForTest exposes rebind to the external test package.
func (q *Queries) RebindForTest(query string) string { return q.rebind(query) }
