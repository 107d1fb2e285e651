// Package ingest holds types shared by workout history providers.
package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	RowsReceived      int   `json:"rows_received"`
	WorkoutsInserted  int   `json:"workouts_inserted"`
	WorkoutsReplaced  int   `json:"workouts_replaced"`
	ExercisesInserted int   `json:"exercises_inserted"`
	SetsInserted      int64 `json:"sets_inserted"`

	Message string `json:"message,omitempty"`
}

// Add accumulates o into r.
func (r *Result) Add(o Result) {
	r.RowsReceived += o.RowsReceived
	r.WorkoutsInserted += o.WorkoutsInserted
	r.WorkoutsReplaced += o.WorkoutsReplaced
	r.ExercisesInserted += o.ExercisesInserted
	r.SetsInserted += o.SetsInserted
}
