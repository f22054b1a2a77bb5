// Package requestlog captures request/response exchanges for user inspection.
//
// It is distinct from operational logging (log/slog): a Record describes what a
// client sent and what the simulator answered, and the Store keeps a bounded
// history of them for the presentation layer and the /api/requests endpoint.
//
// # Store
//
// Store is a fixed-capacity ring. When full, the oldest record is evicted.
// Sequence ids are assigned inside Log under the same lock as the append, so
// ids are strictly increasing and gap-free in append order. Ids are never
// reused, even across Clear.
//
//	store := requestlog.NewStore(1000)
//	rec := store.Log(requestlog.Record{
//	    Method:     "GET",
//	    URL:        "http://127.0.0.1:8000/health",
//	    StatusCode: 200,
//	})
//	fmt.Println(rec.ID) // 1
//
// TotalCount counts every record ever logged (not only retained ones) and is
// reset only by Clear.
package requestlog
