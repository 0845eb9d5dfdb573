package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/storacha/sizetracker/internal/db/sizehistory"
	"github.com/storacha/sizetracker/internal/plotter"
	"github.com/storacha/sizetracker/web"
)

// mockSource serves a canned size history for previewing the dashboard
type mockSource struct{}

func (m *mockSource) Snapshot(ctx context.Context) (*plotter.Snapshot, error) {
	now := time.Now().UTC()

	// Mock data - a bucket that filled up, was cleaned and is growing again
	sizes := []uint64{
		812_646_400,   // ~775 MB
		845_152_256,   // ~806 MB
		845_152_256,   // ~806 MB
		901_775_360,   // ~860 MB
		923_271_168,   // ~880 MB
		1_010_827_264, // ~964 MB
	}

	snap := &plotter.Snapshot{
		Bucket:        "sizetracker-preview-bucket",
		WindowStart:   now.Add(-time.Minute),
		WindowEnd:     now,
		HistoricalMax: 2_684_354_560, // 2.5 GB
	}
	for i, size := range sizes {
		snap.Samples = append(snap.Samples, sizehistory.SizeSample{
			BucketName:   snap.Bucket,
			Timestamp:    now.Add(time.Duration(i-len(sizes)) * 9 * time.Second),
			TotalSize:    size,
			TotalObjects: uint64(1200 + 37*i),
		})
	}
	return snap, nil
}

func main() {
	port := "8080"

	mux := http.NewServeMux()
	mux.HandleFunc("/admin", web.AdminHandler(&mockSource{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin", http.StatusFound)
	})

	fmt.Printf("🎨 Admin Dashboard Preview Server\n")
	fmt.Printf("   Visit: http://localhost:%s/admin\n\n", port)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
