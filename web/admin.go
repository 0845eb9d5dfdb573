package web

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/sizetracker/internal/plotter"
)

var log = logging.Logger("web")

//go:embed templates/admin.html.tmpl
var adminTemplateHTML string

//go:embed static/css/admin.css
var adminCSS string

// SnapshotSource provides the data shown on the dashboard.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*plotter.Snapshot, error)
}

type sampleRow struct {
	Timestamp time.Time
	Size      uint64
	Objects   uint64
}

type adminDashboardData struct {
	Bucket        string
	WindowStart   time.Time
	WindowEnd     time.Time
	HistoricalMax uint64
	Latest        *sampleRow
	// PeakPercent is the latest size as a percentage of the historical max.
	PeakPercent float64
	Samples     []sampleRow
	Error       string
	CSS         template.CSS
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

func newDashboardData(snap *plotter.Snapshot) adminDashboardData {
	data := adminDashboardData{
		Bucket:        snap.Bucket,
		WindowStart:   snap.WindowStart,
		WindowEnd:     snap.WindowEnd,
		HistoricalMax: snap.HistoricalMax,
		CSS:           template.CSS(adminCSS),
	}

	// newest first
	for i := len(snap.Samples) - 1; i >= 0; i-- {
		s := snap.Samples[i]
		data.Samples = append(data.Samples, sampleRow{Timestamp: s.Timestamp, Size: s.TotalSize, Objects: s.TotalObjects})
	}

	if len(data.Samples) > 0 {
		data.Latest = &data.Samples[0]
		if snap.HistoricalMax > 0 {
			data.PeakPercent = float64(data.Latest.Size) / float64(snap.HistoricalMax) * 100
		}
	}
	return data
}

// AdminHandler returns an HTTP handler for the admin dashboard
func AdminHandler(src SnapshotSource) http.HandlerFunc {
	tmpl := template.Must(template.New("admin").Funcs(template.FuncMap{
		"formatBytes": formatBytes,
		"formatTime":  formatTime,
	}).Parse(adminTemplateHTML))

	return func(w http.ResponseWriter, r *http.Request) {
		var data adminDashboardData

		snap, err := src.Snapshot(r.Context())
		if err != nil {
			log.Errorw("loading dashboard snapshot", "error", err)
			data = adminDashboardData{
				Error: fmt.Sprintf("Error fetching size history: %v", err),
				CSS:   template.CSS(adminCSS),
			}
		} else {
			data = newDashboardData(snap)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			log.Errorf("executing admin template: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}
