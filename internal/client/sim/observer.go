package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/driftsync/driftsync/internal/client/progress"
	"github.com/dustin/go-humanize"
)

// LogObserver returns an observer that logs each published snapshot with
// humanized units.
func LogObserver(logger *slog.Logger) progress.ObserverFunc {
	return func(group string, snap progress.Snapshot) {
		attrs := []any{
			"group", group,
			"files", fmt.Sprintf("%d/%d", snap.CompletedFiles, snap.TotalFiles),
			"bytes", fmt.Sprintf("%s/%s", humanize.Bytes(snap.CompletedBytes), humanize.Bytes(snap.TotalBytes)),
			"bw", humanize.Bytes(uint64(snap.EstimatedBandwidth)) + "/s",
		}
		if snap.EstimatedEtaMs > 0 {
			eta := time.Duration(snap.EstimatedEtaMs) * time.Millisecond
			attrs = append(attrs, "eta", eta.Round(time.Second).String())
		}
		if last := snap.LastCompletedItem; last != nil {
			attrs = append(attrs, "last", fmt.Sprintf("%s %s", last.ResultString(), last.Path))
		}
		logger.Info("sync progress", attrs...)
	}
}
