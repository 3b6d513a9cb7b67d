// Package stage derives the shipment progress indicator shown on the public
// tracking page. The stage is computed fresh on every read and never stored.
package stage

import (
	"math"
	"time"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/trackid"
)

// Input is the slice of a tracking record the calculator needs. CreatedAt and
// DeliveryDate are optional; when CreatedAt is missing the stamp embedded in
// the tracking ID is used instead.
type Input struct {
	TrackingID    string
	CreatedAt     *time.Time
	DeliveryDate  *time.Time
	Status        string
	StatusMessage string
}

// Stage is the derived progress state: which of the 4 route points is active,
// whether the shipment is held at the final point, and the percentage shown on
// the progress bar.
type Stage struct {
	ActiveIndex    int    `json:"active_index"`
	Hold           bool   `json:"hold"`
	ProgressPct    int    `json:"progress_pct"`
	StatusHeadline string `json:"status_headline"`
	StatusMessage  string `json:"status_message"`
}

// Fallback thresholds for records that have a creation time but no delivery
// estimate.
var elapsedFallback = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
}

// Compute is a pure function of the record and the supplied clock.
func Compute(in Input, now time.Time) Stage {
	created := in.CreatedAt
	if created == nil {
		if t, ok := trackid.StampTime(in.TrackingID); ok {
			created = &t
		}
	}
	delivery := in.DeliveryDate

	activeIndex := 0
	switch {
	case created != nil && delivery != nil:
		total := delivery.Sub(*created)
		if total <= 0 {
			// Delivery at or before creation: treat as arrived and held.
			activeIndex = 3
			break
		}
		elapsed := now.Sub(*created)
		if elapsed < 0 {
			elapsed = 0
		}
		// Partition [0, total) into 4 equal quarters; anything at or past the
		// 3rd quarter boundary clamps to the last point.
		activeIndex = int(4 * elapsed / total)
		if activeIndex > 3 {
			activeIndex = 3
		}
	case created != nil:
		elapsed := now.Sub(*created)
		activeIndex = 3
		for i, th := range elapsedFallback {
			if elapsed < th {
				activeIndex = i
				break
			}
		}
	default:
		activeIndex = 0
	}

	hold := activeIndex == 3
	pct := int(math.Round(float64(activeIndex) / 3 * 100))
	if pct > 100 {
		pct = 100
	}

	headline := in.Status
	message := in.StatusMessage
	if hold {
		headline = "On Hold"
		message = "On Hold"
	}
	if headline == "" {
		headline = "In progress"
	}
	if message == "" {
		message = "In progress"
	}

	return Stage{
		ActiveIndex:    activeIndex,
		Hold:           hold,
		ProgressPct:    pct,
		StatusHeadline: headline,
		StatusMessage:  message,
	}
}
