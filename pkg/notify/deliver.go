package notify

import (
	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
)

// Report summarizes a delivery run.
type Report struct {
	Delivered int
	Total     int
}

// OK reports whether at least one result was delivered in full, the run's
// success criterion.
func (r Report) OK() bool {
	return r.Delivered > 0
}

// Deliver pushes every part of every formatted result, best-effort. A failed
// part fails its result but later parts and results are still attempted.
func Deliver(sender Sender, results []FormattedResult) Report {
	report := Report{Total: len(results)}

	for _, fr := range results {
		delivered := true
		for p, part := range fr.Parts {
			if err := sender.Send(part); err != nil {
				utils.Log.Errorf("delivery of %s part %d/%d failed: %v", fr.Model, p+1, len(fr.Parts), err)
				delivered = false
				continue
			}
			utils.Log.Debugf("delivered %s part %d/%d", fr.Model, p+1, len(fr.Parts))
		}
		if delivered {
			report.Delivered++
		}
	}

	utils.Log.Infof("delivery finished: %d/%d results sent", report.Delivered, report.Total)
	return report
}
