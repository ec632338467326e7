package sim

import "github.com/igorwolfs/bldc-pysim/internal/dynamo"

// Progress reports whole-percent completion of a run. Report is called only
// when the percentage changes.
type Progress struct {
	Duration float64
	Report   func(percent int)

	last int
}

func NewProgress(duration float64, report func(int)) *Progress {
	return &Progress{Duration: duration, Report: report, last: -1}
}

func (p *Progress) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if p.Duration <= 0 || p.Report == nil {
		return
	}
	percent := int(t * 100 / p.Duration)
	if percent > 100 {
		percent = 100
	}
	if percent != p.last {
		p.last = percent
		p.Report(percent)
	}
}
