package metrics

import (
	"github.com/igorwolfs/bldc-pysim/internal/dynamo"
)

// SwitchActivity is the mean fraction of closed switches per sample.
type SwitchActivity struct {
	name    string
	sum     float64
	samples int
}

func NewSwitchActivity() *SwitchActivity {
	return &SwitchActivity{
		name: "switch_activity",
	}
}

func (s *SwitchActivity) Name() string {
	return s.name
}

func (s *SwitchActivity) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(u) == 0 {
		return
	}
	closed := 0
	for _, val := range u {
		if val > 0.5 {
			closed++
		}
	}
	s.sum += float64(closed) / float64(len(u))
	s.samples++
}

func (s *SwitchActivity) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *SwitchActivity) Reset() {
	s.sum = 0
	s.samples = 0
}
