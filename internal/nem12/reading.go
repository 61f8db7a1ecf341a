package nem12

import (
	"fmt"
	"time"
)

// MeterReading is one interval consumption value for a meter.
type MeterReading struct {
	NMI         string    `json:"nmi" yaml:"nmi"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	Consumption float64   `json:"consumption" yaml:"consumption"`
}

func (r MeterReading) String() string {
	return fmt.Sprintf("%s %s %g", r.NMI, r.Timestamp.Format("2006-01-02T15:04"), r.Consumption)
}
