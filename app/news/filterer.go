package news

import "time"

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run keeps the records created on or after the high-water date, in order.
func (f *Filterer) Run(records []Record, highWater time.Time) []Record {
	cutoff := DateOf(highWater)

	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		if !DateOf(record.DateCreated).Before(cutoff) {
			filtered = append(filtered, record)
		}
	}

	return filtered
}

// DateOf drops the clock part of t, keeping its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
