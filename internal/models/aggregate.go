package models

// OutcomeCount is the number of queries that ended with one outcome.
type OutcomeCount struct {
	Outcome string
	Count   int
}

// QueueSummary aggregates the queries routed to one queue. Durations are
// milliseconds.
type QueueSummary struct {
	Queue       string
	Queries     int
	Failed      int
	AvgDuration float64
	MaxDuration float64
	AvgQueued   float64
}
