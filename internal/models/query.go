package models

type QueryOutcome string

const (
	OutcomeCompleted QueryOutcome = "COMPLETED"
	OutcomeFailed    QueryOutcome = "FAILED"
	OutcomeCanceled  QueryOutcome = "CANCELED"
)

// QueryRecord is one entry of queries.json. Times are epoch milliseconds and
// durations are milliseconds.
type QueryRecord struct {
	ID                string       `json:"queryId"`
	Start             int64        `json:"start"`
	Finish            int64        `json:"finish"`
	Outcome           QueryOutcome `json:"outcome"`
	FailureReason     string       `json:"outcomeReason,omitempty"`
	Queue             string       `json:"queueName,omitempty"`
	User              string       `json:"username,omitempty"`
	QueryType         string       `json:"queryType,omitempty"`
	Text              string       `json:"queryText,omitempty"`
	Pending           int64        `json:"pendingTime"`
	MetadataRetrieval int64        `json:"metadataRetrievalTime"`
	Planning          int64        `json:"planningTime"`
	Queued            int64        `json:"enqueuedTime"`
	Running           int64        `json:"runningTime"`
	Parents           []DatasetRef `json:"parentsList,omitempty"`
}

// DatasetRef names a dataset a query read from.
type DatasetRef struct {
	Path []string `json:"datasetPathList"`
	Type string   `json:"type,omitempty"`
}

// Duration is the wall-clock span of the query. Component durations may sum
// to less than this.
func (q QueryRecord) Duration() int64 {
	return q.Finish - q.Start
}
