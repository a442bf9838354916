package failures

import (
	"regexp"
)

type Insight struct {
	Pattern     string
	Description string
	Severity    string
	Action      string
	regex       *regexp.Regexp
}

// KnowledgeBase is matched in order; the first hit wins.
var KnowledgeBase = []Insight{
	{
		Pattern:     `out of memory|OutOfMemory|Query was cancelled because it exceeded the memory limits`,
		Description: "Query ran out of memory on an executor or in direct memory.",
		Severity:    "Critical",
		Action:      "Check the queue memory limits and executor direct memory. Large joins and aggregations spill only when the operator supports it.",
	},
	{
		Pattern:     `RESOURCE ERROR.*(queue|limit)|exceeded.*queue|enqueued time`,
		Description: "Query was rejected or timed out by workload management.",
		Severity:    "Warning",
		Action:      "Review the queue's concurrency and queue timeout settings against the enqueued times in this report.",
	},
	{
		Pattern:     `cancel+ed by user|Query cancelled by user`,
		Description: "Query was cancelled by the client.",
		Severity:    "Info",
		Action:      "Usually a client timeout. Compare the duration with the client's query timeout.",
	},
	{
		Pattern:     `planning.*(timeout|timed out)|took too long to plan`,
		Description: "Query planning exceeded its time budget.",
		Severity:    "Warning",
		Action:      "Check the Longest Planning table. Stale metadata or many reflections increase planning time.",
	},
	{
		Pattern:     `Object .* not found|Table .* not found|VALIDATION ERROR`,
		Description: "Query references a dataset that does not exist or is not visible.",
		Severity:    "Info",
		Action:      "Usually a user error. Check for dropped or renamed datasets.",
	},
	{
		Pattern:     `metadata.*(refresh|retrieval).*fail|Failed to get metadata`,
		Description: "Metadata retrieval from a source failed.",
		Severity:    "Warning",
		Action:      "Check source health and the metadata refresh settings of the source.",
	},
	{
		Pattern:     `ConnectionRefused|Connection refused|UnknownHost|timed out while connecting`,
		Description: "A source or executor was unreachable.",
		Severity:    "Critical",
		Action:      "Check network connectivity between coordinator, executors and the source.",
	},
	{
		Pattern:     `SYSTEM ERROR|NullPointerException|IllegalStateException`,
		Description: "Unexpected internal failure.",
		Severity:    "Critical",
		Action:      "Collect the query profile and server logs for the failing query id.",
	},
}

func init() {
	for i := range KnowledgeBase {
		KnowledgeBase[i].regex = regexp.MustCompile("(?i)" + KnowledgeBase[i].Pattern)
	}
}

// Lookup returns the first insight matching reason.
func Lookup(reason string) (Insight, bool) {
	for _, in := range KnowledgeBase {
		if in.regex.MatchString(reason) {
			return in, true
		}
	}
	return Insight{}, false
}
