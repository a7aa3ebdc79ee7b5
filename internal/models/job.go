package models

// JobKind names the three request types the platform accepts.
type JobKind string

const (
	JobKindCrawl   JobKind = "crawl"
	JobKindSearch  JobKind = "search"
	JobKindSitemap JobKind = "sitemap"
)

func (k JobKind) Valid() bool {
	switch k {
	case JobKindCrawl, JobKindSearch, JobKindSitemap:
		return true
	}
	return false
}

// Label is the human name used in client-facing messages.
func (k JobKind) Label() string {
	switch k {
	case JobKindCrawl:
		return "crawl"
	case JobKindSearch:
		return "search"
	case JobKindSitemap:
		return "sitemap"
	}
	return string(k)
}

// Table is the table holding jobs of this kind.
func (k JobKind) Table() string {
	switch k {
	case JobKindCrawl:
		return "crawl_requests"
	case JobKindSearch:
		return "search_requests"
	case JobKindSitemap:
		return "sitemap_requests"
	}
	return ""
}

type JobStatus string

const (
	JobStatusNew       JobStatus = "new"
	JobStatusRunning   JobStatus = "running"
	JobStatusFinished  JobStatus = "finished"
	JobStatusCanceling JobStatus = "canceling"
	JobStatusCanceled  JobStatus = "canceled"
	JobStatusFailed    JobStatus = "failed"
)

// OpenJobStatuses are the states that count against a team's concurrency.
func OpenJobStatuses() []JobStatus {
	return []JobStatus{JobStatusNew, JobStatusRunning}
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusNew, JobStatusRunning, JobStatusFinished,
		JobStatusCanceling, JobStatusCanceled, JobStatusFailed:
		return true
	}
	return false
}

func (s JobStatus) IsOpen() bool {
	return s == JobStatusNew || s == JobStatusRunning
}

func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusFinished, JobStatusCanceled, JobStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from s to next.
//
//	new -> running | canceling | failed
//	running -> finished | canceling | failed
//	canceling -> canceled | failed
//
// Terminal states never move.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusNew:
		return next == JobStatusRunning || next == JobStatusCanceling || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusFinished || next == JobStatusCanceling || next == JobStatusFailed
	case JobStatusCanceling:
		return next == JobStatusCanceled || next == JobStatusFailed
	case JobStatusFinished, JobStatusCanceled, JobStatusFailed:
		return false
	}
	return false
}

type ProxyCategory string

const (
	ProxyCategoryGeneral ProxyCategory = "general"
	ProxyCategoryPremium ProxyCategory = "premium"
	ProxyCategoryTeam    ProxyCategory = "team"
)

func (c ProxyCategory) Valid() bool {
	switch c {
	case ProxyCategoryGeneral, ProxyCategoryPremium, ProxyCategoryTeam:
		return true
	}
	return false
}

type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
	SearchDepthUltimate SearchDepth = "ultimate"
)

type CrawlType string

const (
	CrawlTypeSingle CrawlType = "single"
	CrawlTypeBatch  CrawlType = "batch"
)
