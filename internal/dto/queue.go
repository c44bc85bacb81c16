package dto

// PageQueryDTO carries raw paging input. Out-of-range values are clamped by
// the service, never rejected.
type PageQueryDTO struct {
	Offset int `form:"offset"`
	Count  int `form:"count"`
}

type JobIDPageDTO struct {
	Queue  string   `json:"queue"`
	Offset int      `json:"offset"`
	Count  int      `json:"count"`
	JobIDs []string `json:"job_ids"`
}

type QueueStatsDTO struct {
	Queue    string `json:"queue"`
	Enqueued int64  `json:"enqueued"`
	Fetched  int64  `json:"fetched"`
}

type StateCountsDTO struct {
	Counts map[string]int64 `json:"counts"`
}
