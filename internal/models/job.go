package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is the root record. Arguments, parameters and states are owned by it
// and removed together with it; queue entries reference it.
type Job struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;not null"`
	ExpiredAt      *time.Time `gorm:"index"`
	InvocationType string     `gorm:"type:varchar(512);not null"`
	Method         string     `gorm:"type:varchar(512);not null"`

	// StateID points into this job's own States. StateName mirrors the
	// active state's name so dashboards can group without a join.
	StateID   *uint  `gorm:"index"`
	StateName string `gorm:"type:varchar(20);index"`

	Arguments  []JobArgument  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	Parameters []JobParameter `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	States     []State        `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	QueuedJobs []QueuedJob    `gorm:"foreignKey:JobID"`
}

type JobArgument struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	JobID    uint   `gorm:"not null;uniqueIndex:idx_job_arguments_job_position"`
	Position int    `gorm:"not null;uniqueIndex:idx_job_arguments_job_position"`
	Value    string `gorm:"type:text"`
}

type JobParameter struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	JobID uint   `gorm:"not null;uniqueIndex:idx_job_parameters_job_name"`
	Name  string `gorm:"type:varchar(40);not null;uniqueIndex:idx_job_parameters_job_name"`
	Value string `gorm:"type:text"`
}

// State is one immutable entry of a job's transition history. Name is an
// open set owned by the job framework, Data carries transition details.
type State struct {
	ID        uint                                  `gorm:"primaryKey;autoIncrement"`
	JobID     uint                                  `gorm:"not null;index"`
	Name      string                                `gorm:"type:varchar(20);not null"`
	Reason    string                                `gorm:"type:varchar(100)"`
	CreatedAt time.Time                             `gorm:"not null"`
	Data      datatypes.JSONType[map[string]string] `gorm:"type:text"`
}

// QueuedJob is a delivery entry of a job on a queue. A nil FetchedAt means
// waiting; otherwise the entry is leased since FetchedAt.
type QueuedJob struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"`
	JobID     uint       `gorm:"not null;index"`
	Queue     string     `gorm:"type:varchar(50);not null;index:idx_queued_jobs_queue_fetched"`
	FetchedAt *time.Time `gorm:"index:idx_queued_jobs_queue_fetched"`
	CreatedAt time.Time  `gorm:"autoCreateTime;not null"`
}

// All returns every model in migration order.
func All() []any {
	return []any{&Job{}, &JobArgument{}, &JobParameter{}, &State{}, &QueuedJob{}}
}
