package dto

import (
	"time"
)

type JobCreateDTO struct {
	InvocationType string            `json:"invocation_type" validate:"required,max=512"`
	Method         string            `json:"method" validate:"required,max=512"`
	Arguments      []string          `json:"arguments"`
	Parameters     map[string]string `json:"parameters" validate:"omitempty,dive,keys,required,max=40,endkeys"`
	Queues         []string          `json:"queues" validate:"omitempty,dive,required,max=50"`
	Reason         string            `json:"reason" validate:"max=100"`
}

type JobCreatedDTO struct {
	ID     uint     `json:"id"`
	State  string   `json:"state"`
	Queues []string `json:"queues"`
}

type StateAppendDTO struct {
	Name   string            `json:"name" validate:"required,max=20"`
	Reason string            `json:"reason" validate:"max=100"`
	Data   map[string]string `json:"data"`
}

type StateCreatedDTO struct {
	ID uint `json:"id"`
}

type StateDTO struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Reason    string            `json:"reason,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Data      map[string]string `json:"data,omitempty"`
}

type QueueEntryDTO struct {
	ID        uint       `json:"id"`
	Queue     string     `json:"queue"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type JobResponseDTO struct {
	ID             uint              `json:"id"`
	InvocationType string            `json:"invocation_type"`
	Method         string            `json:"method"`
	Arguments      []string          `json:"arguments"`
	Parameters     map[string]string `json:"parameters"`
	State          *StateDTO         `json:"state,omitempty"`
	History        []StateDTO        `json:"history"`
	Queues         []QueueEntryDTO   `json:"queues"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiredAt      *time.Time        `json:"expired_at,omitempty"`
}

type ParameterDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ParameterSetDTO struct {
	Value string `json:"value"`
}

// ExpireDTO sets when a job becomes eligible for removal. At wins over In;
// with neither set the job expires immediately.
type ExpireDTO struct {
	At *time.Time `json:"at,omitempty"`
	In string     `json:"in,omitempty"`
}
