package model

import "time"

// JobStatus is owned by the worker protocol. Only WAITING is set here; any other
// value reported by a worker is stored as given.
type JobStatus string

const (
	JobStatusWaiting   JobStatus = "WAITING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// PlaceholderSize is stored until a worker reports the real output size.
const PlaceholderSize = "0 KB"

type Job struct {
	ID              string
	StorageIDInput  string
	StorageIDOutput string
	Command         string
	Status          JobStatus
	UserID          string
	Duration        string
	FileName        string
	FinalFileSize   string
	IsVideo         bool
	CreatedAt       time.Time
}

// NewJob builds a job in the WAITING state with the placeholder size.
func NewJob(storageIn, storageOut, command, userID, duration, fileName string, isVideo bool) *Job {
	return &Job{
		StorageIDInput:  storageIn,
		StorageIDOutput: storageOut,
		Command:         command,
		Status:          JobStatusWaiting,
		UserID:          userID,
		Duration:        duration,
		FileName:        fileName,
		FinalFileSize:   PlaceholderSize,
		IsVideo:         isVideo,
	}
}

// JobSummary is the caller facing projection of a job.
type JobSummary struct {
	ProcessID       string    `json:"processId"`
	FileName        string    `json:"fileName"`
	Duration        string    `json:"duration"`
	FinalFileSize   string    `json:"finalFileSize"`
	IsVideo         bool      `json:"isVideo"`
	StorageIDOutput string    `json:"storageIdOutput"`
	Status          JobStatus `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (j *Job) Summary() JobSummary {
	return JobSummary{
		ProcessID:       j.ID,
		FileName:        j.FileName,
		Duration:        j.Duration,
		FinalFileSize:   j.FinalFileSize,
		IsVideo:         j.IsVideo,
		StorageIDOutput: j.StorageIDOutput,
		Status:          j.Status,
		CreatedAt:       j.CreatedAt,
	}
}

// JobCreatedEvent is the payload handed to the worker tier.
type JobCreatedEvent struct {
	ID              string    `json:"id"`
	StorageIDInput  string    `json:"storageIdInput"`
	StorageIDOutput string    `json:"storageIdOutput"`
	InputPath       string    `json:"storageInputPath"`
	OutputPath      string    `json:"storageOutputPath"`
	FileName        string    `json:"fileName"`
	FinalFileSize   string    `json:"finalFileSize"`
	Command         string    `json:"command"`
	Status          JobStatus `json:"status"`
	UserID          string    `json:"userId"`
	IsVideo         bool      `json:"isVideo"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewJobCreatedEvent(j *Job, inputPath, outputPath string) JobCreatedEvent {
	return JobCreatedEvent{
		ID:              j.ID,
		StorageIDInput:  j.StorageIDInput,
		StorageIDOutput: j.StorageIDOutput,
		InputPath:       inputPath,
		OutputPath:      outputPath,
		FileName:        j.FileName,
		FinalFileSize:   j.FinalFileSize,
		Command:         j.Command,
		Status:          j.Status,
		UserID:          j.UserID,
		IsVideo:         j.IsVideo,
		CreatedAt:       j.CreatedAt,
	}
}
