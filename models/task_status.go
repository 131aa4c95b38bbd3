package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type TaskKind string

const (
	TaskCreateReferenceData TaskKind = "create_reference_data"
	TaskClassification      TaskKind = "classification"
	TaskColorRecognition    TaskKind = "color_recognition"
	TaskHSCode              TaskKind = "hs_code"
)

func (k TaskKind) Valid() bool {
	switch k {
	case TaskCreateReferenceData, TaskClassification, TaskColorRecognition, TaskHSCode:
		return true
	}
	return false
}

type TaskState string

const (
	TaskInProgress TaskState = "in_progress"
	TaskSuccess    TaskState = "success"
	TaskError      TaskState = "error"
)

// TaskStatus records the progress of a background task.
type TaskStatus struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	TaskUUID  string    `gorm:"column:task_uuid;uniqueIndex;not null" json:"task_uuid"`
	Task      TaskKind  `gorm:"not null" json:"task"`
	Status    TaskState `gorm:"not null;index" json:"status"`
	Info      *string   `json:"info"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TaskStatus) TableName() string {
	return "task_status"
}

func CreateTaskStatus(db *gorm.DB, taskUUID string, task TaskKind) (*TaskStatus, error) {
	status := TaskStatus{
		TaskUUID: taskUUID,
		Task:     task,
		Status:   TaskInProgress,
	}

	if err := db.Create(&status).Error; err != nil {
		return nil, err
	}

	return &status, nil
}

func UpdateTaskStatus(db *gorm.DB, taskUUID string, status TaskState, info string) error {
	res := db.Model(&TaskStatus{}).
		Where("task_uuid = ?", taskUUID).
		Updates(map[string]any{"status": status, "info": info})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func GetTaskStatus(db *gorm.DB, taskUUID string) (*TaskStatus, error) {
	var status TaskStatus
	err := db.Where("task_uuid = ?", taskUUID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &status, nil
}

// LoadTaskStatuses returns the status of one task, or of all tasks newest
// first when taskUUID is nil.
func LoadTaskStatuses(db *gorm.DB, taskUUID *string) ([]TaskStatus, error) {
	query := db.Order("updated_at DESC")
	if taskUUID != nil {
		query = query.Where("task_uuid = ?", *taskUUID)
	}

	var statuses []TaskStatus
	if err := query.Find(&statuses).Error; err != nil {
		return nil, err
	}

	return statuses, nil
}
