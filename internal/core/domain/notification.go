package domain

import "time"

type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
	LevelWarning NotificationLevel = "warning"
	LevelInfo    NotificationLevel = "info"
)

// Notification is a short-lived, user-visible message about the outcome of an operation.
type Notification struct {
	ID          string            `json:"id"`
	Level       NotificationLevel `json:"level"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	At          time.Time         `json:"at"`
}

func Success(title, description string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Description: description}
}

func Failure(title, description string) Notification {
	return Notification{Level: LevelError, Title: title, Description: description}
}

func Warning(title, description string) Notification {
	return Notification{Level: LevelWarning, Title: title, Description: description}
}
