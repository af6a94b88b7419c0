package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	ChannelApp   = "aplicacao"
	ChannelEmail = "email"
	ChannelPush  = "push"
)

const (
	FrequencyOnce      = "única"
	FrequencyDaily     = "diária"
	FrequencyTwiceADay = "a cada 12 horas"
	FrequencyEvery6h   = "a cada 6 horas"
)

// FrequencyWindow is how long a sent reminder suppresses the next one. Zero means forever.
func FrequencyWindow(freq string) time.Duration {
	switch freq {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyTwiceADay:
		return 12 * time.Hour
	case FrequencyEvery6h:
		return 6 * time.Hour
	default:
		return 0
	}
}

type ReadStatus string

const (
	ReadStatusUnread    ReadStatus = "não lida"
	ReadStatusRead      ReadStatus = "lida"
	ReadStatusDismissed ReadStatus = "descartada"
)

// ChannelList is stored as a comma separated column.
type ChannelList []string

func (c ChannelList) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return strings.Join(c, ","), nil
}

func (c *ChannelList) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan channels: unsupported type %T", src)
	}
	if raw == "" {
		*c = ChannelList{}
		return nil
	}
	*c = strings.Split(raw, ",")
	return nil
}

func (ChannelList) GormDataType() string { return "string" }

type AdditionalReminder struct {
	Date time.Time `json:"date"`
}

// ReminderList is stored as a JSON document.
type ReminderList []AdditionalReminder

func (r ReminderList) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal([]AdditionalReminder(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *ReminderList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan reminders: unsupported type %T", src)
	}
	var out []AdditionalReminder
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan reminders: %w", err)
	}
	*r = out
	return nil
}

func (ReminderList) GormDataType() string { return "text" }

// NotificationPreference holds a user's default reminder behaviour.
type NotificationPreference struct {
	ID                    int64       `gorm:"primaryKey" json:"-"`
	AccountID             int64       `gorm:"uniqueIndex:idx_pref_owner;not null" json:"-"`
	UserID                int64       `gorm:"uniqueIndex:idx_pref_owner;not null" json:"-"`
	Channels              ChannelList `gorm:"size:64;not null" json:"channels"`
	DefaultLeadTimeHours  int         `gorm:"not null" json:"defaultLeadTimeHours"`
	NotifyForOverdueTasks bool        `gorm:"not null" json:"notifyForOverdueTasks"`
	ReminderFrequency     string      `gorm:"size:32;not null" json:"reminderFrequency"`
	NotificationsActive   bool        `gorm:"not null" json:"notificationsActive"`
	QuietHourStart        *string     `gorm:"size:5" json:"quietHourStart"`
	QuietHourEnd          *string     `gorm:"size:5" json:"quietHourEnd"`
	HistoryRetentionDays  int         `gorm:"not null" json:"historyRetentionDays"`
	DateModified          time.Time   `gorm:"autoUpdateTime" json:"dateModified"`
}

// DefaultNotificationPreference is what a user gets before saving any preference.
func DefaultNotificationPreference(accountID, userID int64) NotificationPreference {
	return NotificationPreference{
		AccountID:             accountID,
		UserID:                userID,
		Channels:              ChannelList{ChannelApp},
		DefaultLeadTimeHours:  24,
		NotifyForOverdueTasks: true,
		ReminderFrequency:     FrequencyOnce,
		NotificationsActive:   true,
		HistoryRetentionDays:  30,
	}
}

// InQuietHours reports whether clock (HH:MM) falls in [start, end).
func (p NotificationPreference) InQuietHours(clock string) bool {
	if p.QuietHourStart == nil || p.QuietHourEnd == nil {
		return false
	}
	return clock >= *p.QuietHourStart && clock < *p.QuietHourEnd
}

// TaskNotificationSetting overrides the user preference for one task.
type TaskNotificationSetting struct {
	ID                      int64        `gorm:"primaryKey" json:"-"`
	AccountID               int64        `gorm:"index;not null" json:"-"`
	TaskID                  int64        `gorm:"uniqueIndex;not null" json:"idTask"`
	UseCustomSettings       bool         `gorm:"not null" json:"useCustomSettings"`
	CustomLeadTimeHours     *int         `json:"customLeadTimeHours"`
	CustomChannels          ChannelList  `gorm:"size:64" json:"customChannels"`
	AdditionalReminders     ReminderList `json:"additionalReminders"`
	TaskNotificationsActive bool         `gorm:"not null" json:"taskNotificationsActive"`
	DateModified            time.Time    `gorm:"autoUpdateTime" json:"dateModified"`
}

func DefaultTaskNotificationSetting(accountID, taskID int64) TaskNotificationSetting {
	return TaskNotificationSetting{AccountID: accountID, TaskID: taskID, TaskNotificationsActive: true}
}

// Notification is one reminder delivered to a user.
type Notification struct {
	ID         int64      `gorm:"primaryKey" json:"idNotification"`
	AccountID  int64      `gorm:"index:idx_notification_owner;not null" json:"-"`
	UserID     int64      `gorm:"index:idx_notification_owner;not null" json:"-"`
	TaskID     int64      `gorm:"index;not null" json:"idTask"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"size:2000;not null" json:"content"`
	SendDate   time.Time  `gorm:"index;not null" json:"sendDate"`
	ReadStatus ReadStatus `gorm:"size:16;not null" json:"readStatus"`
}
