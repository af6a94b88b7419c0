package model

import "time"

// Shapes of rows returned by procedures that are not whole entities.

type CountRow struct {
	TotalCount int64 `json:"totalCount"`
}

type PriorityDistributionRow struct {
	Priority      Priority `json:"priority"`
	PriorityLabel string   `json:"priorityLabel"`
	TaskCount     int64    `json:"taskCount"`
	Percentage    float64  `json:"percentage"`
}

type PriorityHistoryRow struct {
	TaskID        int64     `json:"idTask"`
	Priority      Priority  `json:"priority"`
	PriorityLabel string    `json:"priorityLabel"`
	DateCreated   time.Time `json:"dateCreated"`
}

type UnreadCountRow struct {
	UnreadCount int64 `json:"unreadCount"`
}

type TaskSummary struct {
	ID       int64    `json:"idTask"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
}

type NotificationSummary struct {
	ID       int64     `json:"idNotification"`
	Title    string    `json:"title"`
	SendDate time.Time `json:"sendDate"`
}

type StatusRow struct {
	Success bool `json:"success"`
}

type PurgeRow struct {
	Deleted int64 `json:"deleted"`
}
