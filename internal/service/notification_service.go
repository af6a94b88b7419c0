package service

import (
	"context"

	"taskhub/internal/dto"
	"taskhub/internal/identity"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// NotificationPage is one page of a user's notifications, newest first.
type NotificationPage struct {
	Notifications []model.Notification
	Total         int64
	Page          int
	PageSize      int
}

type Dashboard struct {
	UnreadCount         int64                       `json:"unreadCount"`
	TasksDueToday       []model.TaskSummary         `json:"tasksDueToday"`
	OverdueTasks        []model.TaskSummary         `json:"overdueTasks"`
	UpcomingTasks       []model.TaskSummary         `json:"upcomingTasks"`
	RecentNotifications []model.NotificationSummary `json:"recentNotifications"`
}

// NotificationService manages preferences, per-task settings and the inbox.
type NotificationService struct {
	exec ProcedureExecutor
}

func NewNotificationService(exec ProcedureExecutor) *NotificationService {
	return &NotificationService{exec: exec}
}

func (s *NotificationService) Preferences(ctx context.Context, who identity.Identity) (model.NotificationPreference, error) {
	sets, err := call(ctx, s.exec, repository.ProcNotificationPreferenceGet, repository.Params{
		"idAccount": who.AccountID,
		"idUser":    who.UserID,
	})
	if err != nil {
		return model.NotificationPreference{}, err
	}
	return single[model.NotificationPreference](sets, repository.ProcNotificationPreferenceGet)
}

func (s *NotificationService) SavePreferences(ctx context.Context, who identity.Identity, in dto.PreferenceUpdate) (model.NotificationPreference, error) {
	sets, err := call(ctx, s.exec, repository.ProcNotificationPreferenceSave, repository.Params{
		"idAccount":             who.AccountID,
		"idUser":                who.UserID,
		"channels":              model.ChannelList(in.Channels),
		"defaultLeadTimeHours":  *in.DefaultLeadTimeHours,
		"notifyForOverdueTasks": *in.NotifyForOverdueTasks,
		"reminderFrequency":     in.ReminderFrequency,
		"notificationsActive":   *in.NotificationsActive,
		"quietHourStart":        in.QuietHourStart,
		"quietHourEnd":          in.QuietHourEnd,
		"historyRetentionDays":  *in.HistoryRetentionDays,
	})
	if err != nil {
		return model.NotificationPreference{}, err
	}
	return single[model.NotificationPreference](sets, repository.ProcNotificationPreferenceSave)
}

func (s *NotificationService) TaskSettings(ctx context.Context, who identity.Identity, taskID int64) (model.TaskNotificationSetting, error) {
	sets, err := call(ctx, s.exec, repository.ProcTaskNotificationSettingGet, repository.Params{
		"idAccount": who.AccountID,
		"idTask":    taskID,
	})
	if err != nil {
		return model.TaskNotificationSetting{}, err
	}
	return single[model.TaskNotificationSetting](sets, repository.ProcTaskNotificationSettingGet)
}

func (s *NotificationService) SaveTaskSettings(ctx context.Context, who identity.Identity, taskID int64, in dto.TaskSettingUpdate) (model.TaskNotificationSetting, error) {
	var channels model.ChannelList
	if in.CustomChannels != nil {
		channels = model.ChannelList(in.CustomChannels)
	}
	sets, err := call(ctx, s.exec, repository.ProcTaskNotificationSettingSave, repository.Params{
		"idAccount":               who.AccountID,
		"idTask":                  taskID,
		"useCustomSettings":       *in.UseCustomSettings,
		"customLeadTimeHours":     in.CustomLeadTimeHours,
		"customChannels":          channels,
		"additionalReminders":     in.AdditionalReminders,
		"taskNotificationsActive": *in.TaskNotificationsActive,
	})
	if err != nil {
		return model.TaskNotificationSetting{}, err
	}
	return single[model.TaskNotificationSetting](sets, repository.ProcTaskNotificationSettingSave)
}

func (s *NotificationService) List(ctx context.Context, who identity.Identity, q dto.NotificationListQuery) (NotificationPage, error) {
	var status *model.ReadStatus
	if q.ReadStatus != nil {
		rs := model.ReadStatus(*q.ReadStatus)
		status = &rs
	}
	sets, err := call(ctx, s.exec, repository.ProcNotificationList, repository.Params{
		"idAccount":        who.AccountID,
		"idUser":           who.UserID,
		"readStatusFilter": status,
		"pageNumber":       q.Page,
		"pageSize":         q.PageSize,
	})
	if err != nil {
		return NotificationPage{}, err
	}
	items, err := rows[model.Notification](sets, 0)
	if err != nil {
		return NotificationPage{}, err
	}
	count, _, err := repository.First[model.CountRow](sets, 1)
	if err != nil {
		return NotificationPage{}, translate(err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return NotificationPage{Notifications: items, Total: count.TotalCount, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *NotificationService) UpdateStatus(ctx context.Context, who identity.Identity, id int64, in dto.NotificationStatusUpdate) error {
	_, err := call(ctx, s.exec, repository.ProcNotificationUpdateStatus, repository.Params{
		"idAccount":      who.AccountID,
		"idUser":         who.UserID,
		"idNotification": id,
		"readStatus":     model.ReadStatus(in.ReadStatus),
	})
	return err
}

func (s *NotificationService) Dashboard(ctx context.Context, who identity.Identity) (Dashboard, error) {
	sets, err := call(ctx, s.exec, repository.ProcNotificationDashboardGet, repository.Params{
		"idAccount": who.AccountID,
		"idUser":    who.UserID,
	})
	if err != nil {
		return Dashboard{}, err
	}
	unread, _, err := repository.First[model.UnreadCountRow](sets, 0)
	if err != nil {
		return Dashboard{}, translate(err)
	}
	d := Dashboard{UnreadCount: unread.UnreadCount}
	if d.TasksDueToday, err = summaries(sets, 1); err != nil {
		return Dashboard{}, err
	}
	if d.OverdueTasks, err = summaries(sets, 2); err != nil {
		return Dashboard{}, err
	}
	if d.UpcomingTasks, err = summaries(sets, 3); err != nil {
		return Dashboard{}, err
	}
	if d.RecentNotifications, err = rows[model.NotificationSummary](sets, 4); err != nil {
		return Dashboard{}, err
	}
	if d.RecentNotifications == nil {
		d.RecentNotifications = []model.NotificationSummary{}
	}
	return d, nil
}

func summaries(sets []repository.RecordSet, index int) ([]model.TaskSummary, error) {
	out, err := rows[model.TaskSummary](sets, index)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.TaskSummary{}
	}
	return out, nil
}
