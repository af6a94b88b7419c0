package service

import (
	"context"
	"testing"

	"taskhub/internal/apperr"
	"taskhub/internal/dto"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

func TestSavePreferencesParams(t *testing.T) {
	var got repository.Params
	exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
		got = p
		return []repository.RecordSet{repository.Set([]model.NotificationPreference{{DefaultLeadTimeHours: 12}})}, nil
	}}
	lead, retention, yes := 12, 30, true
	pref, err := NewNotificationService(exec).SavePreferences(context.Background(), who, dto.PreferenceUpdate{
		Channels:              []string{"email"},
		DefaultLeadTimeHours:  &lead,
		NotifyForOverdueTasks: &yes,
		ReminderFrequency:     model.FrequencyDaily,
		NotificationsActive:   &yes,
		HistoryRetentionDays:  &retention,
	})
	if err != nil || pref.DefaultLeadTimeHours != 12 {
		t.Fatalf("SavePreferences() pref=%+v err=%v", pref, err)
	}
	if ch, _ := got["channels"].(model.ChannelList); len(ch) != 1 || ch[0] != "email" {
		t.Fatalf("channels=%v", got["channels"])
	}
	if got["defaultLeadTimeHours"] != 12 || got["historyRetentionDays"] != 30 {
		t.Fatalf("params=%v", got)
	}
}

func TestNotificationListAndStatus(t *testing.T) {
	var got repository.Params
	exec := &fakeExecutor{executeFn: func(name string, p repository.Params) ([]repository.RecordSet, error) {
		got = p
		if name == repository.ProcNotificationUpdateStatus {
			return nil, repository.ErrNotificationNotFound
		}
		return []repository.RecordSet{
			repository.Set([]model.Notification{{ID: 1}}),
			repository.Set([]model.CountRow{{TotalCount: 31}}),
		}, nil
	}}
	svc := NewNotificationService(exec)
	unread := string(model.ReadStatusUnread)
	page, err := svc.List(context.Background(), who, dto.NotificationListQuery{ReadStatus: &unread, Page: 2, PageSize: 10})
	if err != nil || page.Total != 31 || page.Page != 2 || len(page.Notifications) != 1 {
		t.Fatalf("List() page=%+v err=%v", page, err)
	}
	if rs, _ := got["readStatusFilter"].(*model.ReadStatus); rs == nil || *rs != model.ReadStatusUnread {
		t.Fatalf("readStatusFilter=%v", got["readStatusFilter"])
	}

	err = svc.UpdateStatus(context.Background(), who, 99, dto.NotificationStatusUpdate{ReadStatus: "lida"})
	if e := apperr.As(err); e == nil || e.Code != apperr.CodeNotificationMissing {
		t.Fatalf("UpdateStatus() err=%v", err)
	}
}

func TestDashboardAssemblesSets(t *testing.T) {
	exec := returning(
		repository.Set([]model.UnreadCountRow{{UnreadCount: 4}}),
		repository.Set([]model.TaskSummary{{ID: 1, Title: "today"}}),
		repository.RecordSet{},
		repository.Set([]model.TaskSummary{{ID: 2}, {ID: 3}}),
	)
	d, err := NewNotificationService(exec).Dashboard(context.Background(), who)
	if err != nil {
		t.Fatalf("Dashboard() err=%v", err)
	}
	if d.UnreadCount != 4 || len(d.TasksDueToday) != 1 || len(d.UpcomingTasks) != 2 {
		t.Fatalf("dashboard=%+v", d)
	}
	if d.OverdueTasks == nil || d.RecentNotifications == nil {
		t.Fatalf("empty sections must be empty lists: %+v", d)
	}
}
