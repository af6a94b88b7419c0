package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/model"
)

func registerNotificationProcedures(e *Executor) {
	e.Register(ProcNotificationPreferenceGet, preferenceGet)
	e.Register(ProcNotificationPreferenceSave, preferenceSave)
	e.Register(ProcTaskNotificationSettingGet, taskSettingGet)
	e.Register(ProcTaskNotificationSettingSave, taskSettingSave)
	e.Register(ProcNotificationList, notificationList)
	e.Register(ProcNotificationUpdateStatus, notificationUpdateStatus)
	e.Register(ProcNotificationDashboardGet, notificationDashboard)
	e.Register(ProcNotificationGenerate, notificationGenerate)
	e.Register(ProcNotificationPurge, notificationPurge)
}

func owner(p Params) (accountID, userID int64, err error) {
	if accountID, err = requireArg[int64](p, "idAccount"); err != nil {
		return 0, 0, err
	}
	if userID, err = requireArg[int64](p, "idUser"); err != nil {
		return 0, 0, err
	}
	return accountID, userID, nil
}

func loadPreference(tx *gorm.DB, accountID, userID int64) (model.NotificationPreference, bool, error) {
	var pref model.NotificationPreference
	err := tx.Where("account_id = ? AND user_id = ?", accountID, userID).First(&pref).Error
	switch {
	case err == nil:
		return pref, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultNotificationPreference(accountID, userID), false, nil
	default:
		return pref, false, fmt.Errorf("find preference: %w", err)
	}
}

func preferenceGet(c Call) ([]RecordSet, error) {
	accountID, userID, err := owner(c.Params)
	if err != nil {
		return nil, err
	}
	pref, _, err := loadPreference(c.Tx, accountID, userID)
	if err != nil {
		return nil, err
	}
	return []RecordSet{Set([]model.NotificationPreference{pref})}, nil
}

func preferenceSave(c Call) ([]RecordSet, error) {
	accountID, userID, err := owner(c.Params)
	if err != nil {
		return nil, err
	}
	pref, exists, err := loadPreference(c.Tx, accountID, userID)
	if err != nil {
		return nil, err
	}

	pref.Channels, _ = Arg[model.ChannelList](c.Params, "channels")
	pref.DefaultLeadTimeHours, _ = Arg[int](c.Params, "defaultLeadTimeHours")
	pref.NotifyForOverdueTasks, _ = Arg[bool](c.Params, "notifyForOverdueTasks")
	pref.ReminderFrequency, _ = Arg[string](c.Params, "reminderFrequency")
	pref.NotificationsActive, _ = Arg[bool](c.Params, "notificationsActive")
	pref.QuietHourStart, _ = Arg[*string](c.Params, "quietHourStart")
	pref.QuietHourEnd, _ = Arg[*string](c.Params, "quietHourEnd")
	pref.HistoryRetentionDays, _ = Arg[int](c.Params, "historyRetentionDays")

	if exists {
		err = c.Tx.Save(&pref).Error
	} else {
		err = c.Tx.Create(&pref).Error
	}
	if err != nil {
		return nil, fmt.Errorf("save preference: %w", err)
	}
	return []RecordSet{Set([]model.NotificationPreference{pref})}, nil
}

func loadTaskSetting(tx *gorm.DB, accountID, taskID int64) (model.TaskNotificationSetting, bool, error) {
	var setting model.TaskNotificationSetting
	err := tx.Where("account_id = ? AND task_id = ?", accountID, taskID).First(&setting).Error
	switch {
	case err == nil:
		return setting, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultTaskNotificationSetting(accountID, taskID), false, nil
	default:
		return setting, false, fmt.Errorf("find task setting: %w", err)
	}
}

func taskSettingGet(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	taskID, err := requireArg[int64](c.Params, "idTask")
	if err != nil {
		return nil, err
	}
	if _, err := findTask(c.Tx, accountID, taskID); err != nil {
		return nil, err
	}
	setting, _, err := loadTaskSetting(c.Tx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	return []RecordSet{Set([]model.TaskNotificationSetting{setting})}, nil
}

func taskSettingSave(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	taskID, err := requireArg[int64](c.Params, "idTask")
	if err != nil {
		return nil, err
	}
	if _, err := findTask(c.Tx, accountID, taskID); err != nil {
		return nil, err
	}
	setting, exists, err := loadTaskSetting(c.Tx, accountID, taskID)
	if err != nil {
		return nil, err
	}

	setting.UseCustomSettings, _ = Arg[bool](c.Params, "useCustomSettings")
	setting.CustomLeadTimeHours, _ = Arg[*int](c.Params, "customLeadTimeHours")
	setting.CustomChannels, _ = Arg[model.ChannelList](c.Params, "customChannels")
	setting.AdditionalReminders, _ = Arg[model.ReminderList](c.Params, "additionalReminders")
	setting.TaskNotificationsActive, _ = Arg[bool](c.Params, "taskNotificationsActive")

	if exists {
		err = c.Tx.Save(&setting).Error
	} else {
		err = c.Tx.Create(&setting).Error
	}
	if err != nil {
		return nil, fmt.Errorf("save task setting: %w", err)
	}
	return []RecordSet{Set([]model.TaskNotificationSetting{setting})}, nil
}

func notificationList(c Call) ([]RecordSet, error) {
	accountID, userID, err := owner(c.Params)
	if err != nil {
		return nil, err
	}
	status, _ := Arg[*model.ReadStatus](c.Params, "readStatusFilter")
	page, _ := Arg[int](c.Params, "pageNumber")
	pageSize, _ := Arg[int](c.Params, "pageSize")
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	filtered := func() *gorm.DB {
		q := c.Tx.Model(&model.Notification{}).Where("account_id = ? AND user_id = ?", accountID, userID)
		if status != nil {
			q = q.Where("read_status = ?", *status)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	counted := Set([]model.CountRow{{TotalCount: total}})
	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return []RecordSet{Set([]model.Notification{}), counted}, nil
	}
	var rows []model.Notification
	if err := filtered().Order("send_date DESC, id DESC").
		Limit(pageSize).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return []RecordSet{Set(rows), counted}, nil
}

func notificationUpdateStatus(c Call) ([]RecordSet, error) {
	accountID, userID, err := owner(c.Params)
	if err != nil {
		return nil, err
	}
	id, err := requireArg[int64](c.Params, "idNotification")
	if err != nil {
		return nil, err
	}
	status, err := requireArg[model.ReadStatus](c.Params, "readStatus")
	if err != nil {
		return nil, err
	}

	var n model.Notification
	err = c.Tx.Where("account_id = ? AND user_id = ? AND id = ?", accountID, userID, id).First(&n).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotificationNotFound
	case err != nil:
		return nil, fmt.Errorf("find notification: %w", err)
	}
	if err := c.Tx.Model(&n).Update("read_status", status).Error; err != nil {
		return nil, fmt.Errorf("update notification status: %w", err)
	}
	return []RecordSet{Set([]model.StatusRow{{Success: true}})}, nil
}

func pendingTasks(tx *gorm.DB, accountID int64) *gorm.DB {
	return tx.Model(&model.Task{}).
		Select("id, title, priority").
		Where("account_id = ? AND deleted = ? AND completed = ? AND due_date IS NOT NULL", accountID, false, false)
}

// notificationDashboard returns unread count, due today, overdue, next seven days and recent notifications.
func notificationDashboard(c Call) ([]RecordSet, error) {
	accountID, userID, err := owner(c.Params)
	if err != nil {
		return nil, err
	}
	today := model.DateOf(c.Now)

	var unread int64
	if err := c.Tx.Model(&model.Notification{}).
		Where("account_id = ? AND user_id = ? AND read_status = ?", accountID, userID, model.ReadStatusUnread).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	var dueToday, overdue, upcoming []model.TaskSummary
	if err := pendingTasks(c.Tx, accountID).Where("due_date = ?", today).
		Order("priority DESC, id ASC").Scan(&dueToday).Error; err != nil {
		return nil, fmt.Errorf("tasks due today: %w", err)
	}
	if err := pendingTasks(c.Tx, accountID).Where("due_date < ?", today).
		Order("due_date ASC, id ASC").Scan(&overdue).Error; err != nil {
		return nil, fmt.Errorf("overdue tasks: %w", err)
	}
	if err := pendingTasks(c.Tx, accountID).Where("due_date > ? AND due_date <= ?", today, today.AddDays(7)).
		Order("due_date ASC, id ASC").Scan(&upcoming).Error; err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}

	var recent []model.Notification
	if err := c.Tx.Where("account_id = ? AND user_id = ? AND read_status <> ?", accountID, userID, model.ReadStatusDismissed).
		Order("send_date DESC, id DESC").Limit(5).Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("recent notifications: %w", err)
	}
	summaries := make([]model.NotificationSummary, 0, len(recent))
	for _, n := range recent {
		summaries = append(summaries, model.NotificationSummary{ID: n.ID, Title: n.Title, SendDate: n.SendDate})
	}

	return []RecordSet{
		Set([]model.UnreadCountRow{{UnreadCount: unread}}),
		Set(dueToday),
		Set(overdue),
		Set(upcoming),
		Set(summaries),
	}, nil
}

// notificationGenerate creates reminders for every active preference. It may take a "location" argument.
func notificationGenerate(c Call) ([]RecordSet, error) {
	loc, ok := Arg[*time.Location](c.Params, "location")
	if !ok || loc == nil {
		loc = time.UTC
	}
	now := c.Now.In(loc)

	var prefs []model.NotificationPreference
	if err := c.Tx.Where("notifications_active = ?", true).Order("id ASC").Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	var created []model.Notification
	for _, pref := range prefs {
		if pref.InQuietHours(now.Format("15:04")) {
			continue
		}
		batch, err := generateFor(c.Tx, pref, now, loc)
		if err != nil {
			return nil, err
		}
		created = append(created, batch...)
	}
	return []RecordSet{Set(created)}, nil
}

func generateFor(tx *gorm.DB, pref model.NotificationPreference, now time.Time, loc *time.Location) ([]model.Notification, error) {
	var tasks []model.Task
	if err := tx.Where("account_id = ? AND deleted = ? AND completed = ? AND due_date IS NOT NULL",
		pref.AccountID, false, false).
		Where("(responsible_id = ? OR (responsible_id IS NULL AND creator_id = ?))", pref.UserID, pref.UserID).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load due tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	var settings []model.TaskNotificationSetting
	if err := tx.Where("task_id IN ?", ids).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("load task settings: %w", err)
	}
	settingByTask := make(map[int64]model.TaskNotificationSetting, len(settings))
	for _, s := range settings {
		settingByTask[s.TaskID] = s
	}

	var sent []model.Notification
	if err := tx.Select("task_id, send_date").
		Where("account_id = ? AND user_id = ? AND task_id IN ?", pref.AccountID, pref.UserID, ids).
		Find(&sent).Error; err != nil {
		return nil, fmt.Errorf("load sent notifications: %w", err)
	}
	lastSent := make(map[int64]time.Time, len(sent))
	for _, n := range sent {
		if n.SendDate.After(lastSent[n.TaskID]) {
			lastSent[n.TaskID] = n.SendDate
		}
	}

	window := model.FrequencyWindow(pref.ReminderFrequency)
	var out []model.Notification
	for _, task := range tasks {
		setting, ok := settingByTask[task.ID]
		if !ok {
			setting = model.DefaultTaskNotificationSetting(task.AccountID, task.ID)
		}
		if !setting.TaskNotificationsActive {
			continue
		}
		lead := time.Duration(pref.DefaultLeadTimeHours) * time.Hour
		if setting.UseCustomSettings && setting.CustomLeadTimeHours != nil {
			lead = time.Duration(*setting.CustomLeadTimeHours) * time.Hour
		}

		dueAt, _ := task.DueAt(loc)
		overdue := now.After(dueAt)
		last := lastSent[task.ID]

		trigger := false
		if (overdue && pref.NotifyForOverdueTasks) || (!overdue && dueAt.Sub(now) <= lead) {
			trigger = last.IsZero() || (window > 0 && now.Sub(last) >= window)
		}
		for _, r := range setting.AdditionalReminders {
			if !r.Date.After(now) && r.Date.After(last) {
				trigger = true
			}
		}
		if !trigger {
			continue
		}

		n := model.Notification{
			AccountID:  pref.AccountID,
			UserID:     pref.UserID,
			TaskID:     task.ID,
			Title:      task.Title,
			Content:    reminderContent(dueAt, overdue),
			SendDate:   now.UTC(),
			ReadStatus: model.ReadStatusUnread,
		}
		if err := tx.Create(&n).Error; err != nil {
			return nil, fmt.Errorf("create notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func reminderContent(dueAt time.Time, overdue bool) string {
	if overdue {
		return "Task is overdue since " + dueAt.Format("2006-01-02 15:04")
	}
	return "Task is due at " + dueAt.Format("2006-01-02 15:04")
}

// notificationPurge drops notifications older than each user's retention period.
func notificationPurge(c Call) ([]RecordSet, error) {
	var prefs []model.NotificationPreference
	if err := c.Tx.Find(&prefs).Error; err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	var deleted int64
	for _, pref := range prefs {
		cutoff := c.Now.AddDate(0, 0, -pref.HistoryRetentionDays)
		res := c.Tx.Where("account_id = ? AND user_id = ? AND send_date < ?", pref.AccountID, pref.UserID, cutoff).
			Delete(&model.Notification{})
		if res.Error != nil {
			return nil, fmt.Errorf("purge notifications: %w", res.Error)
		}
		deleted += res.RowsAffected
	}

	fallback := model.DefaultNotificationPreference(0, 0).HistoryRetentionDays
	res := c.Tx.Where("send_date < ?", c.Now.AddDate(0, 0, -fallback)).
		Where("NOT EXISTS (SELECT 1 FROM notification_preferences p WHERE p.account_id = notifications.account_id AND p.user_id = notifications.user_id)").
		Delete(&model.Notification{})
	if res.Error != nil {
		return nil, fmt.Errorf("purge notifications: %w", res.Error)
	}
	deleted += res.RowsAffected

	return []RecordSet{Set([]model.PurgeRow{{Deleted: deleted}})}, nil
}
