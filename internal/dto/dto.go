// Package dto holds validated request payloads.
package dto

import "taskhub/internal/model"

type SearchQuery struct {
	SearchTerm    string      `json:"searchTerm" validate:"max=100"`
	Status        string      `json:"status" validate:"oneof=pending completed all"`
	Priority      *int        `json:"priority" validate:"omitempty,min=0,max=2"`
	CategoryID    *int64      `json:"idCategory" validate:"omitempty,gt=0"`
	DueDateStart  *model.Date `json:"dueDateStart" validate:"-"`
	DueDateEnd    *model.Date `json:"dueDateEnd" validate:"-"`
	SortBy        string      `json:"sortBy" validate:"oneof=relevance dateCreated dueDate priority"`
	SortDirection string      `json:"sortDirection" validate:"oneof=asc desc"`
	Page          int         `json:"page" validate:"min=1"`
	PageSize      int         `json:"pageSize" validate:"min=10,max=50"`
}

type TaskCreate struct {
	Title         string      `json:"title" validate:"required,max=255"`
	Description   *string     `json:"description" validate:"omitempty,max=2000"`
	DueDate       *model.Date `json:"dueDate" validate:"-"`
	DueTime       *string     `json:"dueTime" validate:"omitempty,clock"`
	Priority      *int        `json:"priority" validate:"omitempty,min=0,max=2"`
	CategoryID    *int64      `json:"idCategory" validate:"omitempty,gt=0"`
	ResponsibleID *int64      `json:"idUserResponsible" validate:"omitempty,gt=0"`
}

// DueDateUpdate with both fields empty clears the due date.
type DueDateUpdate struct {
	DueDate *model.Date `json:"dueDate" validate:"-"`
	DueTime *string     `json:"dueTime" validate:"omitempty,clock"`
}

type PriorityUpdate struct {
	Priority *int `json:"priority" validate:"required,min=0,max=2"`
}

type CompletionUpdate struct {
	Completed *bool `json:"completed" validate:"required"`
}

type PriorityListQuery struct {
	SortOrder             string `json:"sortOrder" validate:"oneof=ASC DESC"`
	GroupByPriority       bool   `json:"groupByPriority"`
	SecondarySortCriteria string `json:"secondarySortCriteria" validate:"oneof=dueDate dateCreated title"`
}

type DistributionQuery struct {
	StartDate *model.Date `json:"startDate" validate:"-"`
	EndDate   *model.Date `json:"endDate" validate:"-"`
}

type CategoryCreate struct {
	Name string `json:"name" validate:"required,max=100"`
}

type PreferenceUpdate struct {
	Channels              []string `json:"canais_notificacao" validate:"required,min=1,dive,channel"`
	DefaultLeadTimeHours  *int     `json:"antecedencia_padrao" validate:"required,min=1,max=168"`
	NotifyForOverdueTasks *bool    `json:"notificar_tarefas_vencidas" validate:"required"`
	ReminderFrequency     string   `json:"frequencia_lembretes" validate:"required,frequency"`
	NotificationsActive   *bool    `json:"notificacoes_ativas" validate:"required"`
	QuietHourStart        *string  `json:"horario_silencioso_inicio" validate:"omitempty,hhmm"`
	QuietHourEnd          *string  `json:"horario_silencioso_fim" validate:"omitempty,hhmm"`
	HistoryRetentionDays  *int     `json:"tempo_retencao_historico" validate:"required,min=7,max=365"`
}

type TaskSettingUpdate struct {
	UseCustomSettings       *bool              `json:"usar_config_personalizada" validate:"required"`
	CustomLeadTimeHours     *int               `json:"antecedencia_personalizada" validate:"omitempty,min=1,max=168"`
	CustomChannels          []string           `json:"canais_notificacao_tarefa" validate:"omitempty,min=1,dive,channel"`
	AdditionalReminders     model.ReminderList `json:"lembretes_adicionais" validate:"omitempty,max=5"`
	TaskNotificationsActive *bool              `json:"notificacoes_tarefa_ativas" validate:"required"`
}

type NotificationListQuery struct {
	ReadStatus *string `json:"readStatus" validate:"omitempty,readstatus"`
	Page       int     `json:"page" validate:"min=1"`
	PageSize   int     `json:"pageSize" validate:"min=10,max=50"`
}

type NotificationStatusUpdate struct {
	ReadStatus string `json:"readStatus" validate:"required,oneof=lida descartada"`
}
