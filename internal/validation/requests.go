package validation

import (
	"net/url"
	"strconv"
	"strings"

	"taskhub/internal/dto"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

func (v *Validator) SearchQuery(values url.Values) (dto.SearchQuery, error) {
	c := &collector{}
	q := queryReader{values: values, c: c}
	out := dto.SearchQuery{
		SearchTerm:    q.str("searchTerm", ""),
		Status:        q.str("status", "all"),
		Priority:      q.intPtr("priority"),
		CategoryID:    q.int64Ptr("idCategory"),
		DueDateStart:  q.date("dueDateStart"),
		DueDateEnd:    q.date("dueDateEnd"),
		SortBy:        q.str("sortBy", "relevance"),
		SortDirection: q.str("sortDirection", "desc"),
		Page:          q.integer("page", DefaultPage),
		PageSize:      q.integer("pageSize", DefaultPageSize),
	}
	v.check(c, locationQuery, &out)
	if out.DueDateStart != nil && out.DueDateEnd != nil && out.DueDateEnd.Before(*out.DueDateStart) {
		c.add(locationQuery+".dueDateEnd", "must be on or after dueDateStart")
	}
	return out, c.err()
}

func (v *Validator) TaskCreate(body []byte) (dto.TaskCreate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.TaskCreate{
		Title:         strings.TrimSpace(b.str("title")),
		Description:   b.strPtr("description"),
		DueDate:       b.date("dueDate"),
		DueTime:       b.strPtr("dueTime"),
		Priority:      b.intPtr("priority"),
		CategoryID:    b.int64Ptr("idCategory"),
		ResponsibleID: b.int64Ptr("idUserResponsible"),
	}
	v.check(c, locationBody, &out)
	v.checkDueDate(c, locationBody+".dueDate", out.DueDate)
	if out.DueTime != nil && out.DueDate == nil {
		c.add(locationBody+".dueTime", "requires dueDate")
	}
	return out, c.err()
}

func (v *Validator) DueDateUpdate(body []byte) (dto.DueDateUpdate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.DueDateUpdate{
		DueDate: b.date("dueDate"),
		DueTime: b.strPtr("dueTime"),
	}
	v.check(c, locationBody, &out)
	v.checkDueDate(c, locationBody+".dueDate", out.DueDate)
	if out.DueTime != nil && out.DueDate == nil {
		c.add(locationBody+".dueTime", "requires dueDate")
	}
	return out, c.err()
}

func (v *Validator) PriorityUpdate(body []byte) (dto.PriorityUpdate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.PriorityUpdate{Priority: b.intPtr("priority")}
	v.check(c, locationBody, &out)
	return out, c.err()
}

func (v *Validator) CompletionUpdate(body []byte) (dto.CompletionUpdate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.CompletionUpdate{Completed: b.boolPtr("completed")}
	v.check(c, locationBody, &out)
	return out, c.err()
}

func (v *Validator) PriorityListQuery(values url.Values) (dto.PriorityListQuery, error) {
	c := &collector{}
	q := queryReader{values: values, c: c}
	out := dto.PriorityListQuery{
		SortOrder:             strings.ToUpper(q.str("sortOrder", "DESC")),
		GroupByPriority:       q.boolean("groupByPriority", false),
		SecondarySortCriteria: q.str("secondarySortCriteria", "dueDate"),
	}
	v.check(c, locationQuery, &out)
	return out, c.err()
}

func (v *Validator) DistributionQuery(values url.Values) (dto.DistributionQuery, error) {
	c := &collector{}
	q := queryReader{values: values, c: c}
	out := dto.DistributionQuery{
		StartDate: q.date("startDate"),
		EndDate:   q.date("endDate"),
	}
	v.check(c, locationQuery, &out)
	if out.StartDate != nil && out.EndDate != nil && out.EndDate.Before(*out.StartDate) {
		c.add(locationQuery+".endDate", "must be on or after startDate")
	}
	return out, c.err()
}

func (v *Validator) CategoryCreate(body []byte) (dto.CategoryCreate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.CategoryCreate{Name: strings.TrimSpace(b.str("name"))}
	v.check(c, locationBody, &out)
	return out, c.err()
}

func (v *Validator) PreferenceUpdate(body []byte) (dto.PreferenceUpdate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.PreferenceUpdate{
		Channels:              b.stringList("canais_notificacao"),
		DefaultLeadTimeHours:  b.intPtr("antecedencia_padrao"),
		NotifyForOverdueTasks: b.boolPtr("notificar_tarefas_vencidas"),
		ReminderFrequency:     b.str("frequencia_lembretes"),
		NotificationsActive:   b.boolPtr("notificacoes_ativas"),
		QuietHourStart:        b.strPtr("horario_silencioso_inicio"),
		QuietHourEnd:          b.strPtr("horario_silencioso_fim"),
		HistoryRetentionDays:  b.intPtr("tempo_retencao_historico"),
	}
	v.check(c, locationBody, &out)
	start, end := out.QuietHourStart, out.QuietHourEnd
	switch {
	case (start == nil) != (end == nil):
		c.add(locationBody+".horario_silencioso_fim", "quiet hours need both a start and an end")
	case start != nil && hhmmPattern.MatchString(*start) && hhmmPattern.MatchString(*end) &&
		minutes(*end) <= minutes(*start):
		c.add(locationBody+".horario_silencioso_fim", "must be later than horario_silencioso_inicio")
	}
	return out, c.err()
}

func (v *Validator) TaskSettingUpdate(body []byte) (dto.TaskSettingUpdate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.TaskSettingUpdate{
		UseCustomSettings:       b.boolPtr("usar_config_personalizada"),
		CustomLeadTimeHours:     b.intPtr("antecedencia_personalizada"),
		CustomChannels:          b.stringList("canais_notificacao_tarefa"),
		AdditionalReminders:     b.reminders("lembretes_adicionais"),
		TaskNotificationsActive: b.boolPtr("notificacoes_tarefa_ativas"),
	}
	v.check(c, locationBody, &out)
	return out, c.err()
}

func (v *Validator) NotificationListQuery(values url.Values) (dto.NotificationListQuery, error) {
	c := &collector{}
	q := queryReader{values: values, c: c}
	out := dto.NotificationListQuery{
		Page:     q.integer("page", DefaultPage),
		PageSize: q.integer("pageSize", DefaultPageSize),
	}
	if s, ok := q.raw("readStatus"); ok {
		out.ReadStatus = &s
	}
	v.check(c, locationQuery, &out)
	return out, c.err()
}

func (v *Validator) NotificationStatusUpdate(body []byte) (dto.NotificationStatusUpdate, error) {
	c := &collector{}
	b := newBodyReader(body, c)
	out := dto.NotificationStatusUpdate{ReadStatus: b.str("readStatus")}
	v.check(c, locationBody, &out)
	return out, c.err()
}

// minutes converts a validated HH:MM clock to minutes after midnight.
func minutes(hhmm string) int {
	h, m, _ := strings.Cut(hhmm, ":")
	hours, _ := strconv.Atoi(h)
	mins, _ := strconv.Atoi(m)
	return hours*60 + mins
}
