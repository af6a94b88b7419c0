package repository

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskhub/internal/model"
)

func registerTaskProcedures(e *Executor) {
	e.Register(ProcTaskCreate, taskCreate)
	e.Register(ProcTaskSearch, taskSearch)
	e.Register(ProcTaskUpdateDueDate, taskUpdateDueDate)
	e.Register(ProcTaskRemoveDueDate, taskRemoveDueDate)
	e.Register(ProcTaskUpdatePriority, taskUpdatePriority)
	e.Register(ProcTaskSetCompletion, taskSetCompletion)
	e.Register(ProcTaskListByPriority, taskListByPriority)
	e.Register(ProcTaskPriorityDistribution, taskPriorityDistribution)
	e.Register(ProcTaskPriorityHistory, taskPriorityHistory)
}

func checkDueDate(c Call, dueDate *model.Date, dueTime *string) error {
	if dueTime != nil && dueDate == nil {
		return ErrDueTimeRequiresDueDate
	}
	if dueDate != nil && dueDate.Before(model.DateOf(c.Now)) {
		return ErrDueDateInPast
	}
	return nil
}

func findTask(tx *gorm.DB, accountID, taskID int64) (*model.Task, error) {
	var task model.Task
	err := tx.Where("account_id = ? AND id = ? AND deleted = ?", accountID, taskID, false).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrTaskNotFound
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func taskCreate(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	userID, err := requireArg[int64](c.Params, "idUser")
	if err != nil {
		return nil, err
	}
	title, err := requireArg[string](c.Params, "title")
	if err != nil {
		return nil, err
	}
	description, _ := Arg[*string](c.Params, "description")
	dueDate, _ := Arg[*model.Date](c.Params, "dueDate")
	dueTime, _ := Arg[*string](c.Params, "dueTime")
	categoryID, _ := Arg[*int64](c.Params, "idCategory")
	responsibleID, _ := Arg[*int64](c.Params, "idUserResponsible")
	priority, ok := Arg[model.Priority](c.Params, "priority")
	if !ok {
		priority = model.PriorityMedium
	}

	if err := checkDueDate(c, dueDate, dueTime); err != nil {
		return nil, err
	}
	if categoryID != nil {
		var n int64
		if err := c.Tx.Model(&model.Category{}).
			Where("account_id = ? AND id = ?", accountID, *categoryID).
			Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check category: %w", err)
		}
		if n == 0 {
			return nil, ErrCategoryNotFound
		}
	}

	task := model.Task{
		AccountID:     accountID,
		CategoryID:    categoryID,
		CreatorID:     userID,
		ResponsibleID: responsibleID,
		Title:         title,
		Description:   description,
		DueDate:       dueDate,
		DueTime:       dueTime,
		Priority:      priority,
	}
	if err := c.Tx.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if err := appendPriorityHistory(c.Tx, task, userID); err != nil {
		return nil, err
	}
	return []RecordSet{Set([]model.Task{task})}, nil
}

func appendPriorityHistory(tx *gorm.DB, task model.Task, changedBy int64) error {
	entry := model.TaskPriorityHistory{
		AccountID: task.AccountID,
		TaskID:    task.ID,
		Priority:  task.Priority,
		ChangedBy: changedBy,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record priority history: %w", err)
	}
	return nil
}

type taskFilters struct {
	accountID  int64
	term       string
	completed  *bool
	priority   *model.Priority
	categoryID *int64
	dueStart   *model.Date
	dueEnd     *model.Date
}

func applyTaskFilters(q *gorm.DB, f taskFilters) *gorm.DB {
	q = q.Where("account_id = ? AND deleted = ?", f.accountID, false)
	if f.completed != nil {
		q = q.Where("completed = ?", *f.completed)
	}
	if f.term != "" {
		like := "%" + escapeLike(f.term) + "%"
		q = q.Where("(title LIKE ? ESCAPE '!' OR description LIKE ? ESCAPE '!')", like, like)
	}
	if f.priority != nil {
		q = q.Where("priority = ?", *f.priority)
	}
	if f.categoryID != nil {
		q = q.Where("category_id = ?", *f.categoryID)
	}
	if f.dueStart != nil {
		q = q.Where("due_date >= ?", *f.dueStart)
	}
	if f.dueEnd != nil {
		q = q.Where("due_date <= ?", *f.dueEnd)
	}
	return q
}

// likeEscaper makes % and _ match literally under ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func direction(raw string) string {
	if strings.EqualFold(raw, "asc") {
		return "ASC"
	}
	return "DESC"
}

// searchOrder builds the ORDER BY for a search. Ties always break on id in the same direction.
func searchOrder(sortBy, dir, term string) any {
	switch sortBy {
	case "dateCreated":
		return fmt.Sprintf("date_created %s, id %s", dir, dir)
	case "dueDate":
		return fmt.Sprintf("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date %s, due_time %s, id %s", dir, dir, dir)
	case "priority":
		return fmt.Sprintf("priority %s, id %s", dir, dir)
	}
	// relevance
	if term == "" {
		return fmt.Sprintf("date_created %s, id %s", dir, dir)
	}
	escaped := escapeLike(term)
	return clause.OrderBy{Expression: clause.Expr{
		SQL: fmt.Sprintf(
			"CASE WHEN title LIKE ? ESCAPE '!' THEN 0 WHEN title LIKE ? ESCAPE '!' THEN 1 ELSE 2 END, date_created %s, id %s",
			dir, dir),
		Vars:               []any{escaped + "%", "%" + escaped + "%"},
		WithoutParentheses: true,
	}}
}

func taskSearch(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	page, _ := Arg[int](c.Params, "page")
	pageSize, _ := Arg[int](c.Params, "pageSize")
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	sortBy, _ := Arg[string](c.Params, "sortBy")
	sortDir, _ := Arg[string](c.Params, "sortDirection")

	filters := taskFilters{accountID: accountID}
	filters.term, _ = Arg[string](c.Params, "searchTerm")
	filters.completed, _ = Arg[*bool](c.Params, "completed")
	filters.priority, _ = Arg[*model.Priority](c.Params, "priority")
	filters.categoryID, _ = Arg[*int64](c.Params, "idCategory")
	filters.dueStart, _ = Arg[*model.Date](c.Params, "dueDateStart")
	filters.dueEnd, _ = Arg[*model.Date](c.Params, "dueDateEnd")

	var total int64
	if err := applyTaskFilters(c.Tx.Model(&model.Task{}), filters).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	counted := Set([]model.CountRow{{TotalCount: total}})
	offset, ok := pageOffset(page, pageSize)
	if !ok {
		return []RecordSet{Set([]model.Task{}), counted}, nil
	}

	var tasks []model.Task
	if err := applyTaskFilters(c.Tx.Model(&model.Task{}), filters).
		Order(searchOrder(sortBy, direction(sortDir), filters.term)).
		Limit(pageSize).
		Offset(offset).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}

	return []RecordSet{Set(tasks), counted}, nil
}

func taskUpdateDueDate(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	taskID, err := requireArg[int64](c.Params, "idTask")
	if err != nil {
		return nil, err
	}
	dueDate, _ := Arg[*model.Date](c.Params, "dueDate")
	dueTime, _ := Arg[*string](c.Params, "dueTime")

	task, err := findTask(c.Tx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	if err := checkDueDate(c, dueDate, dueTime); err != nil {
		return nil, err
	}
	task.DueDate = dueDate
	task.DueTime = dueTime
	if err := c.Tx.Save(task).Error; err != nil {
		return nil, fmt.Errorf("update due date: %w", err)
	}
	return []RecordSet{Set([]model.Task{*task})}, nil
}

func taskRemoveDueDate(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	taskID, err := requireArg[int64](c.Params, "idTask")
	if err != nil {
		return nil, err
	}
	task, err := findTask(c.Tx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	task.DueDate = nil
	task.DueTime = nil
	if err := c.Tx.Save(task).Error; err != nil {
		return nil, fmt.Errorf("remove due date: %w", err)
	}
	return []RecordSet{Set([]model.Task{*task})}, nil
}

func taskUpdatePriority(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	userID, err := requireArg[int64](c.Params, "idUser")
	if err != nil {
		return nil, err
	}
	taskID, err := requireArg[int64](c.Params, "idTask")
	if err != nil {
		return nil, err
	}
	priority, err := requireArg[model.Priority](c.Params, "priority")
	if err != nil {
		return nil, err
	}

	task, err := findTask(c.Tx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Priority == priority {
		return []RecordSet{Set([]model.Task{*task})}, nil
	}
	task.Priority = priority
	if err := c.Tx.Save(task).Error; err != nil {
		return nil, fmt.Errorf("update priority: %w", err)
	}
	if err := appendPriorityHistory(c.Tx, *task, userID); err != nil {
		return nil, err
	}
	return []RecordSet{Set([]model.Task{*task})}, nil
}

func taskSetCompletion(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	taskID, err := requireArg[int64](c.Params, "idTask")
	if err != nil {
		return nil, err
	}
	completed, err := requireArg[bool](c.Params, "completed")
	if err != nil {
		return nil, err
	}
	task, err := findTask(c.Tx, accountID, taskID)
	if err != nil {
		return nil, err
	}
	task.Completed = completed
	if err := c.Tx.Save(task).Error; err != nil {
		return nil, fmt.Errorf("set completion: %w", err)
	}
	return []RecordSet{Set([]model.Task{*task})}, nil
}

func secondaryOrder(criteria string) string {
	switch criteria {
	case "dateCreated":
		return "date_created DESC"
	case "title":
		return "title ASC"
	default:
		return "CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, due_time ASC"
	}
}

func taskListByPriority(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	sortOrder, _ := Arg[string](c.Params, "sortOrder")
	criteria, _ := Arg[string](c.Params, "secondarySortCriteria")

	var tasks []model.Task
	if err := c.Tx.Where("account_id = ? AND deleted = ?", accountID, false).
		Order(fmt.Sprintf("priority %s, %s, id ASC", direction(sortOrder), secondaryOrder(criteria))).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list by priority: %w", err)
	}
	return []RecordSet{Set(tasks)}, nil
}

func taskPriorityDistribution(c Call) ([]RecordSet, error) {
	accountID, err := requireArg[int64](c.Params, "idAccount")
	if err != nil {
		return nil, err
	}
	start, _ := Arg[*model.Date](c.Params, "startDate")
	end, _ := Arg[*model.Date](c.Params, "endDate")

	q := c.Tx.Model(&model.Task{}).Where("account_id = ? AND deleted = ?", accountID, false)
	if start != nil {
		q = q.Where("date_created >= ?", start.Time)
	}
	if end != nil {
		q = q.Where("date_created < ?", end.AddDays(1).Time)
	}

	var counts []struct {
		Priority  model.Priority
		TaskCount int64
	}
	if err := q.Select("priority, COUNT(*) AS task_count").Group("priority").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("priority distribution: %w", err)
	}

	byPriority := make(map[model.Priority]int64, len(counts))
	var total int64
	for _, row := range counts {
		byPriority[row.Priority] = row.TaskCount
		total += row.TaskCount
	}

	rows := make([]model.PriorityDistributionRow, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		row := model.PriorityDistributionRow{Priority: p, PriorityLabel: p.Label(), TaskCount: byPriority[p]}
		if total > 0 {
			row.Percentage = math.Round(float64(row.TaskCount)*10000/float64(total)) / 100
		}
		rows = append(rows, row)
	}
	return []RecordSet{Set(rows)}, nil
}

func taskPriorityHistory(c Call) ([]RecordSet, error) {
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

	var history []model.TaskPriorityHistory
	if err := c.Tx.Where("account_id = ? AND task_id = ?", accountID, taskID).
		Order("date_created ASC, id ASC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("priority history: %w", err)
	}

	rows := make([]model.PriorityHistoryRow, 0, len(history))
	for _, h := range history {
		rows = append(rows, model.PriorityHistoryRow{
			TaskID:        h.TaskID,
			Priority:      h.Priority,
			PriorityLabel: h.Priority.Label(),
			DateCreated:   h.DateCreated,
		})
	}
	return []RecordSet{Set(rows)}, nil
}
