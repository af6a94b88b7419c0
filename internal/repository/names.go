package repository

// Procedure names, schema qualified.
const (
	ProcTaskCreate                  = "functional.spTaskCreate"
	ProcTaskSearch                  = "functional.spTaskSearch"
	ProcTaskUpdateDueDate           = "functional.spTaskUpdateDueDate"
	ProcTaskRemoveDueDate           = "functional.spTaskRemoveDueDate"
	ProcTaskUpdatePriority          = "functional.spTaskUpdatePriority"
	ProcTaskSetCompletion           = "functional.spTaskSetCompletion"
	ProcTaskListByPriority          = "functional.spTaskListByPriority"
	ProcTaskPriorityDistribution    = "functional.spTaskPriorityDistribution"
	ProcTaskPriorityHistory         = "functional.spTaskPriorityHistory"
	ProcCategoryList                = "functional.spCategoryList"
	ProcCategoryCreate              = "functional.spCategoryCreate"
	ProcNotificationPreferenceGet   = "functional.spNotificationPreferenceGet"
	ProcNotificationPreferenceSave  = "functional.spNotificationPreferenceUpdate"
	ProcTaskNotificationSettingGet  = "functional.spTaskNotificationSettingGet"
	ProcTaskNotificationSettingSave = "functional.spTaskNotificationSettingUpdate"
	ProcNotificationList            = "functional.spNotificationList"
	ProcNotificationUpdateStatus    = "functional.spNotificationUpdateStatus"
	ProcNotificationDashboardGet    = "functional.spNotificationDashboardGet"
	ProcNotificationGenerate        = "functional.spNotificationGenerate"
	ProcNotificationPurge           = "functional.spNotificationPurge"
)
