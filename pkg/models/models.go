package models

import "time"

// WeekdayKey names a day in an employee's weekly availability map
type WeekdayKey string

const (
	Monday    WeekdayKey = "monday"
	Tuesday   WeekdayKey = "tuesday"
	Wednesday WeekdayKey = "wednesday"
	Thursday  WeekdayKey = "thursday"
	Friday    WeekdayKey = "friday"
	Saturday  WeekdayKey = "saturday"
	Sunday    WeekdayKey = "sunday"
)

// WeekdayKeys lists every valid key, Monday first
var WeekdayKeys = []WeekdayKey{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// TimeRange is a ["HH:MM", "HH:MM"] pair of local clock times
type TimeRange [2]string

// Start returns the opening clock time of the range
func (r TimeRange) Start() string { return r[0] }

// End returns the closing clock time of the range
func (r TimeRange) End() string { return r[1] }

// AvailabilityMap is an employee's weekly schedule of permitted time ranges
type AvailabilityMap map[WeekdayKey][]TimeRange

// Shift represents a scheduled block of work
type Shift struct {
	ID             string    `json:"id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	DepartmentID   string    `json:"department_id,omitempty"`
	LocationID     string    `json:"location_id,omitempty"`
	AreaID         string    `json:"area_id,omitempty"`
	PositionID     string    `json:"position_id,omitempty"`
	RequiredSkills []string  `json:"required_skills,omitempty"`
	IsOpen         bool      `json:"is_open"`
	EmployeeID     string    `json:"employee_id,omitempty"` // active assignee, empty if none
}

// Hours returns the scheduled length of the shift
func (s Shift) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// ChangeFor builds the proposed assignment of employeeID to this shift
func (s Shift) ChangeFor(employeeID string) ShiftChange {
	change := ShiftChange{
		EmployeeID:     employeeID,
		ShiftID:        s.ID,
		DepartmentID:   s.DepartmentID,
		StartAt:        s.Start,
		EndAt:          s.End,
		RequiredSkills: s.RequiredSkills,
	}
	if s.PositionID != "" {
		position := s.PositionID
		change.PositionID = &position
	}
	return change
}

// AssignmentStatus is the lifecycle state of an assignment
type AssignmentStatus string

const (
	StatusAssigned  AssignmentStatus = "assigned"
	StatusWaiting   AssignmentStatus = "waiting"
	StatusCancelled AssignmentStatus = "cancelled"
)

// Assignment links one employee to one shift
type Assignment struct {
	ID         string           `json:"id"`
	ShiftID    string           `json:"shift_id"`
	EmployeeID string           `json:"employee_id"`
	Status     AssignmentStatus `json:"status"`
	Shift      Shift            `json:"shift"`
}

// IsActive reports whether the assignment currently holds its shift
func (a Assignment) IsActive() bool {
	return a.Status == StatusAssigned
}

// Employee is the profile the rules engine evaluates against
type Employee struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	OrgID        string          `json:"org_id"`
	DepartmentID string          `json:"department_id,omitempty"`
	Skills       []string        `json:"skills"`
	Availability AvailabilityMap `json:"availability,omitempty"`
}

// LaborRules holds an organization's numeric policy thresholds
type LaborRules struct {
	OrgID        string  `json:"org_id"`
	MinRestHours float64 `json:"min_rest_hours" validate:"gte=0"`
	MaxHoursDay  float64 `json:"max_hours_day" validate:"gte=0"`
	MaxHoursWeek float64 `json:"max_hours_week" validate:"gte=0"`
}

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskDone     TaskStatus = "done"
	TaskSkipped  TaskStatus = "skipped"
	TaskDeferred TaskStatus = "deferred"
)

// Task is a unit of work with a due time and criticality
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title,omitempty"`
	DueAt       time.Time  `json:"due_at" validate:"required"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
	Criticality int        `json:"criticality" validate:"gte=0,lte=10"`
	Status      TaskStatus `json:"status,omitempty"`
}

// UrgencyLevel is the discrete band of an urgency score
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// UrgencyResult is the scored urgency of a task at a given instant
type UrgencyResult struct {
	TaskID string       `json:"task_id,omitempty"`
	Score  float64      `json:"score"`
	Level  UrgencyLevel `json:"level"`
}

// ConflictKind classifies a detected scheduling violation
type ConflictKind string

const (
	ConflictOverlap       ConflictKind = "overlap"
	ConflictRestViolation ConflictKind = "rest_violation"
	ConflictOvertime      ConflictKind = "overtime"
	ConflictAvailability  ConflictKind = "availability"
)

// Conflict describes a violation found in an existing schedule
type Conflict struct {
	Kind     ConflictKind `json:"type"`
	Message  string       `json:"message"`
	ShiftIDs []string     `json:"shift_ids"`
}

// ShiftChange is a proposed assignment of an employee to a shift
type ShiftChange struct {
	EmployeeID     string    `json:"employee_id" validate:"required"`
	ShiftID        string    `json:"shift_id" validate:"required"`
	DepartmentID   string    `json:"department_id" validate:"required"`
	PositionID     *string   `json:"position_id,omitempty"`
	StartAt        time.Time `json:"start_at" validate:"required"`
	EndAt          time.Time `json:"end_at" validate:"required,gtfield=StartAt"`
	RequiredSkills []string  `json:"required_skills,omitempty"`
}

// Hours returns the length of the proposed shift
func (c ShiftChange) Hours() float64 {
	return c.EndAt.Sub(c.StartAt).Hours()
}

// RuleMetrics carries the hour projections computed during evaluation
type RuleMetrics struct {
	ProjectedWeeklyHours   float64 `json:"projected_weekly_hours"`
	ProjectedOvertimeHours float64 `json:"projected_overtime_hours"`
}

// RuleResult is the verdict of the assignment rules engine
type RuleResult struct {
	Eligible bool        `json:"eligible"`
	Warnings []string    `json:"warnings"`
	Blocks   []string    `json:"blocks"`
	Metrics  RuleMetrics `json:"metrics"`
}
