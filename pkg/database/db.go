package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftdesk/workforce-api/pkg/models"
)

// Location represents the locations table
type Location struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	OrgID     string    `gorm:"index;not null" json:"org_id"`
	Name      string    `gorm:"not null" json:"name" validate:"required"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Department represents the departments table
type Department struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	OrgID      string    `gorm:"index;not null" json:"org_id"`
	LocationID string    `gorm:"index" json:"location_id" validate:"required"`
	Name       string    `gorm:"not null" json:"name" validate:"required"`
	CreatedAt  time.Time `json:"created_at"`
}

// Area represents the areas table
type Area struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	OrgID        string    `gorm:"index;not null" json:"org_id"`
	DepartmentID string    `gorm:"index" json:"department_id" validate:"required"`
	Name         string    `gorm:"not null" json:"name" validate:"required"`
	CreatedAt    time.Time `json:"created_at"`
}

// Employee represents the employees table
type Employee struct {
	ID           string                 `gorm:"primaryKey" json:"id"`
	OrgID        string                 `gorm:"index;not null" json:"org_id"`
	DepartmentID string                 `gorm:"index" json:"department_id,omitempty"`
	Name         string                 `gorm:"not null" json:"name" validate:"required"`
	Email        string                 `gorm:"index" json:"email,omitempty" validate:"omitempty,email"`
	PasswordHash string                 `json:"-"`
	Role         string                 `gorm:"default:employee" json:"role" validate:"omitempty,oneof=employee manager admin"`
	Skills       []string               `gorm:"serializer:json;type:text" json:"skills"`
	Availability models.AvailabilityMap `gorm:"serializer:json;type:text" json:"availability,omitempty" validate:"omitempty,dive,keys,oneof=monday tuesday wednesday thursday friday saturday sunday,endkeys"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Shift represents the shifts table
type Shift struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	OrgID          string    `gorm:"index;not null" json:"org_id"`
	DepartmentID   string    `gorm:"index" json:"department_id" validate:"required"`
	LocationID     string    `json:"location_id,omitempty"`
	AreaID         string    `json:"area_id,omitempty"`
	PositionID     string    `json:"position_id,omitempty"`
	StartAt        time.Time `gorm:"index;not null" json:"start_at" validate:"required"`
	EndAt          time.Time `gorm:"not null" json:"end_at" validate:"required,gtfield=StartAt"`
	RequiredSkills []string  `gorm:"serializer:json;type:text" json:"required_skills,omitempty"`
	IsOpen         bool      `gorm:"default:false" json:"is_open"`
	Archived       bool      `gorm:"default:false;index" json:"-"`
	TemplateID     string    `json:"template_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Assignment represents the assignments table. At most one row per shift may be
// in the assigned state; the partial unique index enforces it at commit time.
type Assignment struct {
	ID         string                  `gorm:"primaryKey" json:"id"`
	ShiftID    string                  `gorm:"not null;index;uniqueIndex:idx_one_active_per_shift,where:status = 'assigned'" json:"shift_id"`
	EmployeeID string                  `gorm:"not null;index" json:"employee_id"`
	Status     models.AssignmentStatus `gorm:"not null;index" json:"status"`
	Shift      Shift                   `gorm:"foreignKey:ShiftID" json:"shift"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// LaborRule represents the labor_rules table, one row per organization
type LaborRule struct {
	OrgID        string    `gorm:"primaryKey" json:"org_id"`
	MinRestHours float64   `json:"min_rest_hours" validate:"gte=0"`
	MaxHoursDay  float64   `json:"max_hours_day" validate:"gte=0"`
	MaxHoursWeek float64   `json:"max_hours_week" validate:"gte=0"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Task represents the tasks table
type Task struct {
	ID                  string            `gorm:"primaryKey" json:"id"`
	OrgID               string            `gorm:"index;not null" json:"org_id"`
	DepartmentID        string            `gorm:"index" json:"department_id,omitempty"`
	Title               string            `gorm:"not null" json:"title" validate:"required"`
	DueAt               time.Time         `gorm:"index;not null" json:"due_at" validate:"required"`
	WindowStart         *time.Time        `json:"window_start,omitempty"`
	WindowEnd           *time.Time        `json:"window_end,omitempty"`
	Criticality         int               `gorm:"default:1" json:"criticality" validate:"gte=1,lte=5"`
	Status              models.TaskStatus `gorm:"default:pending;index" json:"status" validate:"omitempty,oneof=pending done skipped deferred"`
	InitialUrgencyScore float64           `json:"initial_urgency_score"`
	InitialUrgencyLevel string            `json:"initial_urgency_level"`
	TemplateID          string            `json:"template_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	OrgID      string     `gorm:"index" json:"org_id"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	KeyID          uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date           string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount   int    `gorm:"default:0" json:"request_count"`
	TotalShifts    int    `gorm:"default:0" json:"total_shifts"`
	TotalEmployees int    `gorm:"default:0" json:"total_employees"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	OrgID        string    `json:"org_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToModel converts the row into the rules engine's employee shape
func (e Employee) ToModel() models.Employee {
	return models.Employee{
		ID:           e.ID,
		Name:         e.Name,
		OrgID:        e.OrgID,
		DepartmentID: e.DepartmentID,
		Skills:       e.Skills,
		Availability: e.Availability,
	}
}

// ToModel converts the row into a shift with no assignee
func (s Shift) ToModel() models.Shift {
	return models.Shift{
		ID:             s.ID,
		Start:          s.StartAt,
		End:            s.EndAt,
		DepartmentID:   s.DepartmentID,
		LocationID:     s.LocationID,
		AreaID:         s.AreaID,
		PositionID:     s.PositionID,
		RequiredSkills: s.RequiredSkills,
		IsOpen:         s.IsOpen,
	}
}

// ToModel converts the row, including its shift when preloaded
func (a Assignment) ToModel() models.Assignment {
	shift := a.Shift.ToModel()
	if a.Status == models.StatusAssigned {
		shift.EmployeeID = a.EmployeeID
	}
	return models.Assignment{
		ID:         a.ID,
		ShiftID:    a.ShiftID,
		EmployeeID: a.EmployeeID,
		Status:     a.Status,
		Shift:      shift,
	}
}

// ToModel converts the row into the rules engine's labor rules
func (l LaborRule) ToModel() models.LaborRules {
	return models.LaborRules{
		OrgID:        l.OrgID,
		MinRestHours: l.MinRestHours,
		MaxHoursDay:  l.MaxHoursDay,
		MaxHoursWeek: l.MaxHoursWeek,
	}
}

// ToModel converts the row into the urgency scorer's task shape
func (t Task) ToModel() models.Task {
	return models.Task{
		ID:          t.ID,
		Title:       t.Title,
		DueAt:       t.DueAt,
		WindowStart: t.WindowStart,
		WindowEnd:   t.WindowEnd,
		Criticality: t.Criticality,
		Status:      t.Status,
	}
}

// Options selects and tunes the database connection
type Options struct {
	DatabaseURL string // Postgres DSN; empty selects sqlite
	DataPath    string // sqlite file path
	Debug       bool
}

// InitDB opens the database connection and migrates the schema
func InitDB(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if opts.Debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	if opts.DatabaseURL != "" {
		// Hosted poolers (pgbouncer, supavisor) reject prepared statements
		dialector = postgres.New(postgres.Config{
			DSN:                  opts.DatabaseURL,
			PreferSimpleProtocol: true,
		})
	} else {
		path := opts.DataPath
		if path == "" {
			path = "workforce.db"
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Location{}, &Department{}, &Area{}, &Employee{}, &Shift{}, &Assignment{},
		&LaborRule{}, &Task{}, &APIKey{}, &APIUsage{}, &MasterUser{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
