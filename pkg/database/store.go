package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shiftdesk/workforce-api/pkg/models"
	"github.com/shiftdesk/workforce-api/pkg/rules"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrShiftAlreadyAssigned = errors.New("shift already has an active assignment")
	ErrShiftNotOpen         = errors.New("shift is not open for claims")
	ErrClaimNotWaiting      = errors.New("assignment is not a waiting claim")
)

// Store is the relational store behind the HTTP surface. It also serves the
// rules engine's read model.
type Store struct {
	DB *gorm.DB
}

var _ rules.Store = (*Store)(nil)

// NewStore wraps an open connection
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// FetchEmployee returns the employee or rules.ErrEmployeeNotFound
func (s *Store) FetchEmployee(ctx context.Context, employeeID string) (*models.Employee, error) {
	var row Employee
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rules.ErrEmployeeNotFound
		}
		return nil, err
	}
	employee := row.ToModel()
	return &employee, nil
}

// FetchLaborRules returns nil, nil when the organization has none
func (s *Store) FetchLaborRules(ctx context.Context, orgID string) (*models.LaborRules, error) {
	var row LaborRule
	err := s.DB.WithContext(ctx).First(&row, "org_id = ?", orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lr := row.ToModel()
	return &lr, nil
}

// FetchActiveAssignments returns the employee's assigned, non-archived shifts
func (s *Store) FetchActiveAssignments(ctx context.Context, employeeID string) ([]models.Assignment, error) {
	var rows []Assignment
	err := s.DB.WithContext(ctx).
		Joins("Shift").
		Where("assignments.employee_id = ? AND assignments.status = ?", employeeID, models.StatusAssigned).
		Where(`"Shift"."archived" = ?`, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.Assignment, len(rows))
	for i, r := range rows {
		out[i] = r.ToModel()
	}
	return out, nil
}

type orgStore struct {
	*Store
	orgID string
}

// ForOrg narrows the rules engine's read model to one organization, so an
// employee of another organization reads as not found
func (s *Store) ForOrg(orgID string) rules.Store {
	return orgStore{Store: s, orgID: orgID}
}

func (o orgStore) FetchEmployee(ctx context.Context, employeeID string) (*models.Employee, error) {
	var row Employee
	err := o.DB.WithContext(ctx).First(&row, "id = ? AND org_id = ?", employeeID, o.orgID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rules.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	employee := row.ToModel()
	return &employee, nil
}

// SaveLaborRules upserts the organization's labor rules
func (s *Store) SaveLaborRules(ctx context.Context, lr *LaborRule) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"min_rest_hours", "max_hours_day", "max_hours_week", "updated_at"}),
	}).Create(lr).Error
}

// GetLaborRules returns the stored row or ErrNotFound
func (s *Store) GetLaborRules(ctx context.Context, orgID string) (*LaborRule, error) {
	var row LaborRule
	if err := s.DB.WithContext(ctx).First(&row, "org_id = ?", orgID).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Create inserts an org-scoped row, assigning an id when empty
func Create[T any](ctx context.Context, s *Store, row *T) error {
	if setter, ok := any(row).(interface{ ensureID() }); ok {
		setter.ensureID()
	}
	return s.DB.WithContext(ctx).Create(row).Error
}

// List returns every row of T owned by orgID
func List[T any](ctx context.Context, s *Store, orgID string) ([]T, error) {
	var rows []T
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	var zero T
	if _, ok := any(&zero).(*Shift); ok {
		q = q.Where("archived = ?", false).Order("start_at")
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns one row of T owned by orgID, or ErrNotFound
func Get[T any](ctx context.Context, s *Store, orgID, id string) (*T, error) {
	var row T
	q := s.DB.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id)
	if _, ok := any(&row).(*Shift); ok {
		q = q.Where("archived = ?", false)
	}
	if err := q.First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

func (l *Location) ensureID()   { ensureID(&l.ID) }
func (d *Department) ensureID() { ensureID(&d.ID) }
func (a *Area) ensureID()       { ensureID(&a.ID) }
func (e *Employee) ensureID()   { ensureID(&e.ID) }
func (s *Shift) ensureID()      { ensureID(&s.ID) }
func (t *Task) ensureID()       { ensureID(&t.ID) }

// OrgScoped rows carry the owning organization
type OrgScoped interface {
	SetOrgID(orgID string)
}

func (l *Location) SetOrgID(orgID string)   { l.OrgID = orgID }
func (d *Department) SetOrgID(orgID string) { d.OrgID = orgID }
func (a *Area) SetOrgID(orgID string)       { a.OrgID = orgID }
func (e *Employee) SetOrgID(orgID string)   { e.OrgID = orgID }
func (s *Shift) SetOrgID(orgID string)      { s.OrgID = orgID }
func (t *Task) SetOrgID(orgID string)       { t.OrgID = orgID }

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ArchiveShift soft-deletes a shift and cancels its live assignments
func (s *Store) ArchiveShift(ctx context.Context, orgID, shiftID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Shift{}).
			Where("org_id = ? AND id = ? AND archived = ?", orgID, shiftID, false).
			Updates(map[string]interface{}{"archived": true, "is_open": false})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&Assignment{}).
			Where("shift_id = ? AND status IN ?", shiftID, []models.AssignmentStatus{models.StatusAssigned, models.StatusWaiting}).
			Update("status", models.StatusCancelled).Error
	})
}

// CreateShifts inserts materialized shifts in one batch
func (s *Store) CreateShifts(ctx context.Context, shifts []Shift) error {
	if len(shifts) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).CreateInBatches(&shifts, 100).Error
}

// CreateTasks inserts materialized tasks in one batch
func (s *Store) CreateTasks(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).CreateInBatches(&tasks, 100).Error
}

// ListTasks returns the organization's tasks, optionally filtered by status
func (s *Store) ListTasks(ctx context.Context, orgID string, status models.TaskStatus) ([]Task, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []Task
	if err := q.Order("due_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateTaskStatus moves a task through its lifecycle
func (s *Store) UpdateTaskStatus(ctx context.Context, orgID, taskID string, status models.TaskStatus) (*Task, error) {
	res := s.DB.WithContext(ctx).Model(&Task{}).
		Where("org_id = ? AND id = ?", orgID, taskID).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return Get[Task](ctx, s, orgID, taskID)
}

// FindEmployeeByEmail looks up a login identity
func (s *Store) FindEmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	var row Employee
	if err := s.DB.WithContext(ctx).First(&row, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// ListEmployees returns the organization's employees, optionally narrowed to a department
func (s *Store) ListEmployees(ctx context.Context, orgID, departmentID string) ([]Employee, error) {
	q := s.DB.WithContext(ctx).Where("org_id = ?", orgID)
	if departmentID != "" {
		q = q.Where("department_id = ?", departmentID)
	}
	var rows []Employee
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ScheduleView is the input of the conflict detector
type ScheduleView struct {
	Shifts       []models.Shift
	Availability map[string]models.AvailabilityMap
}

// LoadSchedule returns the non-archived shifts starting in [from, to) with
// their active assignee and the availability of every assignee
func (s *Store) LoadSchedule(ctx context.Context, orgID string, from, to time.Time, departmentID string) (*ScheduleView, error) {
	q := s.DB.WithContext(ctx).
		Where("org_id = ? AND archived = ? AND start_at >= ? AND start_at < ?", orgID, false, from, to)
	if departmentID != "" {
		q = q.Where("department_id = ?", departmentID)
	}
	var shifts []Shift
	if err := q.Order("start_at").Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("failed to load shifts: %w", err)
	}

	view := &ScheduleView{
		Shifts:       make([]models.Shift, len(shifts)),
		Availability: map[string]models.AvailabilityMap{},
	}
	if len(shifts) == 0 {
		return view, nil
	}

	ids := make([]string, len(shifts))
	for i, sh := range shifts {
		ids[i] = sh.ID
	}
	var active []Assignment
	err := s.DB.WithContext(ctx).
		Where("shift_id IN ? AND status = ?", ids, models.StatusAssigned).
		Find(&active).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	assignee := make(map[string]string, len(active))
	for _, a := range active {
		assignee[a.ShiftID] = a.EmployeeID
	}

	var employeeIDs []string
	for i, sh := range shifts {
		view.Shifts[i] = sh.ToModel()
		if id, ok := assignee[sh.ID]; ok {
			view.Shifts[i].EmployeeID = id
			employeeIDs = append(employeeIDs, id)
		}
	}
	if len(employeeIDs) == 0 {
		return view, nil
	}

	var employees []Employee
	if err := s.DB.WithContext(ctx).Where("id IN ?", employeeIDs).Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	for _, e := range employees {
		if e.Availability != nil {
			view.Availability[e.ID] = e.Availability
		}
	}
	return view, nil
}

// GetAssignment returns an assignment with its shift, scoped to orgID
func (s *Store) GetAssignment(ctx context.Context, orgID, id string) (*Assignment, error) {
	var row Assignment
	err := s.DB.WithContext(ctx).
		Joins("Shift").
		Where("assignments.id = ? AND \"Shift\".\"org_id\" = ?", id, orgID).
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// AssignShift commits an active assignment. The check and the insert share a
// transaction, and the partial unique index rejects a concurrent winner.
func (s *Store) AssignShift(ctx context.Context, shift *Shift, employeeID string) (*Assignment, error) {
	row := &Assignment{
		ID:         uuid.NewString(),
		ShiftID:    shift.ID,
		EmployeeID: employeeID,
		Status:     models.StatusAssigned,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnassigned(tx, shift.ID); err != nil {
			return err
		}
		if err := tx.Omit("Shift").Create(row).Error; err != nil {
			return uniqueViolation(err)
		}
		if err := cancelWaitingClaims(tx, shift.ID, ""); err != nil {
			return err
		}
		return tx.Model(&Shift{}).Where("id = ?", shift.ID).Update("is_open", false).Error
	})
	if err != nil {
		return nil, err
	}
	row.Shift = *shift
	row.Shift.IsOpen = false
	return row, nil
}

// ClaimShift records a waiting claim on an open shift
func (s *Store) ClaimShift(ctx context.Context, shift *Shift, employeeID string) (*Assignment, error) {
	if !shift.IsOpen {
		return nil, ErrShiftNotOpen
	}
	var existing int64
	err := s.DB.WithContext(ctx).Model(&Assignment{}).
		Where("shift_id = ? AND employee_id = ? AND status = ?", shift.ID, employeeID, models.StatusWaiting).
		Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		var row Assignment
		err := s.DB.WithContext(ctx).
			Where("shift_id = ? AND employee_id = ? AND status = ?", shift.ID, employeeID, models.StatusWaiting).
			First(&row).Error
		if err != nil {
			return nil, err
		}
		row.Shift = *shift
		return &row, nil
	}

	row := &Assignment{
		ID:         uuid.NewString(),
		ShiftID:    shift.ID,
		EmployeeID: employeeID,
		Status:     models.StatusWaiting,
	}
	if err := s.DB.WithContext(ctx).Omit("Shift").Create(row).Error; err != nil {
		return nil, err
	}
	row.Shift = *shift
	return row, nil
}

// ApproveClaim turns a waiting claim into the shift's active assignment,
// cancels competing claims and closes the shift, all in one transaction.
func (s *Store) ApproveClaim(ctx context.Context, claim *Assignment) (*Assignment, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Assignment{}).
			Where("id = ? AND status = ?", claim.ID, models.StatusWaiting).
			Update("status", models.StatusAssigned)
		if res.Error != nil {
			return uniqueViolation(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrClaimNotWaiting
		}

		var active int64
		err := tx.Model(&Assignment{}).
			Where("shift_id = ? AND status = ?", claim.ShiftID, models.StatusAssigned).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 1 {
			return ErrShiftAlreadyAssigned
		}

		if err := cancelWaitingClaims(tx, claim.ShiftID, claim.ID); err != nil {
			return err
		}
		return tx.Model(&Shift{}).Where("id = ?", claim.ShiftID).Update("is_open", false).Error
	})
	if err != nil {
		return nil, err
	}
	claim.Status = models.StatusAssigned
	claim.Shift.IsOpen = false
	return claim, nil
}

// CancelAssignment cancels a waiting or assigned row. Cancelling the active
// assignment reopens the shift for claims.
func (s *Store) CancelAssignment(ctx context.Context, a *Assignment) (*Assignment, error) {
	if a.Status == models.StatusCancelled {
		return a, nil
	}
	wasActive := a.Status == models.StatusAssigned
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Assignment{}).Where("id = ?", a.ID).Update("status", models.StatusCancelled).Error; err != nil {
			return err
		}
		if wasActive {
			return tx.Model(&Shift{}).Where("id = ?", a.ShiftID).Update("is_open", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.Status = models.StatusCancelled
	if wasActive {
		a.Shift.IsOpen = true
	}
	return a, nil
}

func ensureUnassigned(tx *gorm.DB, shiftID string) error {
	var active int64
	err := tx.Model(&Assignment{}).
		Where("shift_id = ? AND status = ?", shiftID, models.StatusAssigned).
		Count(&active).Error
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrShiftAlreadyAssigned
	}
	return nil
}

func cancelWaitingClaims(tx *gorm.DB, shiftID, keepID string) error {
	q := tx.Model(&Assignment{}).Where("shift_id = ? AND status = ?", shiftID, models.StatusWaiting)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	return q.Update("status", models.StatusCancelled).Error
}

// uniqueViolation maps the active-assignment index violation onto ErrShiftAlreadyAssigned
func uniqueViolation(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrShiftAlreadyAssigned
	}
	return err
}
