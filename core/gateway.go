package core

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Gateway is the durable-store contract the connector reconciles against.
// Not-found lookups return (nil, nil); only infrastructure failures return
// a non-nil error.
type Gateway interface {
	FindEmployeeByCode(code string) (*Employee, error)
	FindAttendance(employeeID uint, date time.Time) (*AttendanceRecord, error)
	CreateAttendance(rec *AttendanceRecord) error
	UpdateAttendance(id uint, patch map[string]interface{}) (*AttendanceRecord, error)
}

type GormGateway struct {
	db *gorm.DB
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func (g *GormGateway) FindEmployeeByCode(code string) (*Employee, error) {
	return FindEmployeeByCode(g.db, code)
}

func (g *GormGateway) FindAttendance(employeeID uint, date time.Time) (*AttendanceRecord, error) {
	var rec AttendanceRecord
	err := g.db.
		Where("employee_id = ? AND date = ?", employeeID, date.Format("2006-01-02")).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateAttendance inserts a new day record. A second insert for the same
// (employee, date) fails with gorm.ErrDuplicatedKey via the unique index.
func (g *GormGateway) CreateAttendance(rec *AttendanceRecord) error {
	return g.db.Create(rec).Error
}

func (g *GormGateway) UpdateAttendance(id uint, patch map[string]interface{}) (*AttendanceRecord, error) {
	if err := g.db.Model(&AttendanceRecord{}).Where("id = ?", id).Updates(patch).Error; err != nil {
		return nil, err
	}
	var rec AttendanceRecord
	if err := g.db.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// IsDuplicate reports whether err is the unique-constraint violation raised
// when two writers race to create the same day record.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
