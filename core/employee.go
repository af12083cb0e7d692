package core

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Employee struct {
	EmployeeID    uint   `gorm:"primaryKey;autoIncrement"`
	Code          string `gorm:"size:32;uniqueIndex"`
	PreferredName string
	FirstName     string
	Surname       string
	Email         *string `gorm:"index"`
	StartDate     *time.Time
	EndDate       *time.Time
	Status        string
	DepartmentID  *int
	Attributes    datatypes.JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Employee) TableName() string {
	return "employees"
}

// FindEmployeeByCode looks up an employee by business code (e.g. "SR0162").
// Returns (nil, nil) when no employee carries the code.
func FindEmployeeByCode(db *gorm.DB, code string) (*Employee, error) {
	var emp Employee
	err := db.Where("code = ?", code).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}
