package core

import "time"

// Attendance statuses. Device-sourced events only ever set StatusPresent;
// the remaining values are written by HR workflows outside the connector.
const (
	StatusPresent      = "present"
	StatusAbsent       = "absent"
	StatusHalfDay      = "half_day"
	StatusOnLeave      = "on_leave"
	StatusWorkFromHome = "work_from_home"
)

// AttendanceRecord is the one-per-employee-per-day summary of presence.
// The unique index on (EmployeeID, Date) is the backstop for the
// at-most-one-record invariant under concurrent writers.
type AttendanceRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	EmployeeID   uint      `gorm:"uniqueIndex:idx_employee_date;not null"`
	Date         time.Time `gorm:"uniqueIndex:idx_employee_date;type:date;not null"`
	Status       string    `gorm:"size:20;not null"`
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	WorkHours    float64 `gorm:"type:decimal(5,2);default:0"`
	Notes        string  `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
