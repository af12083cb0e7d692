package connector

import (
	"fmt"
	"math"
	"sync"
	"time"

	"biotrack.com.au/biotrack/core"
	"biotrack.com.au/biotrack/utils"
	"github.com/rs/zerolog"
)

// Outcome is the result of applying one event. Rejections are business
// outcomes (duplicate check-in, check-out without check-in, unknown
// employee), not faults; storage faults come back as errors.
type Outcome struct {
	Record   *core.AttendanceRecord
	Rejected bool
	Reason   string
}

func rejected(reason string) Outcome {
	return Outcome{Rejected: true, Reason: reason}
}

// Reconciler applies decoded events against the day's attendance record,
// enforcing the NO_RECORD -> CHECKED_IN -> CHECKED_OUT state machine and
// the one-record-per-(employee, day) invariant.
type Reconciler struct {
	gateway core.Gateway
	logger  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewReconciler(gateway core.Gateway, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		gateway: gateway,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Apply runs the state transition for one event. The per-(employee, day)
// lock plus the storage unique index keep concurrent duplicates from
// creating two records or double-writing the check-out time.
func (r *Reconciler) Apply(employeeCode string, ev Event) (Outcome, error) {
	date := utils.Midnight(ev.Time)

	key := fmt.Sprintf("%s|%s", employeeCode, date.Format("2006-01-02"))
	lock := r.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	emp, err := r.gateway.FindEmployeeByCode(employeeCode)
	if err != nil {
		return Outcome{}, fmt.Errorf("employee lookup %s: %w", employeeCode, err)
	}
	if emp == nil {
		return rejected(fmt.Sprintf("unknown employee code %s", employeeCode)), nil
	}

	rec, err := r.gateway.FindAttendance(emp.EmployeeID, date)
	if err != nil {
		return Outcome{}, fmt.Errorf("attendance lookup %s %s: %w", employeeCode, date.Format("2006-01-02"), err)
	}

	if rec == nil {
		if ev.Kind == CheckOut {
			return rejected("check-out without prior check-in"), nil
		}
		return r.checkIn(emp, ev, date)
	}

	if rec.CheckOutTime != nil {
		return rejected(fmt.Sprintf("already checked out at %s", rec.CheckOutTime.Format("15:04:05"))), nil
	}

	if ev.Kind == CheckIn {
		at := "unknown time"
		if rec.CheckInTime != nil {
			at = rec.CheckInTime.Format("15:04:05")
		}
		return rejected(fmt.Sprintf("already checked in at %s", at)), nil
	}

	return r.checkOut(rec, ev)
}

func (r *Reconciler) checkIn(emp *core.Employee, ev Event, date time.Time) (Outcome, error) {
	checkIn := ev.Time
	rec := &core.AttendanceRecord{
		EmployeeID:  emp.EmployeeID,
		Date:        date,
		Status:      core.StatusPresent,
		CheckInTime: &checkIn,
		Notes:       provenance(ev),
	}
	if err := r.gateway.CreateAttendance(rec); err != nil {
		if core.IsDuplicate(err) {
			// Lost a race with another session writing the same day.
			r.logger.Debug().Str("employee", emp.Code).Str("date", date.Format("2006-01-02")).Msg("duplicate attendance create, treating as rejection")
			return rejected("already checked in (concurrent duplicate)"), nil
		}
		return Outcome{}, fmt.Errorf("create attendance: %w", err)
	}
	return Outcome{Record: rec}, nil
}

func (r *Reconciler) checkOut(rec *core.AttendanceRecord, ev Event) (Outcome, error) {
	if rec.CheckInTime == nil {
		return rejected("check-out without prior check-in"), nil
	}
	if ev.Time.Before(*rec.CheckInTime) {
		return rejected("check-out earlier than recorded check-in"), nil
	}

	hours := RoundHours(ev.Time.Sub(*rec.CheckInTime))
	updated, err := r.gateway.UpdateAttendance(rec.ID, map[string]interface{}{
		"check_out_time": ev.Time,
		"work_hours":     hours,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("update attendance %d: %w", rec.ID, err)
	}
	return Outcome{Record: updated}, nil
}

func (r *Reconciler) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

// RoundHours converts a worked duration to hours rounded to 2 decimals.
func RoundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

func provenance(ev Event) string {
	if ev.DeviceSerial != "" {
		return fmt.Sprintf("device %s / biometric id %d", ev.DeviceSerial, ev.DeviceUserID)
	}
	return fmt.Sprintf("biometric id %d", ev.DeviceUserID)
}
