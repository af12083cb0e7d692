package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"biotrack.com.au/biotrack/core"
	"biotrack.com.au/biotrack/utils"
	"github.com/xuri/excelize/v2"
)

type reportRow struct {
	Code         string
	Surname      string
	FirstName    string
	Date         time.Time
	Status       string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	WorkHours    float64
}

func main() {
	fromStr := flag.String("from", "", "Start date (YYYY-MM-DD)")
	toStr := flag.String("to", "", "End date (YYYY-MM-DD), inclusive")
	out := flag.String("out", "attendance.xlsx", "Output file")
	flag.Parse()

	from, err := time.Parse("2006-01-02", *fromStr)
	if err != nil {
		log.Fatalf("invalid -from date: %v", err)
	}
	to, err := time.Parse("2006-01-02", *toStr)
	if err != nil {
		log.Fatalf("invalid -to date: %v", err)
	}

	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(localhost:3306)/biotrack?parseTime=true"
	}
	db := core.ConnectDB(dsn)

	var rows []reportRow
	err = db.Model(&core.AttendanceRecord{}).
		Joins("JOIN employees ON employees.employee_id = attendance_records.employee_id").
		Where("attendance_records.date BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Select(`employees.code AS code,
                employees.surname AS surname,
                employees.first_name AS first_name,
                attendance_records.date AS date,
                attendance_records.status AS status,
                attendance_records.check_in_time AS check_in_time,
                attendance_records.check_out_time AS check_out_time,
                attendance_records.work_hours AS work_hours`).
		Order("attendance_records.date, employees.code").
		Scan(&rows).Error
	if err != nil {
		log.Fatalf("failed to query attendance: %v", err)
	}

	fmt.Printf("Exporting %d records to %s\n", len(rows), *out)

	f := excelize.NewFile()
	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Employee Code", "Surname", "First Name", "Date", "Status", "Check In", "Check Out", "Work Hours"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		values := []interface{}{
			row.Code,
			row.Surname,
			row.FirstName,
			row.Date.Format("2006-01-02"),
			row.Status,
			formatTime(row.CheckInTime),
			formatTime(row.CheckOutTime),
			row.WorkHours,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	writeSummary(f, rows)

	if err := f.SaveAs(*out); err != nil {
		log.Fatalf("failed to save report: %v", err)
	}
	fmt.Println("Done")
}

// writeSummary adds a per-employee totals sheet.
func writeSummary(f *excelize.File, rows []reportRow) {
	sheet := "Summary"
	f.NewSheet(sheet)

	f.SetCellValue(sheet, "A1", "Employee Code")
	f.SetCellValue(sheet, "B1", "Days Present")
	f.SetCellValue(sheet, "C1", "Total Hours")

	grouped := utils.GroupBy(rows, func(r reportRow) string { return r.Code })

	codes := make([]string, 0, len(grouped))
	for code := range grouped {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for i, code := range codes {
		var total float64
		for _, r := range grouped[code] {
			total += r.WorkHours
		}
		rowNum := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), len(grouped[code]))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), total)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("15:04:05")
}
