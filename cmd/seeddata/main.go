package main

import (
	"fmt"
	"log"
	"os"

	"biotrack.com.au/biotrack/core"
	"biotrack.com.au/biotrack/utils"
	"gorm.io/gorm/clause"
)

func main() {
	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(localhost:3306)/biotrack?parseTime=true"
	}
	db := core.ConnectDB(dsn)

	if err := db.AutoMigrate(&core.Employee{}, &core.AttendanceRecord{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	employees := []core.Employee{
		{Code: "SR0162", FirstName: "Priya", Surname: "Raman", Email: utils.Ptr("priya.raman@example.com"), Status: "active"},
		{Code: "SR0201", FirstName: "Marcus", Surname: "Webb", Email: utils.Ptr("marcus.webb@example.com"), Status: "active"},
		{Code: "SR0315", FirstName: "Elena", Surname: "Costa", Email: utils.Ptr("elena.costa@example.com"), Status: "active"},
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&employees)
	if res.Error != nil {
		log.Fatalf("failed to seed employees: %v", res.Error)
	}
	fmt.Printf("Seeded %d employees\n", res.RowsAffected)

	fmt.Println("Suggested device profile mapping:")
	fmt.Println("  userIdMapping:")
	for i, emp := range employees {
		fmt.Printf("    %d: %s\n", i+4, emp.Code)
	}
}
