package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// Excel sheet names
const (
	SheetSummary  = "Summary"
	SheetUpcoming = "Upcoming appointments"
)

// BuildStatisticsReport creates an Excel workbook with service usage counters
// and the list of upcoming appointments
func BuildStatisticsReport(stats *models.Statistics) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", SheetSummary)
	f.NewSheet(SheetUpcoming)

	if err := createSummarySheet(f, stats); err != nil {
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := createUpcomingSheet(f, stats.Upcoming); err != nil {
		return nil, fmt.Errorf("upcoming sheet: %w", err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

func createSummarySheet(f *excelize.File, stats *models.Statistics) error {
	sheet := SheetSummary

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	labelStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E2EFDA"}, Pattern: 1},
	})

	f.SetCellValue(sheet, "A1", "MEDICAL BOT STATISTICS")
	f.MergeCell(sheet, "A1", "B1")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)
	f.SetRowHeight(sheet, 1, 28)

	f.SetCellValue(sheet, "A2", "Generated:")
	f.SetCellValue(sheet, "B2", time.Now().Format("02.01.2006 15:04"))

	rows := [][]interface{}{
		{"Registered users", stats.Users},
		{"Specializations", stats.Specializations},
		{"Doctors", stats.Doctors},
		{"Open slots", stats.OpenSlots},
	}
	for _, status := range []models.AppointmentStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusRejected, models.StatusCanceled,
	} {
		rows = append(rows, []interface{}{
			fmt.Sprintf("Appointments (%s)", status), stats.Appointments[status],
		})
	}
	for _, status := range []models.CertificateStatus{
		models.CertStatusPending, models.CertStatusApproved, models.CertStatusRejected,
	} {
		rows = append(rows, []interface{}{
			fmt.Sprintf("Certificates (%s)", status), stats.Certificates[status],
		})
	}

	for i, row := range rows {
		rowNum := i + 4
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), row[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), row[1])
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), labelStyle)
	}

	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 18)

	return nil
}

func createUpcomingSheet(f *excelize.File, upcoming []models.AppointmentDetails) error {
	sheet := SheetUpcoming

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := []string{"ID", "Patient", "Doctor", "Specialization", "Date", "Format", "Status"}
	for i, h := range headers {
		cell := fmt.Sprintf("%s1", colName(i+1))
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, a := range upcoming {
		rowNum := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), a.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), a.UserName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), a.DoctorName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowNum), a.SpecializationName)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", rowNum), a.ScheduledAt.Format("02.01.2006 15:04"))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", rowNum), a.ContactMethod)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", rowNum), string(a.Status))
	}

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "D", 24)
	f.SetColWidth(sheet, "E", "E", 18)
	f.SetColWidth(sheet, "F", "G", 12)

	return nil
}

func colName(n int) string {
	result := ""
	for n > 0 {
		n--
		result = string(rune('A'+n%26)) + result
		n /= 26
	}
	return result
}
