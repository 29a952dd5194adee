package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
	"github.com/SscSPs/ledger-posting/internal/utils"
)

// TrialBalanceSheet is the name of the worksheet written by ExportTrialBalanceXLSX.
const TrialBalanceSheet = "Trial Balance"

var trialBalanceHeaders = []string{
	"Account ID", "Account", "Type", "Opening", "Period Debit", "Period Credit", "Closing", "Debit", "Credit",
}

// ExportTrialBalanceXLSX renders a trial balance as a single-sheet workbook. Amounts are written as
// numbers formatted to the minor unit of the display currency.
func ExportTrialBalanceXLSX(result *domain.TrialBalanceResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TrialBalanceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	sheet := TrialBalanceSheet

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, fmt.Errorf("failed to create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountFormat := amountNumberFormat(result.DisplayCurrency)
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &amountFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		CustomNumFmt: &amountFormat,
		Border: []excelize.Border{
			{Type: "top", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create total style: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Trial Balance")
	f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	f.SetCellValue(sheet, "A2", "Workplace")
	f.SetCellValue(sheet, "B2", result.WorkplaceID)
	f.SetCellValue(sheet, "A3", "Period")
	f.SetCellValue(sheet, "B3", periodLabel(result.From, result.To))
	f.SetCellValue(sheet, "A4", "Currency")
	f.SetCellValue(sheet, "B4", result.DisplayCurrency)

	const headerRow = 6
	for i, header := range trialBalanceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, header)
	}
	f.SetCellStyle(sheet, cellName(1, headerRow), cellName(len(trialBalanceHeaders), headerRow), headerStyle)

	row := headerRow + 1
	for _, r := range result.Rows {
		f.SetCellValue(sheet, cellName(1, row), r.AccountID)
		f.SetCellValue(sheet, cellName(2, row), r.AccountName)
		f.SetCellValue(sheet, cellName(3, row), string(r.AccountType))
		amounts := []float64{
			r.OpeningBalance.InexactFloat64(),
			r.PeriodDebit.InexactFloat64(),
			r.PeriodCredit.InexactFloat64(),
			r.ClosingBalance.InexactFloat64(),
			r.Debit.InexactFloat64(),
			r.Credit.InexactFloat64(),
		}
		for i, amount := range amounts {
			f.SetCellValue(sheet, cellName(4+i, row), amount)
		}
		f.SetCellStyle(sheet, cellName(4, row), cellName(9, row), amountStyle)
		row++
	}

	f.SetCellValue(sheet, cellName(1, row), "Total")
	f.SetCellValue(sheet, cellName(8, row), result.TotalDebit.InexactFloat64())
	f.SetCellValue(sheet, cellName(9, row), result.TotalCredit.InexactFloat64())
	f.SetCellStyle(sheet, cellName(1, row), cellName(9, row), totalStyle)
	if !result.IsBalanced {
		difference := result.DebitNormalTotal.Sub(result.CreditNormalTotal).Abs()
		f.SetCellValue(sheet, cellName(1, row+1), fmt.Sprintf("Out of balance by %s %s",
			utils.FormatWithCurrencyPrecision(difference, result.BaseCurrency), result.BaseCurrency))
	}

	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "B", "B", 32)
	f.SetColWidth(sheet, "C", "C", 12)
	f.SetColWidth(sheet, "D", "I", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func amountNumberFormat(currencyCode string) string {
	places := utils.CurrencyPrecision(currencyCode)
	if places == 0 {
		return "#,##0"
	}
	return "#,##0." + strings.Repeat("0", int(places))
}

func periodLabel(from, to time.Time) string {
	if from.IsZero() {
		return "to " + to.Format(time.DateOnly)
	}
	return from.Format(time.DateOnly) + " to " + to.Format(time.DateOnly)
}
