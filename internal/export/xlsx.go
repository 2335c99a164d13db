package export

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// WriteLinesXLSX writes line rows to an XLSX workbook at path.
func WriteLinesXLSX(path string, rows []LineRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Lines")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range lineHeaders {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Line.ID)
		row.AddCell().SetString(r.Line.PhoneNumber)
		row.AddCell().SetString(string(r.Line.Carrier))
		row.AddCell().SetString(r.Line.PlanName)
		row.AddCell().SetString(r.Line.ContractDate.Format(time.DateOnly))
		row.AddCell().SetInt64(r.Line.AdminFee)
		row.AddCell().SetInt64(r.Line.DeviceCost)
		row.AddCell().SetInt64(r.Line.RunningCost)
		row.AddCell().SetInt64(r.Line.CashbackAmount)
		row.AddCell().SetString(string(r.Line.CBStatus))
		row.AddCell().SetBool(r.Line.Archived)
		row.AddCell().SetString(string(r.Risk.Level))
		row.AddCell().SetInt(r.Risk.DaysElapsed)
		row.AddCell().SetInt(r.Risk.DaysRemaining)
		row.AddCell().SetInt(r.Risk.ProgressPercent)
	}

	return eris.Wrapf(file.Save(path), "export: save %s", path)
}

// WriteProjectionXLSX writes a scenario projection to an XLSX workbook.
func WriteProjectionXLSX(path string, s model.ScenarioConfig, res model.ProjectionResult) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Projection")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range projectionHeaders {
		header.AddCell().SetString(h)
	}

	row := sheet.AddRow()
	row.AddCell().SetString(string(s.Carrier))
	row.AddCell().SetInt(s.LineCount)
	row.AddCell().SetInt64(res.TotalRevenue)
	row.AddCell().SetInt64(res.TotalCost)
	row.AddCell().SetInt64(res.NetProfit)
	row.AddCell().SetFloat(res.ProfitPerLine)
	row.AddCell().SetInt64(res.CostBreakdown.AdminFees)
	row.AddCell().SetInt64(res.CostBreakdown.MaintenanceCosts)
	row.AddCell().SetInt64(res.CostBreakdown.Penalties)
	row.AddCell().SetInt64(res.CostBreakdown.Others)

	return eris.Wrapf(file.Save(path), "export: save %s", path)
}
