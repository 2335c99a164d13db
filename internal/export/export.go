// Package export flattens contract lines and projections into CSV, TSV,
// and XLSX for spreadsheet-driven operators.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

// LineRow is one contract line joined with its current risk assessment,
// flattened for tabular export.
type LineRow struct {
	Line model.ContractLine
	Risk model.RiskAssessment
}

var lineHeaders = []string{
	"id", "phone_number", "carrier", "plan_name", "contract_date",
	"admin_fee", "device_cost", "running_cost", "cashback_amount",
	"cb_status", "archived",
	"risk_level", "days_elapsed", "days_remaining", "progress_percent",
}

func (r LineRow) record() []string {
	return []string{
		r.Line.ID,
		r.Line.PhoneNumber,
		string(r.Line.Carrier),
		r.Line.PlanName,
		r.Line.ContractDate.Format(time.DateOnly),
		strconv.FormatInt(r.Line.AdminFee, 10),
		strconv.FormatInt(r.Line.DeviceCost, 10),
		strconv.FormatInt(r.Line.RunningCost, 10),
		strconv.FormatInt(r.Line.CashbackAmount, 10),
		string(r.Line.CBStatus),
		strconv.FormatBool(r.Line.Archived),
		string(r.Risk.Level),
		strconv.Itoa(r.Risk.DaysElapsed),
		strconv.Itoa(r.Risk.DaysRemaining),
		strconv.Itoa(r.Risk.ProgressPercent),
	}
}

// WriteLinesCSV writes line rows as delimiter-separated values. Pass
// '\t' for the TSV flavor spreadsheet pasting prefers.
func WriteLinesCSV(w io.Writer, rows []LineRow, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(lineHeaders); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

var projectionHeaders = []string{
	"carrier", "line_count", "total_revenue", "total_cost", "net_profit",
	"profit_per_line", "admin_fees", "maintenance_costs", "penalties", "others",
}

// WriteProjectionCSV writes a scenario and its projection as one flat row.
func WriteProjectionCSV(w io.Writer, s model.ScenarioConfig, res model.ProjectionResult, delim rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(projectionHeaders); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	rec := []string{
		string(s.Carrier),
		strconv.Itoa(s.LineCount),
		strconv.FormatInt(res.TotalRevenue, 10),
		strconv.FormatInt(res.TotalCost, 10),
		strconv.FormatInt(res.NetProfit, 10),
		strconv.FormatFloat(res.ProfitPerLine, 'f', -1, 64),
		strconv.FormatInt(res.CostBreakdown.AdminFees, 10),
		strconv.FormatInt(res.CostBreakdown.MaintenanceCosts, 10),
		strconv.FormatInt(res.CostBreakdown.Penalties, 10),
		strconv.FormatInt(res.CostBreakdown.Others, 10),
	}
	if err := cw.Write(rec); err != nil {
		return eris.Wrap(err, "export: write row")
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}
