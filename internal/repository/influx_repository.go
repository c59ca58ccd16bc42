package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"energy_finance/internal/config"
	"energy_finance/internal/domain"
	"energy_finance/pkg/logger"

	influxdb3 "github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"
)

const cashFlowMeasurement = "cash_flows"

// InfluxScheduleRepo implements ScheduleRepository for InfluxDB.
// Every schedule year is one point tagged with project, result and year.
type InfluxScheduleRepo struct {
	db *config.InfluxDatabase
}

// NewInfluxScheduleRepo creates a new InfluxDB schedule repository
func NewInfluxScheduleRepo(db *config.InfluxDatabase) *InfluxScheduleRepo {
	return &InfluxScheduleRepo{db: db}
}

// Insert writes schedule points to InfluxDB
func (r *InfluxScheduleRepo) Insert(ctx context.Context, points []domain.SchedulePoint) error {
	if r.db == nil || r.db.Client == nil {
		return fmt.Errorf("InfluxDB client is nil - database not initialized")
	}

	if len(points) == 0 {
		return nil
	}

	batch := make([]*influxdb3.Point, 0, len(points))
	for _, p := range points {
		batch = append(batch, schedulePointToInflux(p))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := r.db.Client.WritePoints(ctx, batch); err != nil {
		return fmt.Errorf("WritePoints failed: %w (points: %d, db: %s)", err, len(batch), r.db.Database)
	}

	logger.Debugf("Wrote %d cash flow points to InfluxDB", len(batch))
	return nil
}

func schedulePointToInflux(p domain.SchedulePoint) *influxdb3.Point {
	rec := p.Record

	tags := map[string]string{
		"project_id": p.ProjectID,
		"result_id":  p.ResultID,
		"year":       strconv.Itoa(rec.Year),
	}

	fields := map[string]interface{}{
		"year_index":            int64(rec.Year),
		"capex":                 rec.Capex,
		"revenue":               rec.Revenue,
		"opex":                  rec.Opex,
		"maintenance":           rec.Maintenance,
		"insurance":             rec.Insurance,
		"taxes":                 rec.Taxes,
		"debt_service":          rec.DebtService,
		"incentives":            rec.Incentives,
		"salvage_value":         rec.SalvageValue,
		"energy_production_mwh": rec.EnergyProductionMWh,
		"net_cash_flow":         rec.NetCashFlow,
		"cumulative_cash_flow":  rec.CumulativeCashFlow,
	}

	return influxdb3.NewPoint(cashFlowMeasurement, tags, fields, p.CalculatedAt)
}

// Query retrieves the schedule of one result
func (r *InfluxScheduleRepo) Query(ctx context.Context, projectID, resultID string) ([]domain.CashFlowRecord, error) {
	if r.db == nil || r.db.Client == nil {
		return nil, fmt.Errorf("InfluxDB client is nil - database not initialized")
	}

	query := scheduleQuery(projectID, resultID)
	logger.Debugf("Executing query: %s", query)

	iterator, err := r.db.Client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w (query: %s)", err, query)
	}

	var records []domain.CashFlowRecord
	for iterator.Next() {
		records = append(records, valueToRecord(iterator.Value()))
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Year < records[j].Year })
	return records, nil
}

func scheduleQuery(projectID, resultID string) string {
	return fmt.Sprintf(
		"SELECT * FROM %s WHERE project_id = '%s' AND result_id = '%s' ORDER BY year_index",
		cashFlowMeasurement, quoteLiteral(projectID), quoteLiteral(resultID),
	)
}

// quoteLiteral escapes a value for a single-quoted SQL string
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func valueToRecord(value map[string]interface{}) domain.CashFlowRecord {
	return domain.CashFlowRecord{
		Year:                getIntValue(value, "year_index"),
		Capex:               getFloatValue(value, "capex"),
		Revenue:             getFloatValue(value, "revenue"),
		Opex:                getFloatValue(value, "opex"),
		Maintenance:         getFloatValue(value, "maintenance"),
		Insurance:           getFloatValue(value, "insurance"),
		Taxes:               getFloatValue(value, "taxes"),
		DebtService:         getFloatValue(value, "debt_service"),
		Incentives:          getFloatValue(value, "incentives"),
		SalvageValue:        getFloatValue(value, "salvage_value"),
		EnergyProductionMWh: getFloatValue(value, "energy_production_mwh"),
		NetCashFlow:         getFloatValue(value, "net_cash_flow"),
		CumulativeCashFlow:  getFloatValue(value, "cumulative_cash_flow"),
	}
}

// Type returns database type
func (r *InfluxScheduleRepo) Type() string {
	return "influx"
}

func getIntValue(data map[string]interface{}, key string) int {
	switch val := data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case uint64:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, _ := strconv.Atoi(val)
		return n
	default:
		return 0
	}
}

func getFloatValue(data map[string]interface{}, key string) float64 {
	switch val := data[key].(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return 0.0
	}
}
