package service

import (
	"context"
	"math"
	"sort"

	"github.com/timetidy/timetidy-service/internal/authz"
	"github.com/timetidy/timetidy-service/internal/models"
)

const (
	defaultHourlyRate = 18.00
	maxPayrollDays    = 366
)

// PayrollService produces payroll estimates from closed check-ins
type PayrollService struct {
	Deps
}

// NewPayrollService creates a new payroll service
func NewPayrollService(deps Deps) *PayrollService {
	return &PayrollService{Deps: deps.withDefaults()}
}

type weekKey struct {
	userID string
	year   int
	week   int
}

// Estimate computes gross pay, a flat tax and net pay per user for check-ins
// that started between start and end inclusive. Hours are net of breaks.
// Within each ISO week, hours above the overtime threshold are paid at the
// overtime rate. Check-ins still open are ignored.
func (s *PayrollService) Estimate(ctx context.Context, actor *models.User, start, end string) (*models.PayrollEstimate, error) {
	if err := authorize(actor, authz.ManagePayroll); err != nil {
		return nil, err
	}

	fields := make(map[string][]string)
	startDay, err := parseDate("startDate", start)
	if err != nil {
		fields["startDate"] = []string{"Start date must be a date in YYYY-MM-DD format"}
	}
	endDay, err := parseDate("endDate", end)
	if err != nil {
		fields["endDate"] = []string{"End date must be a date in YYYY-MM-DD format"}
	}
	if len(fields) > 0 {
		return nil, invalid("Validation failed", fields)
	}
	if endDay.Before(startDay) {
		return nil, invalidField("endDate", "End date must not be before the start date")
	}
	if endDay.Sub(startDay).Hours() > maxPayrollDays*24 {
		return nil, invalidField("endDate", "Payroll range cannot exceed one year")
	}

	settings, loc, err := s.settingsLocation(ctx)
	if err != nil {
		return nil, err
	}

	from := timeIn(startDay, loc)
	until := timeIn(endDay, loc).AddDate(0, 0, 1)
	checkIns, err := s.Repos.CheckIn.List(ctx, models.CheckInFilter{StartDate: &from, EndDate: &until})
	if err != nil {
		return nil, storeError(err, "Check-in not found")
	}

	weekly := make(map[weekKey]float64)
	for _, checkIn := range checkIns {
		if checkIn.IsOpen() || !checkIn.CheckInTime.Before(until) {
			continue
		}
		hours := checkIn.HoursWorked() - float64(checkIn.BreakDuration)/60
		if hours <= 0 {
			continue
		}
		year, week := checkIn.CheckInTime.In(loc).ISOWeek()
		weekly[weekKey{userID: checkIn.UserID, year: year, week: week}] += hours
	}

	threshold := float64(settings.OvertimeThreshold)
	lines := make(map[string]*models.PayrollLine)
	rel := s.relations(ctx)
	for key, hours := range weekly {
		line, ok := lines[key.userID]
		if !ok {
			line = &models.PayrollLine{UserID: key.userID, HourlyRate: defaultHourlyRate}
			if user := rel.user(key.userID); user != nil {
				line.Name = user.FullName()
				if user.HourlyRate != nil {
					line.HourlyRate = *user.HourlyRate
				}
			}
			lines[key.userID] = line
		}
		regular := math.Min(hours, threshold)
		line.RegularHours += regular
		line.OvertimeHours += hours - regular
	}

	estimate := &models.PayrollEstimate{
		StartDate: startDay.Format(models.DateLayout),
		EndDate:   endDay.Format(models.DateLayout),
		Currency:  settings.Currency,
		Lines:     make([]models.PayrollLine, 0, len(lines)),
	}
	for _, line := range lines {
		gross := line.RegularHours*line.HourlyRate + line.OvertimeHours*line.HourlyRate*settings.OvertimeRate
		tax := gross * settings.TaxRate / 100

		line.RegularHours = roundTo(line.RegularHours, 2)
		line.OvertimeHours = roundTo(line.OvertimeHours, 2)
		line.GrossPay = roundTo(gross, 2)
		line.Tax = roundTo(tax, 2)
		line.NetPay = roundTo(gross-tax, 2)

		estimate.TotalGross += line.GrossPay
		estimate.TotalTax += line.Tax
		estimate.TotalNet += line.NetPay
		estimate.Lines = append(estimate.Lines, *line)
	}
	sort.Slice(estimate.Lines, func(i, j int) bool {
		if estimate.Lines[i].Name != estimate.Lines[j].Name {
			return estimate.Lines[i].Name < estimate.Lines[j].Name
		}
		return estimate.Lines[i].UserID < estimate.Lines[j].UserID
	})
	estimate.TotalGross = roundTo(estimate.TotalGross, 2)
	estimate.TotalTax = roundTo(estimate.TotalTax, 2)
	estimate.TotalNet = roundTo(estimate.TotalNet, 2)

	return estimate, nil
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
