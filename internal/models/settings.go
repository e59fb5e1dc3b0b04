package models

import (
	"time"
)

type PayPeriod string

const (
	PayPeriodWeekly   PayPeriod = "weekly"
	PayPeriodBiweekly PayPeriod = "biweekly"
	PayPeriodMonthly  PayPeriod = "monthly"
)

// Settings is the company-wide policy document. There is exactly one.
type Settings struct {
	// General
	CompanyName          string `json:"companyName" validate:"required,max=100"`
	TimeZone             string `json:"timeZone" validate:"required,timezone"`
	Currency             string `json:"currency" validate:"required,len=3"`
	DefaultShiftDuration int    `json:"defaultShiftDuration" validate:"gte=1,lte=24"` // hours

	// Time tracking
	OvertimeThreshold     int  `json:"overtimeThreshold" validate:"gte=1,lte=168"` // hours per week
	BreakDuration         int  `json:"breakDuration" validate:"gte=0,lte=240"`     // minutes
	GeofencingEnabled     bool `json:"geofencingEnabled"`
	DefaultGeofenceRadius int  `json:"defaultGeofenceRadius" validate:"gte=10,lte=10000"` // meters

	// Notifications
	EmailNotifications     bool `json:"emailNotifications"`
	SMSNotifications       bool `json:"smsNotifications"`
	NotifyOnLateCheckIn    bool `json:"notifyOnLateCheckIn"`
	NotifyOnMissedCheckOut bool `json:"notifyOnMissedCheckOut"`

	// Payroll
	PayPeriod    PayPeriod `json:"payPeriod" validate:"required,oneof=weekly biweekly monthly"`
	OvertimeRate float64   `json:"overtimeRate" validate:"gte=1,lte=5"`
	TaxRate      float64   `json:"taxRate" validate:"gte=0,lte=100"` // percent

	// Security
	PasswordExpiry int  `json:"passwordExpiry" validate:"gte=0,lte=365"` // days, 0 disables
	TwoFactorAuth  bool `json:"twoFactorAuth"`
	SessionTimeout int  `json:"sessionTimeout" validate:"gte=5,lte=1440"` // minutes

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultSettings returns the policy a fresh installation starts with
func DefaultSettings() Settings {
	return Settings{
		CompanyName:            "TimeTidy Company",
		TimeZone:               "Europe/Copenhagen",
		Currency:               "DKK",
		DefaultShiftDuration:   8,
		OvertimeThreshold:      40,
		BreakDuration:          30,
		GeofencingEnabled:      true,
		DefaultGeofenceRadius:  100,
		EmailNotifications:     true,
		SMSNotifications:       false,
		NotifyOnLateCheckIn:    true,
		NotifyOnMissedCheckOut: true,
		PayPeriod:              PayPeriodMonthly,
		OvertimeRate:           1.5,
		TaxRate:                20,
		PasswordExpiry:         90,
		TwoFactorAuth:          false,
		SessionTimeout:         120,
	}
}

// PayrollLine is the estimate for one user over the requested range
type PayrollLine struct {
	UserID        string  `json:"userId"`
	Name          string  `json:"name"`
	HourlyRate    float64 `json:"hourlyRate"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	GrossPay      float64 `json:"grossPay"`
	Tax           float64 `json:"tax"`
	NetPay        float64 `json:"netPay"`
}

// PayrollEstimate aggregates payroll lines over a date range
type PayrollEstimate struct {
	StartDate  string        `json:"startDate"`
	EndDate    string        `json:"endDate"`
	Currency   string        `json:"currency"`
	Lines      []PayrollLine `json:"lines"`
	TotalGross float64       `json:"totalGross"`
	TotalTax   float64       `json:"totalTax"`
	TotalNet   float64       `json:"totalNet"`
}

// PendingApprovals lists everything waiting for a manager's decision
type PendingApprovals struct {
	ShiftSwaps      []ShiftSwap      `json:"shiftSwaps"`
	TimeOffRequests []TimeOffRequest `json:"timeOffRequests"`
	Total           int              `json:"total"`
}

// DashboardStats summarises the caller's week and the team's current state
type DashboardStats struct {
	HoursToday       float64 `json:"hoursToday"`
	HoursThisWeek    float64 `json:"hoursThisWeek"`
	TeamOnline       int     `json:"teamOnline"`
	TasksCompleted   int     `json:"tasksCompleted"` // completed shifts this week
	UpcomingShifts   int     `json:"upcomingShifts"`
	PendingApprovals int     `json:"pendingApprovals"`
}
