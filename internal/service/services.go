package service

// Services bundles every service the API exposes
type Services struct {
	Auth      *AuthService
	User      *UserService
	Shift     *ShiftService
	CheckIn   *CheckInService
	Swap      *SwapService
	TimeOff   *TimeOffService
	Location  *LocationService
	Settings  *SettingsService
	Dashboard *DashboardService
	Payroll   *PayrollService
}

// NewServices wires all services over the same dependencies
func NewServices(deps Deps, jwtConfig JWTConfig, limiter *LoginLimiter, bcryptCost int) *Services {
	deps = deps.withDefaults()
	auth := NewAuthService(deps, jwtConfig, limiter, bcryptCost)

	return &Services{
		Auth:      auth,
		User:      NewUserService(deps, auth),
		Shift:     NewShiftService(deps),
		CheckIn:   NewCheckInService(deps),
		Swap:      NewSwapService(deps),
		TimeOff:   NewTimeOffService(deps),
		Location:  NewLocationService(deps),
		Settings:  NewSettingsService(deps),
		Dashboard: NewDashboardService(deps),
		Payroll:   NewPayrollService(deps),
	}
}
