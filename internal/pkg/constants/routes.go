package constants

// Static route constants
const (
	PublicRoute  = "/"
	HealthRoute  = "/health"
	MetricsRoute = "/metrics"
	APIRoute     = "/api"
	// Groups below are relative to APIRoute
	DashboardRoute   = "/dashboard"
	FormRoute        = "/form"
	ObservationsPath = "/observations"
	// Swagger UI is served under DocsBasePath + DocsVersion
	DocsBasePath = "/docs/api/"
	DocsVersion  = "v1"
)
