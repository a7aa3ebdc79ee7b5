package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Mode      string `json:"mode"`
}

// SettingsResponse is the public frontend configuration.
type SettingsResponse struct {
	IsEnterpriseModeActive bool   `json:"is_enterprise_mode_active"`
	IsInstalled            bool   `json:"is_installed"`
	IsSignupActive         bool   `json:"is_signup_active"`
	IsLoginActive          bool   `json:"is_login_active"`
	IsGithubLoginActive    bool   `json:"is_github_login_active"`
	IsGoogleLoginActive    bool   `json:"is_google_login_active"`
	GithubClientID         string `json:"github_client_id"`
	GoogleClientID         string `json:"google_client_id"`
	GoogleAnalyticsID      string `json:"google_analytics_id"`
	MaxCrawlConcurrency    int    `json:"max_crawl_concurrency"`
	MCPServer              string `json:"mcp_server"`
	APIVersion             string `json:"api_version"`
	PolicyURL              string `json:"policy_url"`
	TermsURL               string `json:"terms_url"`
}
