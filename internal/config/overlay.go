package config

import "strings"

const (
	EnvRecipients = "REPORT_RECIPIENTS"
	EnvDataDir    = "REPORTMAILER_DATA_DIR"
	EnvSheetID    = "GOOGLE_SHEET_ID"
)

// OverlayEnv lets the workflow override file values. getenv is os.Getenv
// outside tests.
func OverlayEnv(cfg *Config, getenv func(string) string) {
	if raw := strings.TrimSpace(getenv(EnvRecipients)); raw != "" {
		var rs []string
		for _, r := range strings.Split(raw, ",") {
			if r = strings.TrimSpace(r); r != "" {
				rs = append(rs, r)
			}
		}
		if len(rs) > 0 {
			cfg.Email.Recipients = rs
		}
	}
	if id := strings.TrimSpace(getenv(EnvSheetID)); id != "" {
		cfg.Report.SheetID = id
	}
	if dir := strings.TrimSpace(getenv(EnvDataDir)); dir != "" {
		cfg.App.DataDir = dir
	}
}
