package config

import "github.com/kelseyhightower/envconfig"

// Config 启动配置，全部来自环境变量，启动后只读
type Config struct {
	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/license.db"`
	MasterKey    string `envconfig:"MASTER_KEY" required:"true"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`

	// Google Sheets 同步（可选）
	SheetSyncEnabled   bool   `envconfig:"SHEET_SYNC_ENABLED" default:"false"`
	SheetCredentials   string `envconfig:"SHEET_CREDENTIALS"`
	SheetSpreadsheetID string `envconfig:"SHEET_SPREADSHEET_ID"`
	SheetName          string `envconfig:"SHEET_NAME" default:"licenses"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
