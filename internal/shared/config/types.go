package config

import "fmt"

type ServerConfig struct {
	Mode     string `mapstructure:"mode"`
	Timezone string `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CycleConfig controls the subscription cycle engine.
// Sweep intervals are in minutes; 0 disables the corresponding sweep.
type CycleConfig struct {
	Enabled                    bool    `mapstructure:"enabled"`
	DefaultIntervalDays        int     `mapstructure:"default_interval_days"`
	DefaultResetMethod         string  `mapstructure:"default_reset_method"`
	BatchSize                  int     `mapstructure:"batch_size"`
	SyncIntervalMinutes        int     `mapstructure:"sync_interval_minutes"`
	CheckIntervalMinutes       int     `mapstructure:"check_interval_minutes"`
	EnableExpiredAtCalculation bool    `mapstructure:"enable_expired_at_calculation"`
	AutoResetOnExceedCustom    bool    `mapstructure:"auto_reset_on_exceed_custom"`
	AutoResetOnExceedMonthly   bool    `mapstructure:"auto_reset_on_exceed_monthly"`
	AutoResetOnExceedFirstDay  bool    `mapstructure:"auto_reset_on_exceed_first_day"`
	ExhaustionThreshold        float64 `mapstructure:"exhaustion_threshold"`
	DriftToleranceHours        int     `mapstructure:"drift_tolerance_hours"`
	LockTTLMinutes             int     `mapstructure:"lock_ttl_minutes"`
}
