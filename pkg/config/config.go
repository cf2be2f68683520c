package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
	MQ     MQConfig     `mapstructure:"mq"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Game   GameConfig   `mapstructure:"game"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MQConfig struct {
	Url       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue_name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GameConfig carries every tunable of the sync core. The thresholds are
// deliberately plain numbers: they are not derived from tick rate or world
// scale, they are tuned per deployment.
type GameConfig struct {
	TickRate      int `mapstructure:"tick_rate"`
	BroadcastRate int `mapstructure:"broadcast_rate"`

	MoveSpeed   float64 `mapstructure:"move_speed"`
	MapSize     float64 `mapstructure:"map_size"`
	CameraStiff float64 `mapstructure:"camera_stiffness"`

	ReconciliationThreshold float64 `mapstructure:"reconciliation_threshold"`
	MaxSpeed                float64 `mapstructure:"max_speed"`
	TeleportThreshold       float64 `mapstructure:"teleport_threshold"`
	MaxInputMagnitude       float64 `mapstructure:"max_input_magnitude"`
	MaxActionsPerWindow     int     `mapstructure:"max_actions_per_window"`
	ActionWindowSeconds     float64 `mapstructure:"action_window_seconds"`

	HistoryWindowSeconds       float64 `mapstructure:"history_window_seconds"`
	InputBufferIntervalSeconds float64 `mapstructure:"input_buffer_interval_seconds"`
	MaxPendingInputs           int     `mapstructure:"max_pending_inputs"`

	PacketsPerSecond int `mapstructure:"packets_per_second"`
}

var AppConfig *Config

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config: %v", err)
	}
	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

// DefaultGame returns the stock tuning used when no config file overrides it.
// Tests build their cores from this.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRate:      60,
		BroadcastRate: 20,

		MoveSpeed:   5.0,
		MapSize:     2000.0,
		CameraStiff: 8.0,

		ReconciliationThreshold: 0.5,
		MaxSpeed:                10.0,
		TeleportThreshold:       4.0,
		MaxInputMagnitude:       1.5,
		MaxActionsPerWindow:     10,
		ActionWindowSeconds:     1.0,

		HistoryWindowSeconds:       1.0,
		InputBufferIntervalSeconds: 0.1,
		MaxPendingInputs:           100,

		PacketsPerSecond: 60,
	}
}
