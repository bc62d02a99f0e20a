package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arpg/bobcat/geom"
)

// Config is the top-level coordinator configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	Agent       AgentConfig       `yaml:"agent"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Beacons     BeaconConfig      `yaml:"beacons"`
	Deploy      DeployConfig      `yaml:"deploy"`
	Messaging   MessagingConfig   `yaml:"messaging"`
	Database    DatabaseConfig    `yaml:"database"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Web         WebConfig         `yaml:"web"`
}

// AgentConfig identifies this robot.
type AgentConfig struct {
	ID            string        `yaml:"id"`
	Aerial        bool          `yaml:"aerial"`
	Solo          bool          `yaml:"solo"`
	SimComms      bool          `yaml:"sim_comms"`
	WaitForOrigin bool          `yaml:"wait_for_origin"`
	CommThreshold time.Duration `yaml:"comm_threshold"`
}

// CoordinatorConfig holds the decision loop settings.
type CoordinatorConfig struct {
	Rate             float64 `yaml:"rate"` // ticks per second
	HistorySeconds   float64 `yaml:"history_seconds"`
	DeconflictRadius float64 `yaml:"deconflict_radius"`
	StopCheck        int     `yaml:"stop_check"`
}

// BeaconConfig holds the relay pool and the drop policy distances.
type BeaconConfig struct {
	Total          int        `yaml:"total"`
	Mine           []string   `yaml:"mine"`
	Anchor         geom.Point `yaml:"anchor"`
	AnchorDropDist float64    `yaml:"anchor_drop_dist"`
	DropDist       float64    `yaml:"drop_dist"`
	JunctionDist   float64    `yaml:"junction_dist"`
	TurnDetect     bool       `yaml:"turn_detect"`
	DelayDrop      bool       `yaml:"delay_drop"`
	ReverseDrop    bool       `yaml:"reverse_drop"`
}

// DeployConfig selects the deployment mechanism.
type DeployConfig struct {
	Mechanism string `yaml:"mechanism"` // "teleport", "signal" or "live"
	LiveAck   bool   `yaml:"live_ack"`
}

// MessagingConfig defines the messaging backend.
type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	TopicPrefix         string        `yaml:"topic_prefix"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// MonitorConfig defines the team snapshot cache.
type MonitorConfig struct {
	Enabled bool          `yaml:"enabled"`
	Redis   RedisConfig   `yaml:"redis"`
	TTL     time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// WebConfig defines the operator API.
type WebConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	TokenHash     string `yaml:"token_hash"` // bcrypt hash of the operator token
	SessionSecret string `yaml:"session_secret"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ID:            "H01",
			CommThreshold: 2 * time.Second,
		},
		Coordinator: CoordinatorConfig{
			Rate:             1,
			HistorySeconds:   10,
			DeconflictRadius: 2.5,
			StopCheck:        30,
		},
		Beacons: BeaconConfig{
			Total:          20,
			Anchor:         geom.Point{X: 1, Y: 0, Z: 0.1},
			AnchorDropDist: 100,
			DropDist:       30,
			JunctionDist:   10,
			TurnDetect:     true,
		},
		Deploy: DeployConfig{
			Mechanism: "signal",
		},
		Messaging: MessagingConfig{
			Backend:             "mqtt",
			TopicPrefix:         "bobcat",
			OutboxDrainInterval: 5 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
			},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "bobcat.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "bobcat",
				User:     "bobcat",
				SSLMode:  "disable",
			},
		},
		Monitor: MonitorConfig{
			Redis: RedisConfig{Address: "localhost:6379"},
			TTL:   30 * time.Second,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AgentID returns the configured robot id.
func (c *Config) AgentID() string { return c.Agent.ID }

// HistoryCapacity is the number of poses kept for stuck detection.
func (c *Config) HistoryCapacity() int {
	n := int(c.Coordinator.Rate * c.Coordinator.HistorySeconds)
	if n < 2 {
		n = 2
	}
	return n
}

// TickInterval is the control loop period.
func (c *Config) TickInterval() time.Duration {
	if c.Coordinator.Rate <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / c.Coordinator.Rate)
}

// Topic builds a topic name under the configured prefix. MQTT topics use
// '/' and Kafka topics use '.' as the separator.
func (c *Config) Topic(parts ...string) string {
	sep := "/"
	if c.Messaging.Backend == "kafka" {
		sep = "."
	}
	t := c.Messaging.TopicPrefix
	for _, p := range parts {
		t += sep + p
	}
	return t
}

// TeamTopic carries agent.state broadcasts for the whole team.
func (c *Config) TeamTopic() string { return c.Topic("team") }

// RobotTopic carries messages from this robot's local stack.
func (c *Config) RobotTopic() string { return c.Topic(c.Agent.ID, "robot") }

// CommandTopic carries directives to this robot's local stack.
func (c *Config) CommandTopic() string { return c.Topic(c.Agent.ID, "cmd") }

// GUITopic carries operator commands for the team.
func (c *Config) GUITopic() string { return c.Topic("gui") }

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
