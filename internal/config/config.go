package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverFirestore = "firestore"
	DriverPostgres  = "postgres"
	DriverMemory    = "memory"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

type FirestoreConfig struct {
	ProjectID          string
	PostsCollection    string
	MessagesCollection string
}

type RedisConfig struct {
	Addr string
	TTL  time.Duration
}

type FeedConfig struct {
	PageSize int
}

type TimeoutConfig struct {
	Fetch    time.Duration
	Lookup   time.Duration
	Mutation time.Duration
	Message  time.Duration
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Config struct {
	Env          string
	Port         string
	ClientOrigin string
	Driver       string
	AccessSecret string
	RabbitMQURL  string
	Admins       []string
	DB           DBConfig
	Firestore    FirestoreConfig
	Redis        RedisConfig
	Feed         FeedConfig
	Timeouts     TimeoutConfig
}

// SetDefaults registers the defaults for every key Load reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "local")
	v.SetDefault("app.port", "8080")
	v.SetDefault("client.origin", "http://localhost:3000")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("firestore.posts_collection", "posts")
	v.SetDefault("firestore.messages_collection", "messages")
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("feed.page_size", 6)
	v.SetDefault("timeouts.fetch", 10*time.Second)
	v.SetDefault("timeouts.lookup", 8*time.Second)
	v.SetDefault("timeouts.mutation", 15*time.Second)
	v.SetDefault("timeouts.message", 10*time.Second)
}

// Load builds the Config from the yaml keys held by v and the process environment.
// Secrets only come from the environment.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Env:          v.GetString("app.env"),
		Port:         v.GetString("app.port"),
		ClientOrigin: v.GetString("client.origin"),
		Driver:       strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
		AccessSecret: os.Getenv("ACCESS_SECRET"),
		RabbitMQURL:  os.Getenv("RABBITMQ_CONN_STRING"),
		Admins:       v.GetStringSlice("admins"),
		DB: DBConfig{
			Username: os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			DBName:   os.Getenv("POSTGRES_DATABASE"),
			SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
		},
		Firestore: FirestoreConfig{
			ProjectID:          firstNonEmpty(os.Getenv("FIRESTORE_PROJECT_ID"), v.GetString("firestore.project_id")),
			PostsCollection:    v.GetString("firestore.posts_collection"),
			MessagesCollection: v.GetString("firestore.messages_collection"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
			TTL:  v.GetDuration("redis.ttl"),
		},
		Feed: FeedConfig{
			PageSize: v.GetInt("feed.page_size"),
		},
		Timeouts: TimeoutConfig{
			Fetch:    v.GetDuration("timeouts.fetch"),
			Lookup:   v.GetDuration("timeouts.lookup"),
			Mutation: v.GetDuration("timeouts.mutation"),
			Message:  v.GetDuration("timeouts.message"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.DBName == "" {
			return fmt.Errorf("store.driver=postgres requires POSTGRES_HOST and POSTGRES_DATABASE")
		}
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("store.driver=firestore requires firestore.project_id or FIRESTORE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Driver)
	}

	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be > 0")
	}
	for name, d := range map[string]time.Duration{
		"timeouts.fetch":    c.Timeouts.Fetch,
		"timeouts.lookup":   c.Timeouts.Lookup,
		"timeouts.mutation": c.Timeouts.Mutation,
		"timeouts.message":  c.Timeouts.Message,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
