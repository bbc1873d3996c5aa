package configuration

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	ConversationsCollection string `json:"conversationsCollection"`
	MessagesCollection      string `json:"messagesCollection"`
	UsersCollection         string `json:"usersCollection"`
	SocketRoute             string `json:"socketRoute"`
}

type RedisConfig struct {
	Enabled    bool   `json:"enabled"`
	Addr       string `json:"addr"`
	InstanceID string `json:"instanceId"`
}

type ServerConfig struct {
	AppPort    int `json:"app_port"`
	SocketPort int `json:"socket_port"`
}

type AuthConfig struct {
	JwtSecret string `json:"jwt_secret"`
}

type StorageConfig struct {
	Enabled   bool   `json:"enabled"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"use_ssl"`
}

type PresenceConfig struct {
	// DiffEvents switches the protocol to incremental userOnline/userOffline
	// events instead of (in addition to) full snapshots. Changes the
	// observable protocol, so it defaults to off.
	DiffEvents bool `json:"presence_diff_events"`
}

type Config struct {
	ChatDatabase MongoConfig    `json:"mongo"`
	Redis        RedisConfig    `json:"redis"`
	Server       ServerConfig   `json:"server"`
	Auth         AuthConfig     `json:"auth"`
	Storage      StorageConfig  `json:"storage"`
	Presence     PresenceConfig `json:"presence"`
}

// LoadConfig reads the JSON config file and overlays secrets from the
// environment (a .env file is honored when present).
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	overlay(&config.ChatDatabase.Uri, "MONGO_URI")
	overlay(&config.Redis.Addr, "REDIS_ADDR")
	overlay(&config.Auth.JwtSecret, "JWT_SECRET")
	overlay(&config.Storage.AccessKey, "MINIO_ACCESS_KEY")
	overlay(&config.Storage.SecretKey, "MINIO_SECRET_KEY")

	return &config, nil
}

func overlay(target *string, envKey string) {
	if v := os.Getenv(envKey); v != "" {
		*target = v
	}
}
