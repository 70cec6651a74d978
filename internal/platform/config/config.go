package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DockerRegistry string
	GHCRRegistry   string

	CloneBaseDir  string
	KubeNamespace string
	Kubeconfig    string

	EngineTimeout time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	LogDir  string
	LogFile string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:           getEnv("API_PORT", "8080"),
		JWTKey:            []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:            time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 30)) * time.Minute,
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "user"),
		DBPassword:        getEnv("DB_PASSWORD", "password"),
		DBName:            getEnv("DB_NAME", "dockyard_db"),
		DBSslMode:         getEnv("DB_SSLMODE", "disable"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		DockerRegistry:    getEnv("DOCKER_REGISTRY", "https://index.docker.io/v1/"),
		GHCRRegistry:      getEnv("GHCR_REGISTRY", "ghcr.io"),
		CloneBaseDir:      getEnv("CLONE_BASE_DIR", "/home/ubuntu"),
		KubeNamespace:     getEnv("KUBE_NAMESPACE", "default"),
		Kubeconfig:        getEnv("KUBECONFIG", ""),
		EngineTimeout:     time.Duration(getEnvAsInt("ENGINE_TIMEOUT_SECONDS", 120)) * time.Second,
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 5),
		RateLimitWindow:   time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		LogDir:            getEnv("LOG_DIR", "logs"),
		LogFile:           getEnv("LOG_FILE", "dockyard.log"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// LogPath is the file backing the raw-log endpoint.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogDir, c.LogFile)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
