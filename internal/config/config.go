package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	GoEnv string `envconfig:"GO_ENV" default:"prod"` // dev/prod
	FEURL string `envconfig:"FE_URL" default:"http://localhost:5173"`

	// DATABASE_URL があれば最優先
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"lumina"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	// ホスト型認証サービスと共有する署名シークレット
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CartTTL       time.Duration `envconfig:"CART_TTL" default:"336h"`

	GeocoderURL       string        `envconfig:"GEOCODER_URL" default:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent string        `envconfig:"GEOCODER_USER_AGENT" default:"lumina-storefront/1.0"`
	GeocoderRPS       float64       `envconfig:"GEOCODER_RPS" default:"1"`
	GeocoderTimeout   time.Duration `envconfig:"GEOCODER_TIMEOUT" default:"5s"`

	// チェックアウト
	CheckoutTimeout time.Duration `envconfig:"CHECKOUT_TIMEOUT" default:"10s"`
	ShippingFee     int64         `envconfig:"SHIPPING_FEE" default:"22500"`
	Discount        int64         `envconfig:"CHECKOUT_DISCOUNT" default:"0"`
}

// Loadは.env（あれば）と環境変数から設定を読む
func Load() (Config, error) {
	// .envは任意
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.CheckoutTimeout <= 0 {
		return Config{}, fmt.Errorf("CHECKOUT_TIMEOUT must be positive")
	}
	if cfg.GeocoderRPS <= 0 {
		return Config{}, fmt.Errorf("GEOCODER_RPS must be positive")
	}

	return cfg, nil
}

// IsDevはローカル開発かどうか
func (c Config) IsDev() bool {
	return c.GoEnv == "dev"
}

// PostgresDSNはgorm postgres用のDSNを組み立てる
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
