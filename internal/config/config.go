package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DBType     string `env:"DBType" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DBUser" envDefault:""`
	DBPassword string `env:"DBPassword" envDefault:""`
	DBAddr     string `env:"DBAddr" envDefault:""`
	DBName     string `env:"DBName" envDefault:"dockpanel"`
	DBPath     string `env:"DBPath" envDefault:"datas/dockpanel.db"`
	DBPort     string `env:"DBPort" envDefault:"3306"`

	// 令牌签名配置，JWT_SECRET 为空时进程启动时随机生成
	JWTSecret            string `env:"JWT_SECRET" envDefault:""`
	JWTIssuer            string `env:"JWT_ISSUER" envDefault:"dockpanel"`
	JWTExpirationMinutes int    `env:"JWT_EXPIRATION_MINUTES" envDefault:"1440"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// 首个管理员账户
	AdminEmail           string `env:"ADMIN_EMAIL" envDefault:""`
	AdminName            string `env:"ADMIN_NAME" envDefault:""`
	AdminPassword        string `env:"ADMIN_PASSWORD" envDefault:""`
	BootstrapCreateAdmin bool   `env:"BOOTSTRAP_CREATE_ADMIN" envDefault:"true"`

	AuthCookieName   string `env:"AUTH_COOKIE_NAME" envDefault:"dockpanel_token"`
	AuthCookieSecure bool   `env:"AUTH_COOKIE_SECURE" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// TokenLifetime returns the configured bearer token lifetime.
func (c Config) TokenLifetime() time.Duration {
	return time.Duration(c.JWTExpirationMinutes) * time.Minute
}

func ParseConfig() (Config, error) {
	var Conf Config
	err := env.Parse(&Conf)
	if err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	return Conf, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithError(err).WithField("level", cfg.LogLevel).Warn("unknown log level, falling back to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
