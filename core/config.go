package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	Config struct {
		AppName   string
		Env       string // DEV (local; default), TEST, QA, PROD
		Build     string
		Debug     bool
		TestMode  bool
		SecretKey string
		Timezone  string
		WorkDir   string

		RollbarToken string

		Server     ServerConfig
		Database   DatabaseConfig
		Attendance AttendanceConfig
		Cache      CacheConfig
		SMS        SMSConfig
		Email      EmailConfig
		Schedule   ScheduleConfig
	}

	ServerConfig struct {
		Host               string
		Port               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Storage       string // postgres | inmem
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AttendanceConfig struct {
		WindowStart      string // HH:MM
		WindowEnd        string // HH:MM
		UseMonthlyStats  bool
		SessionStartYear int // 0: derived from the current date
	}

	CacheConfig struct {
		Namespace     string
		EnrollmentTTL time.Duration
	}

	SMSConfig struct {
		GatewayURL     string
		APIKey         string
		Sender         string
		AbsenceMessage string
		CountryCode    string
	}

	EmailConfig struct {
		SendgridApiKey   string
		DefaultFromEmail string
		PrincipalEmail   string
	}

	ScheduleConfig struct {
		CachePurge    string
		MonthlyReport string
	}
)

func (c *Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.Email.DefaultFromEmail}
}

func (c *Config) PrincipalEmail() mail.Address {
	return mail.Address{Name: "Principal", Address: c.Email.PrincipalEmail}
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func init() {
	Conf = LoadConfig(os.Getenv("ENV"))
}

// LoadConfig reads defaults, then config/.env.<env> (if any), then the environment.
// Environment keys are prefixed with the upper-cased env, eg. PROD_DATABASE_HOST.
func LoadConfig(env string) *Config {
	v := viper.New()

	env = strings.ToUpper(env)
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Attendance")
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "b2t5-qr)enx$+38=dz&ukh2(h!x)#*c8(#yg1h^$cegm2eop")
	v.SetDefault("timezone", "Asia/Karachi")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 30*24*time.Hour)

	v.SetDefault("database.storage", "postgres")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "attendance")
	v.SetDefault("database.user", "attendance")
	v.SetDefault("database.password", "attendance")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")

	v.SetDefault("attendance.windowStart", "07:00")
	v.SetDefault("attendance.windowEnd", "12:00")
	v.SetDefault("attendance.useMonthlyStats", false)
	v.SetDefault("attendance.sessionStartYear", 0)

	v.SetDefault("cache.namespace", "@student_count_")
	v.SetDefault("cache.enrollmentTTL", 7*24*time.Hour)

	v.SetDefault("sms.gatewayURL", "")
	v.SetDefault("sms.apiKey", "")
	v.SetDefault("sms.sender", "SCHOOL")
	v.SetDefault("sms.absenceMessage", "آپ کا بچہ/بھائی آج اسکول میں غیر حاضر تھا۔ براہ کرم مطلع رہیں۔")
	v.SetDefault("sms.countryCode", "92")

	v.SetDefault("email.sendgridApiKey", "")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("email.principalEmail", "principal@localhost")

	v.SetDefault("schedule.cachePurge", "@daily")
	v.SetDefault("schedule.monthlyReport", "0 7 1 * *")

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	conf.WorkDir = workDir
	return conf
}
