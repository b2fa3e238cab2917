package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
	}

	FirebaseConfig struct {
		ProjectID       string
		CredentialsFile string
	}

	OCRConfig struct {
		AadhaarURL            string
		LeavingCertificateURL string
		Timeout               time.Duration
		HealthTimeout         time.Duration
	}

	Config struct {
		AppName  string
		Env      string // DEV (default) | TEST | QA | PROD
		Build    string
		Debug    bool
		TestMode bool

		SecretKey           []byte
		AllowedOrigins      []string
		BootstrapAdminEmail string
		SecurityCode        string

		defaultFromEmail string
		AdmissionsEmail  string
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Firebase FirebaseConfig
		OCR      OCRConfig

		SheetWebhookURL string
	}
)

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables prefixed with the env name.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Shule")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "x2m)f0x&k$k+a1d-vjqy8(4=&^u0_cr#p7q5@y9e3s6z!wb0")
	v.SetDefault("allowedOrigins", []string{"https://schools.smartflows.in", "http://localhost:5173"})
	v.SetDefault("bootstrapAdminEmail", "admin@gmail.com")
	v.SetDefault("securityCode", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("admissionsEmail", "admissions@localhost")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("serverShutdownTimeout", 20*time.Second)
	v.SetDefault("firebaseProjectId", "")
	v.SetDefault("firebaseCredentialsFile", "")
	v.SetDefault("aadhaarOcrUrl", "http://3.110.94.123:8000/api/v1/extract-aadhaar")
	v.SetDefault("leavingCertOcrUrl", "http://3.110.94.123:5678/api/v1/extract_certificate_data")
	v.SetDefault("ocrTimeout", 30*time.Second)
	v.SetDefault("ocrHealthTimeout", 3*time.Second)
	v.SetDefault("sheetWebhookUrl", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:             v.GetString("appName"),
		Env:                 env,
		Build:               v.GetString("build"),
		Debug:               v.GetBool("debug"),
		TestMode:            env == "TEST",
		SecretKey:           []byte(v.GetString("secretKey")),
		AllowedOrigins:      v.GetStringSlice("allowedOrigins"),
		BootstrapAdminEmail: CleanString(v.GetString("bootstrapAdminEmail"), true /* lower */),
		SecurityCode:        v.GetString("securityCode"),
		defaultFromEmail:    v.GetString("defaultFromEmail"),
		AdmissionsEmail:     v.GetString("admissionsEmail"),
		SendgridApiKey:      v.GetString("sendgridApiKey"),
		RollbarToken:        v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Port:            v.GetString("serverPort"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       v.GetString("firebaseProjectId"),
			CredentialsFile: v.GetString("firebaseCredentialsFile"),
		},
		OCR: OCRConfig{
			AadhaarURL:            v.GetString("aadhaarOcrUrl"),
			LeavingCertificateURL: v.GetString("leavingCertOcrUrl"),
			Timeout:               v.GetDuration("ocrTimeout"),
			HealthTimeout:         v.GetDuration("ocrHealthTimeout"),
		},
		SheetWebhookURL: v.GetString("sheetWebhookUrl"),
	}
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}
