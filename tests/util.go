package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/auth"
)

// NewConfig returns a test configuration with deterministic values.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = false
	conf.SecretKey = []byte("test-secret-key")
	conf.BootstrapAdminEmail = "admin@gmail.com"
	conf.SecurityCode = "test-security-code"
	return conf
}

// NewValidator returns a validator/translator pair with all custom
// validators registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	enLoc := en.New()
	translator, _ := ut.New(enLoc, enLoc).GetTranslator("en")
	core.InitValidators(validate, translator)
	auth.InitValidators(validate, translator)
	return validate, translator
}

// Logger is a core.Logger that records messages and forwards them to the
// test log.
type Logger struct {
	t  *testing.T
	mu sync.Mutex

	Errors []string
	Warns  []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger(t *testing.T) *Logger {
	return &Logger{t: t}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.t.Helper()
	l.t.Logf("%s: %s %v", level, msg, args)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	l.Warns = append(l.Warns, msg)
	l.mu.Unlock()
	l.log("WARN", msg, args)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	l.Errors = append(l.Errors, msg)
	l.mu.Unlock()
	l.log("ERROR", msg, args)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.t.Fatal(fmt.Sprintf("%s %v", msg, args))
}

// NopLogger discards everything. For use in TestMain where no *testing.T
// exists yet.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
