package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSMS() App {
	return App{
		StoreBackend:     "postgres",
		QueueBackend:     "redis",
		SMSEnabled:       true,
		SMSAPIURL:        "https://gateway.example.com",
		SMSAPIKey:        "key",
		SMSSenderID:      "SCHOOL",
		SMSTemplateEntry: "tmpl-entry",
		SMSTemplateExit:  "tmpl-exit",
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := Load()
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConnectionKnobDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, time.Hour, cfg.DBConnLifetime)
	assert.Equal(t, time.Second, cfg.RedisTimeout)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.Equal(t, 30, cfg.RateLimitBurst)
}

func TestValidate_SMSDisabledNeedsNoKeys(t *testing.T) {
	cfg := App{StoreBackend: "memory", QueueBackend: "memory"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_SMSEnabledRequiresEveryKey(t *testing.T) {
	require.NoError(t, validSMS().Validate())

	for name, mutate := range map[string]func(*App){
		"SMS_API_URL":        func(a *App) { a.SMSAPIURL = "" },
		"SMS_API_KEY":        func(a *App) { a.SMSAPIKey = "" },
		"SMS_SENDER_ID":      func(a *App) { a.SMSSenderID = "" },
		"SMS_TEMPLATE_ENTRY": func(a *App) { a.SMSTemplateEntry = "" },
		"SMS_TEMPLATE_EXIT":  func(a *App) { a.SMSTemplateExit = "" },
	} {
		cfg := validSMS()
		mutate(&cfg)
		err := cfg.Validate()
		require.Error(t, err, "missing %s must fail startup", name)
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidate_AbsentTemplateIsOptional(t *testing.T) {
	cfg := validSMS()
	cfg.SMSTemplateAbsent = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsUnknownBackends(t *testing.T) {
	cfg := App{StoreBackend: "dynamo", QueueBackend: "redis"}
	assert.Error(t, cfg.Validate())

	cfg = App{StoreBackend: "postgres", QueueBackend: "kafka"}
	assert.Error(t, cfg.Validate())
}
