package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_EmptyIdentitySettings(t *testing.T) {
	t.Setenv("PHONE_COUNTRY_CODES", "")
	t.Setenv("CUSTOMER_ELIGIBLE_ROLES", "")
	t.Setenv("CUSTOMER_LOOKUP_ROLES", "")

	cfg, err := Load("customer-service")
	require.NoError(t, err)

	assert.Equal(t, "customer-service", cfg.ServiceName)
	assert.Equal(t, "customer-service", cfg.Metrics.Prefix)
	assert.Empty(t, cfg.Identity.PhoneCountryCodes)
	assert.Equal(t, []string{"client"}, cfg.Identity.EligibleRoles)
	assert.Equal(t, []string{"owner", "admin", "manager", "staff"}, cfg.Identity.LookupRoles)
}

func TestLoad_IdentitySettings(t *testing.T) {
	t.Setenv("PHONE_COUNTRY_CODES", "1:10, 44:10")
	t.Setenv("CUSTOMER_ELIGIBLE_ROLES", "client, guest")
	t.Setenv("CUSTOMER_LOOKUP_ROLES", "manager")
	t.Setenv("DB_LOG_LEVEL", "silent")

	cfg, err := Load("customer-service")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"1": 10, "44": 10}, cfg.Identity.PhoneCountryCodes)
	assert.Equal(t, []string{"client", "guest"}, cfg.Identity.EligibleRoles)
	assert.Equal(t, []string{"manager"}, cfg.Identity.LookupRoles)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
}

func TestLoad_InvalidCountryCodes(t *testing.T) {
	t.Setenv("PHONE_COUNTRY_CODES", "1-10")

	_, err := Load("customer-service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PHONE_COUNTRY_CODES")
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}
