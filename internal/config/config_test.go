package config

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "SERVICE_NAME", "JWT_SECRET", "LOCK_WAIT"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "preorder-api", cfg.ServiceName)
	assert.Equal(t, 3*time.Second, cfg.LockWait)
	assert.NotEmpty(t, cfg.PostgresDSN)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("LOCK_WAIT", "250ms")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 250*time.Millisecond, cfg.LockWait)
}

func TestGetdur_fallsBackOnBadValues(t *testing.T) {
	t.Setenv("LOCK_WAIT", "soon")
	assert.Equal(t, 3*time.Second, Load().LockWait)

	t.Setenv("LOCK_WAIT", "-5s")
	assert.Equal(t, 3*time.Second, Load().LockWait)
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a:9092", []string{"a:9092"}},
		{"a:9092,b:9092", []string{"a:9092", "b:9092"}},
		{" a:9092 , b:9092 ", []string{"a:9092", "b:9092"}},
		{",,", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitCSV(tt.in), "splitCSV(%q)", tt.in)
	}
}
