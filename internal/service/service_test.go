package service

import (
	"testing"
	"time"

	"github.com/moviezone/linkgate/internal/config"
	"github.com/moviezone/linkgate/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			BaseURL: "http://sho.rt",
		},
		Gate: config.GateConfig{
			CodeLength:    6,
			AllocAttempts: 10,
			SessionTTL:    5 * time.Minute,
		},
	}
}

// newTestService wires a Service onto one MemoryStore acting as store,
// resolution cache and view counter at once.
func newTestService(t *testing.T) (*Service, *repository.MemoryStore) {
	t.Helper()
	mem := repository.NewMemoryStore()
	return NewService(mem, mem, mem, testConfig()), mem
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }
