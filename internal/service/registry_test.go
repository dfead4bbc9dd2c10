package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relayline/relayline/internal/service"
)

func TestRegistry_RecordAndGet(t *testing.T) {
	reg := service.NewRegistry()

	_, ok := reg.Get("postgres")
	assert.False(t, ok)

	reg.Record(service.Status{Name: "postgres", Available: true, LastCheck: time.Now()})

	got, ok := reg.Get("postgres")
	assert.True(t, ok)
	assert.True(t, got.Available)
	assert.True(t, reg.IsAvailable("postgres"))
}

func TestRegistry_RecordOverwrites(t *testing.T) {
	reg := service.NewRegistry()

	reg.Record(service.Status{Name: "redis", Available: true})
	reg.Record(service.Status{Name: "redis", Available: false, Error: "connection refused"})

	got, ok := reg.Get("redis")
	assert.True(t, ok)
	assert.False(t, got.Available)
	assert.Equal(t, "connection refused", got.Error)
	assert.False(t, reg.IsAvailable("redis"))
}

func TestRegistry_IsAvailable_Unknown(t *testing.T) {
	reg := service.NewRegistry()
	assert.False(t, reg.IsAvailable("nonexistent"))
}

func TestRegistry_AllReturnsCopy(t *testing.T) {
	reg := service.NewRegistry()
	reg.Record(service.Status{Name: "sqlite", Available: true})

	all := reg.All()
	all["sqlite"] = service.Status{Name: "sqlite", Available: false}

	got, _ := reg.Get("sqlite")
	assert.True(t, got.Available, "mutating the snapshot must not touch the registry")
}

func TestConnectionTarget_Name(t *testing.T) {
	target := service.ConnectionTarget{
		Role:           service.RoleDatabase,
		Implementation: service.ImplPostgres,
	}
	assert.Equal(t, "postgres", target.Name())
}
