// internal/di/container_test.go
package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

func TestContainerRegisterAndResolve(t *testing.T) {
	c := NewContainer()
	c.Register(ServiceEngine, &greeter{name: "engine"})

	assert.True(t, c.Has(ServiceEngine))
	assert.False(t, c.Has(ServiceLLM))
	assert.Nil(t, c.Get(ServiceLLM))

	got, ok := Resolve[*greeter](c, ServiceEngine)
	assert.True(t, ok)
	assert.Equal(t, "engine", got.name)

	_, ok = Resolve[string](c, ServiceEngine)
	assert.False(t, ok)
}

func TestContainerKeepsRegistrationOrder(t *testing.T) {
	c := NewContainer()
	c.Register(ServiceReports, 1)
	c.Register(ServiceAnalyzer, 2)
	c.Register(ServiceMetrics, 3)
	c.Register(ServiceReports, 4)

	assert.Equal(t, []Name{ServiceReports, ServiceAnalyzer, ServiceMetrics}, c.GetNames())
	assert.Equal(t, 4, c.Get(ServiceReports))
}

func TestRequire(t *testing.T) {
	c := NewContainer()
	c.Register(ServiceEngine, &greeter{name: "engine"})

	got, err := Require[*greeter](c, ServiceEngine)
	require.NoError(t, err)
	assert.Equal(t, "engine", got.name)

	_, err = Require[*greeter](c, ServiceAnalyzer)
	assert.ErrorContains(t, err, `"analyzer" not registered`)

	_, err = Require[string](c, ServiceEngine)
	assert.ErrorContains(t, err, "*di.greeter")
}

func TestGetContainerIsSingleton(t *testing.T) {
	assert.Same(t, GetContainer(), GetContainer())
}
