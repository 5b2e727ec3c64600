// internal/di/container.go
package di

import (
	"fmt"
	"sync"
)

// Name 标识容器里的一个服务
type Name string

const (
	ServiceEngine   Name = "engine"
	ServiceLLM      Name = "llm"
	ServiceAnalyzer Name = "analyzer"
	ServiceReports  Name = "reports"
	ServiceMetrics  Name = "metrics"
)

// Container 保存启动时组装好的服务实例
type Container struct {
	mu       sync.RWMutex
	services map[Name]interface{}
	order    []Name
}

var (
	globalContainer *Container
	once            sync.Once
)

func NewContainer() *Container {
	return &Container{services: make(map[Name]interface{})}
}

// GetContainer 返回进程级容器
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register 注册或替换服务；替换不改变注册顺序
func (c *Container) Register(name Name, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.services[name]; !exists {
		c.order = append(c.order, name)
	}
	c.services[name] = service
}

// Get returns nil for unknown names.
func (c *Container) Get(name Name) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[name]
}

func (c *Container) Has(name Name) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[name]
	return exists
}

// GetNames 按注册顺序返回服务名
func (c *Container) GetNames() []Name {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]Name, len(c.order))
	copy(names, c.order)
	return names
}

// Resolve 按类型取出服务；未注册或类型不符时 ok 为 false
func Resolve[T any](c *Container, name Name) (T, bool) {
	service, ok := c.Get(name).(T)
	return service, ok
}

// Require is Resolve for services the caller cannot run without.
func Require[T any](c *Container, name Name) (T, error) {
	service, ok := Resolve[T](c, name)
	if !ok {
		var zero T
		if !c.Has(name) {
			return zero, fmt.Errorf("di: service %q not registered", name)
		}
		return zero, fmt.Errorf("di: service %q is %T, want %T", name, c.Get(name), zero)
	}
	return service, nil
}
