package consul

import (
	"fmt"

	"github.com/google/uuid"
	consulapi "github.com/hashicorp/consul/api"
)

// NewClient builds a consul client for the given agent address.
func NewClient(addr string) (*consulapi.Client, error) {
	cfg := consulapi.DefaultConfig()
	cfg.Address = addr
	client, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers this instance with an HTTP health check on /ping
// and returns the registration id for deregistration at shutdown.
func RegisterService(client *consulapi.Client, name, address string, port int) (string, error) {
	id := fmt.Sprintf("%s-%s", name, uuid.NewString())
	registration := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: address,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", address, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return "", fmt.Errorf("failed to register service with consul: %w", err)
	}
	return id, nil
}

// DeregisterService removes the registration created by RegisterService.
func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}
