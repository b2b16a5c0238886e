package cli

import (
	"context"
	"testing"
	"time"

	"soapctl/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
		want string
	}{
		{"defaults", config.ServerConfig{}, "http://localhost:8095/mcp"},
		{"streamable-http", config.ServerConfig{Host: "10.0.0.5", Port: 9000, Transport: config.TransportStreamableHTTP}, "http://10.0.0.5:9000/mcp"},
		{"wildcard bind", config.ServerConfig{Host: "0.0.0.0", Port: 9000}, "http://localhost:9000/mcp"},
		{"sse", config.ServerConfig{Host: "localhost", Port: 8095, Transport: config.TransportSSE}, "http://localhost:8095/sse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Endpoint(tt.cfg))
		})
	}
}

func TestNewClient(t *testing.T) {
	c := NewClient(config.ServerConfig{Transport: config.TransportStdio})

	assert.Equal(t, "http://localhost:8095/mcp", c.Endpoint())
	assert.Equal(t, config.TransportStreamableHTTP, c.transport, "stdio servers are reached over streamable-http")
	assert.Equal(t, DefaultTimeout, c.timeout)

	c = NewClientWithEndpoint("http://localhost:8090/mcp").WithTimeout(time.Second)
	assert.Equal(t, "http://localhost:8090/mcp", c.Endpoint())
	assert.Equal(t, time.Second, c.timeout)
}

func TestClient_CallToolNotConnected(t *testing.T) {
	c := NewClientWithEndpoint("http://localhost:8090/mcp")

	_, err := c.CallTool(context.Background(), "soapui_run", nil)
	assert.EqualError(t, err, "client not connected")
}

func TestClient_Close(t *testing.T) {
	c := NewClientWithEndpoint("http://localhost:8090/mcp")

	assert.NotPanics(t, func() {
		assert.NoError(t, c.Close())
	})
}

func TestClient_Connect_InvalidEndpoint(t *testing.T) {
	c := NewClientWithEndpoint("invalid-endpoint")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}
