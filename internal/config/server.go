package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "PRFAQ_SERVER_HOST"
	EnvServerPort              = "PRFAQ_SERVER_PORT"
	EnvServerReadHeaderTimeout = "PRFAQ_SERVER_READ_HEADER_TIMEOUT"
	EnvServerReadTimeout       = "PRFAQ_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout      = "PRFAQ_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "PRFAQ_SERVER_IDLE_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. Graceful shutdown is bounded
// by the top-level shutdown_timeout.
//
// WriteTimeout bounds blocking generate and modify calls, so it must not be
// shorter than workflow.run_timeout. Streamed runs clear their write
// deadline and are unaffected. A zero duration disables the timeout.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	ReadTimeout       string `toml:"read_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return mustDuration(c.IdleTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range []struct{ dst, src *string }{
		{&c.ReadHeaderTimeout, &overlay.ReadHeaderTimeout},
		{&c.ReadTimeout, &overlay.ReadTimeout},
		{&c.WriteTimeout, &overlay.WriteTimeout},
		{&c.IdleTimeout, &overlay.IdleTimeout},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

func (c *ServerConfig) timeouts() []struct {
	name, env, def string
	value          *string
} {
	return []struct {
		name, env, def string
		value          *string
	}{
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout},
		{"read_timeout", EnvServerReadTimeout, "1m", &c.ReadTimeout},
		{"write_timeout", EnvServerWriteTimeout, "16m", &c.WriteTimeout},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout},
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, t := range c.timeouts() {
		if *t.value == "" {
			*t.value = t.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	for _, t := range c.timeouts() {
		if v := os.Getenv(t.env); v != "" {
			*t.value = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, t := range c.timeouts() {
		d, err := time.ParseDuration(*t.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", t.name, err)
		}
		if d < 0 {
			return fmt.Errorf("invalid %s: must not be negative", t.name)
		}
	}
	return nil
}

// checkWriteTimeout rejects a write timeout that would cut off a blocking
// run before the run's own deadline.
func (c *ServerConfig) checkWriteTimeout(run time.Duration) error {
	w := c.WriteTimeoutDuration()
	if w > 0 && run > 0 && w < run {
		return fmt.Errorf("write_timeout %s is shorter than workflow run_timeout %s", w, run)
	}
	return nil
}

func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
