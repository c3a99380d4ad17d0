package pubsub

import "time"

// Option configures Relay.
type Option func(*Config)

// Config holds relay configuration.
type Config struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	PoolTimeout time.Duration
	Channel     string
	Origin      string
}

// WithAddr sets the Redis host:port.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithPassword sets Redis password.
func WithPassword(password string) Option {
	return func(c *Config) {
		c.Password = password
	}
}

// WithDB sets Redis database number.
func WithDB(db int) Option {
	return func(c *Config) {
		c.DB = db
	}
}

// WithPool sets connection pool settings.
func WithPool(size int, timeout time.Duration) Option {
	return func(c *Config) {
		c.PoolSize = size
		c.PoolTimeout = timeout
	}
}

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(c *Config) {
		c.Channel = channel
	}
}

// WithOrigin names this replica. Messages it published are not delivered
// back to it.
func WithOrigin(origin string) Option {
	return func(c *Config) {
		c.Origin = origin
	}
}
