package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 3100
	DefaultAckDelay     = 100 * time.Millisecond
	DefaultResultTTL    = 10 * time.Minute
	DefaultWriteTimeout = 5 * time.Second
)

// Options configures the bridge. Fields are bound to command line flags and
// can also come from a YAML file.
type Options struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	CatalogPath  string        `yaml:"catalog"`
	Watch        bool          `yaml:"watch"`
	AckDelay     time.Duration `yaml:"ackDelay"`
	ResultTTL    time.Duration `yaml:"resultTTL"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	Exec         string        `yaml:"exec"`
	MCP          bool          `yaml:"mcp"`
	LogCalls     bool          `yaml:"logCalls"`
	Interceptors []string      `yaml:"interceptors"`
	Verbose      bool          `yaml:"verbose"`
	DryRun       bool          `yaml:"dryRun"`
	Daemon       bool          `yaml:"daemon"`
	PidFile      string        `yaml:"pidFile"`
	LogFile      string        `yaml:"logFile"`
}

func Defaults() Options {
	return Options{
		Host:         DefaultHost,
		Port:         DefaultPort,
		AckDelay:     DefaultAckDelay,
		ResultTTL:    DefaultResultTTL,
		WriteTimeout: DefaultWriteTimeout,
		MCP:          true,
		PidFile:      "project-graph-mcp.pid",
		LogFile:      "project-graph-mcp.log",
	}
}

// Address is the host:port the server binds.
func (o Options) Address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o Options) Validate() error {
	var errs []error

	if o.Port < 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", o.Port))
	}
	if o.AckDelay < 0 {
		errs = append(errs, fmt.Errorf("ack delay %s is negative", o.AckDelay))
	}
	if o.ResultTTL <= 0 {
		errs = append(errs, fmt.Errorf("result TTL %s must be positive", o.ResultTTL))
	}
	if o.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write timeout %s must be positive", o.WriteTimeout))
	}
	if o.Watch && o.CatalogPath == "" {
		errs = append(errs, errors.New("--watch needs a --catalog file"))
	}

	return errors.Join(errs...)
}
