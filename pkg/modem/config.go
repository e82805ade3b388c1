package modem

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tarm/serial"
)

// Config provides options to open a Modem.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0.
	Device string
	// Baud is the line speed, the port is set to raw 8N1.
	Baud          int
	APN           string
	Timeout       time.Duration
	RetryInterval time.Duration
	GuardTime     time.Duration
	MaxRetries    int
	Echo          bool
}

var defaultConfig = Config{
	Device:        "/dev/ttyUSB0",
	Baud:          9600,
	APN:           "3g.ge",
	Timeout:       DefaultTimeout,
	RetryInterval: DefaultRetryInterval,
	GuardTime:     DefaultGuardTime,
	MaxRetries:    10,
	Echo:          true,
}

func init() {
	if val := os.Getenv("ROBO_MODEM_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("ROBO_MODEM_APN"); val != "" {
		defaultConfig.APN = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial device of the modem.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate of the serial device.")
	flag.StringVar(&defaultConfig.APN, "apn", defaultConfig.APN, "GPRS access point name.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Idle time ending a response.")
	flag.DurationVar(&defaultConfig.RetryInterval, "retry-interval", defaultConfig.RetryInterval, "Wait between retries.")
	flag.DurationVar(&defaultConfig.GuardTime, "guard-time", defaultConfig.GuardTime, "Guard time around +++ escape.")
	flag.IntVar(&defaultConfig.MaxRetries, "max-retries", defaultConfig.MaxRetries, "Max retries of a failing command, 0 for unlimited.")
	flag.BoolVar(&defaultConfig.Echo, "echo", defaultConfig.Echo, "Modem echoes commands (ATE1).")
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Apply applies the settings to a Modem.
func (c *Config) Apply(m *Modem) *Modem {
	m.Timeout = c.Timeout
	m.RetryInterval = c.RetryInterval
	m.GuardTime = c.GuardTime
	m.MaxRetries = c.MaxRetries
	m.Echo = c.Echo
	return m
}

// SerialConfig returns the settings of the serial port. Reads block
// until a byte arrives, the idle timeout is applied by Port.Recv.
func (c *Config) SerialConfig() *serial.Config {
	return &serial.Config{
		Name:     c.Device,
		Baud:     c.Baud,
		Size:     serial.DefaultSize,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	}
}

// Open opens the serial port in raw mode and creates a Modem.
func (c *Config) Open() (*Modem, error) {
	if c.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	port, err := serial.OpenPort(c.SerialConfig())
	if err != nil {
		return nil, fmt.Errorf("open modem device: %v", err)
	}
	return c.Apply(New(port)), nil
}
