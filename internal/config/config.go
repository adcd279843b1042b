package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/dewkd/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultInterval = 10
	DefaultLogLevel = "info"

	defaultSerialPort   = "/dev/ttyUSB0"
	defaultBaudRate     = 9600
	defaultReadTimeout  = 60   // seconds
	defaultSettleDelay  = 1000 // milliseconds
	defaultDatabaseName = "fluke_1620a"
	defaultDatabasePort = 5432
	defaultDatabaseUser = "postgres"
	defaultSensor1Label = "Sensor A"
	defaultSensor2Label = "Sensor B"
)

type SerialConfig struct {
	Port string
	Baud int
	// Timeout is the read timeout in seconds.
	Timeout int
	// Settle is the post-command settle delay in milliseconds.
	Settle int
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	// Path is the database file, sqlite3 driver only.
	Path string
}

type FileConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

type SensorsConfig struct {
	Name1 string `mapstructure:"name_1"`
	Name2 string `mapstructure:"name_2"`
}

type Config struct {
	// Interval is the pause between acquisition cycles in seconds.
	Interval int
	LogLevel string `mapstructure:"log_level"`
	Serial   SerialConfig
	Database DatabaseConfig
	File     FileConfig
	Sensors  SensorsConfig
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration from /etc/dewkd.toml (overridable via the
// DEWKD_CONFIG environment variable or --config flag), the DEWKD_*
// environment and command-line flags, in increasing precedence.
func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("dewkd", pflag.ContinueOnError)
	configPath := flags.String("config", "", "Path to config file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Int("interval", 0, "Seconds between acquisition cycles")
	flags.String("port", "", "Serial device")
	flags.String("data-dir", "", "Directory for daily CSV files")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	v.SetConfigName("dewkd")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")

	if path := os.Getenv("DEWKD_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}
	if *configPath != "" {
		v.SetConfigFile(*configPath)
	}

	v.SetEnvPrefix("DEWKD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Flags that were set on the command line override file and env
	// values.
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level":
			v.Set("log_level", f.Value.String())
		case "interval":
			v.Set("interval", f.Value.String())
		case "port":
			v.Set("serial.port", f.Value.String())
		case "data-dir":
			v.Set("file.data_dir", f.Value.String())
		}
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if !validLogLevels[c.LogLevel] {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Serial.Port == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "serial port is required")
	}
	if c.Serial.Baud <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "baud rate must be positive")
	}
	if c.Serial.Timeout <= 0 || c.Serial.Settle < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "invalid serial timing")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("serial.port", defaultSerialPort)
	v.SetDefault("serial.baud", defaultBaudRate)
	v.SetDefault("serial.timeout", defaultReadTimeout)
	v.SetDefault("serial.settle", defaultSettleDelay)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", defaultDatabasePort)
	v.SetDefault("database.name", defaultDatabaseName)
	v.SetDefault("database.user", defaultDatabaseUser)
	v.SetDefault("database.password", "")
	v.SetDefault("database.path", "")
	v.SetDefault("file.data_dir", ".")
	v.SetDefault("sensors.name_1", defaultSensor1Label)
	v.SetDefault("sensors.name_2", defaultSensor2Label)
}
