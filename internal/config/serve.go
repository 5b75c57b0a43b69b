package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig adds the HTTP listener settings to Config.
type ServeConfig struct {
	Config
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ShutdownGrace time.Duration
}

// LoadServe loads Config plus the serve-only keys.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ServeConfig{}, err
	}
	v.SetDefault("addr", ":8080")
	v.SetDefault("read-timeout", 15*time.Second)
	v.SetDefault("shutdown-grace", 10*time.Second)

	base, err := fromViper(v)
	if err != nil {
		return ServeConfig{}, err
	}
	cfg := ServeConfig{
		Config:        base,
		Addr:          v.GetString("addr"),
		ReadTimeout:   v.GetDuration("read-timeout"),
		WriteTimeout:  v.GetDuration("write-timeout"),
		ShutdownGrace: v.GetDuration("shutdown-grace"),
	}
	if cfg.Addr == "" {
		return ServeConfig{}, fmt.Errorf("addr is required")
	}
	// Swaps block on settlement, so responses may take up to the swap timeout.
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = base.SwapTimeout + 30*time.Second
	}
	return cfg, nil
}
