package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays AUTHKEEPER_* variables. Unset variables leave the
// current value alone. Durations take time.ParseDuration syntax ("90s",
// "1h"); a bare integer is read as minutes, like the command-line flags.
func parseEnv(config *Config) error {
	opts := env.Options{
		Prefix: EnvPrefix,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): parseMinutesOrDuration,
		},
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func parseMinutesOrDuration(v string) (any, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return nil, fmt.Errorf("duration %q: want minutes or a unit suffix such as 90s", v)
	}
	return d, nil
}
