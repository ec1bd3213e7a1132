package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var Logger *logrus.Entry

func setDefaults(v *viper.Viper) {
	v.SetDefault("bind", "127.0.0.1:6667")
	v.SetDefault("tlsdir", ".")
	v.SetDefault("servername", "matrixircd")
	v.SetDefault("matrix.polltimeout", 30)
	v.SetDefault("matrix.maxlinelength", 440)
	v.SetDefault("matrix.dedupsize", 0)
	v.SetDefault("matrix.logoutonquit", false)
	v.SetDefault("matrix.disableircemphasis", false)
	v.SetDefault("matrix.retrymin", time.Second)
	v.SetDefault("matrix.retrymax", 5*time.Minute)
}

// LoadConfig reads cfgfile when it is set, environment variables prefixed with
// MATRIXIRCD_ override it.
func LoadConfig(cfgfile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("matrixircd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	// use environment variables
	v.AutomaticEnv()

	if cfgfile == "" {
		return v, nil
	}

	v.SetConfigFile(cfgfile)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", cfgfile, err)
	}

	// reload config on file changes
	if runtime.GOOS != "illumos" {
		v.OnConfigChange(func(e fsnotify.Event) {
			if Logger != nil {
				Logger.Infof("config file %s changed, new sessions use the new settings", e.Name)
			}
		})
		v.WatchConfig()
	}

	return v, nil
}
