package cli

import (
	"errors"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "AGL"

// loadConfig layers settings for one invocation: flags over AGL_* env vars
// (optionally seeded from a dotenv file) over the config file.
//
// A fresh viper instance is built every time so repeated runs in one process
// never share state.
func loadConfig(cmd *cobra.Command) (*viper.Viper, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, invalidInvocationf("load env file %q: %v", envFile, err)
		}
	} else {
		// .env is optional.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, invalidInvocationf("read config %q: %v", cfgFile, err)
		}
		return v, nil
	}

	v.SetConfigName(".agl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, invalidInvocationf("read config: %v", err)
		}
	}
	return v, nil
}
