package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/annchain/badium/common/files"
	"github.com/annchain/badium/common/utilfuncs"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// readConfig merges {rootdir}/{configdir}/config.toml if present, then the
// environment. Importance order:
// 1, ENV (BADIUM_ prefix, dots become underscores)
// 2, config.toml
// 3, flags and defaults
func readConfig() {
	configDir := files.FixPrefixPath(rootDir(), viper.GetString("dir.config"))
	configPath := path.Join(configDir, "config.toml")
	if files.FileExists(configPath) {
		log.WithField("path", configPath).Info("merging local config file")
		mergeLocalConfig(configPath)
	} else {
		log.WithField("path", configPath).Info("no config file, using defaults")
	}

	mergeEnvConfig()
	// print running config in console.
	b, err := json.MarshalIndent(viper.AllSettings(), "", "    ")
	utilfuncs.PanicIfError(err, "dump json")
	log.Debug(string(b))
}

func mergeEnvConfig() {
	// env override
	viper.SetEnvPrefix("badium")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func writeConfig() {
	configPath := files.FixPrefixPath(rootDir(), path.Join(viper.GetString("dir.config"), "config_dump.toml"))
	if err := viper.WriteConfigAs(configPath); err != nil {
		log.WithError(err).Warn("failed to dump config")
	}
}

func mergeLocalConfig(configPath string) {
	absPath, err := filepath.Abs(configPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on parsing config file path: %s", absPath))

	file, err := os.Open(absPath)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on opening config file: %s", absPath))
	defer file.Close()

	viper.SetConfigType("toml")
	err = viper.MergeConfig(file)
	utilfuncs.PanicIfError(err, fmt.Sprintf("Error on reading config file: %s", absPath))
}
