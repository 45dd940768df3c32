package main

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// config is the optional yaml config file. Everything in it can also be set
// through flags or positional arguments, which take precedence.
type config struct {
	Defaults defaultsConfig `yaml:"defaults"`
}

type defaultsConfig struct {
	ProjectsDir string        `yaml:"projects_dir"`
	BackupDir   string        `yaml:"backup_dir"`
	RemoteName  string        `yaml:"remote_name"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	LogFile     string        `yaml:"log_file"`
	Excludes    []string      `yaml:"excludes"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

func parseConfigFile(path string) (*config, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := validateConfigYAML(yamlFile); err != nil {
		return nil, err
	}

	conf := &config{}
	if err := yaml.Unmarshal(yamlFile, conf); err != nil {
		return nil, err
	}

	return conf, nil
}

// validateConfigYAML rejects unexpected keys, a typo in the config file must
// not be silently ignored.
func validateConfigYAML(yamlData []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(yamlData, &raw); err != nil {
		return err
	}

	if _, ok := raw["defaults"]; !ok {
		return fmt.Errorf("defaults config section is missing")
	}

	allowedConfig := getAllowedKeys(config{})
	if key := findUnexpectedKey(raw, allowedConfig); key != "" {
		return fmt.Errorf("unexpected key: .%v", key)
	}

	defaultsMap, ok := raw["defaults"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("defaults section is not valid")
	}
	allowedDefaults := getAllowedKeys(defaultsConfig{})

	if key := findUnexpectedKey(defaultsMap, allowedDefaults); key != "" {
		return fmt.Errorf("unexpected key: .defaults.%v", key)
	}

	return nil
}

// getAllowedKeys retrieves a list of allowed keys from the specified struct
func getAllowedKeys(config interface{}) []string {
	var allowedKeys []string
	typ := reflect.TypeOf(config)

	for i := 0; i < typ.NumField(); i++ {
		yamlTag := typ.Field(i).Tag.Get("yaml")
		if yamlTag != "" {
			allowedKeys = append(allowedKeys, yamlTag)
		}
	}
	return allowedKeys
}

func findUnexpectedKey(raw interface{}, allowedKeys []string) string {
	for key := range raw.(map[string]interface{}) {
		if !slices.Contains(allowedKeys, key) {
			return key
		}
	}

	return ""
}
