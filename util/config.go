package util

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"strconv"
)

const Name = "banbridge"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host              string
		HttpPort          int    `yaml:"httpPort"`
		SqlitePath        string `yaml:"sqlitePath"`
		ServerName        string `yaml:"serverName"`
		AuthEnabled       bool   `yaml:"authEnabled"`
		AuthToken         string `yaml:"authToken"`
		BanChangesMaxRows int    `yaml:"banChangesMaxRows"`
		WithJournald      bool   `yaml:"withJournald"`
	}
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	// Try to read from resolved path
	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		// Try to write default config to user config directory
		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	applyEnvOverrides(c)

	if c.Conf.Host == "" {
		c.Conf.Host = "0.0.0.0"
	}

	if c.Conf.HttpPort == 0 {
		c.Conf.HttpPort = 8080
	}

	if c.Conf.SqlitePath == "" {
		c.Conf.SqlitePath = ResolveFilePath(Name + ".sqlite")
	}

	if c.Conf.ServerName == "" {
		c.Conf.ServerName = "MyServer"
	}

	// Page size for the incremental ban change feed. A remote server that
	// fell far behind pages through the backlog in chunks of this size.
	if c.Conf.BanChangesMaxRows < 1 {
		c.Conf.BanChangesMaxRows = 500
	} else if c.Conf.BanChangesMaxRows > 2000 {
		log.Printf("banChangesMaxRows value %d exceeds maximum of 2000, capping at 2000", c.Conf.BanChangesMaxRows)
		c.Conf.BanChangesMaxRows = 2000
	}

	if c.Conf.AuthEnabled && c.Conf.AuthToken == "" {
		log.Printf("Warning: authEnabled is set but authToken is empty, all server API calls will be rejected")
	}

	return c, nil
}

func applyEnvOverrides(c *AppConfig) {
	envHost := os.Getenv("BANBRIDGE_HOST")
	envHttpPort := os.Getenv("BANBRIDGE_HTTPPORT")
	envSqlitePath := os.Getenv("BANBRIDGE_SQLITE_PATH")
	envServerName := os.Getenv("BANBRIDGE_SERVER_NAME")
	envAuthEnabled := os.Getenv("BANBRIDGE_AUTH_ENABLED")
	envAuthToken := os.Getenv("BANBRIDGE_AUTH_TOKEN")
	envBanChangesMaxRows := os.Getenv("BANBRIDGE_BAN_CHANGES_MAX_ROWS")
	envWithJournald := os.Getenv("BANBRIDGE_WITH_JOURNALD")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			log.Printf("Error parsing BANBRIDGE_HTTPPORT: %v", err)
		} else {
			c.Conf.HttpPort = v
		}
	}

	if envSqlitePath != "" {
		c.Conf.SqlitePath = envSqlitePath
	}

	if envServerName != "" {
		c.Conf.ServerName = envServerName
	}

	if envAuthEnabled == "true" {
		c.Conf.AuthEnabled = true
	} else if envAuthEnabled == "false" {
		c.Conf.AuthEnabled = false
	}

	if envAuthToken != "" {
		c.Conf.AuthToken = envAuthToken
	}

	if envBanChangesMaxRows != "" {
		v, err := strconv.Atoi(envBanChangesMaxRows)
		if err != nil {
			log.Printf("Error parsing BANBRIDGE_BAN_CHANGES_MAX_ROWS: %v", err)
		} else {
			c.Conf.BanChangesMaxRows = v
		}
	}

	if envWithJournald == "true" {
		c.Conf.WithJournald = true
	}
}
