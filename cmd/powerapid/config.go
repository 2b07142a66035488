package main

import (
	"time"

	"powerapi-backend/internal/powerapi"
	"powerapi-backend/internal/scrapers/powerschool"
	"powerapi-backend/internal/store"
)

type PortalConfig struct {
	ServerUrl         string  `json:"server_url"`
	ServiceUsername   string  `json:"service_username"`
	ServicePassword   string  `json:"service_password"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
}

func (c PortalConfig) options() powerschool.Options {
	return powerschool.Options{
		ServiceUsername:   c.ServiceUsername,
		ServicePassword:   c.ServicePassword,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
	}
}

type Config struct {
	Portal   PortalConfig           `json:"portal"`
	Database store.DatabaseConfig   `json:"database"`
	Accounts []powerapi.Credentials `json:"accounts"`
	// Schedule is a cron spec evaluated in America/Los_Angeles.
	Schedule          string `json:"schedule"`
	SessionTtlMinutes int    `json:"session_ttl_minutes"`
	Port              int    `json:"port"`
	AccessToken       string `json:"access_token"`
	SyncOnStart       bool   `json:"sync_on_start"`
}

func (c *Config) setDefaults() {
	if c.Schedule == "" {
		c.Schedule = "0 */2 * * *"
	}
	if c.SessionTtlMinutes <= 0 {
		c.SessionTtlMinutes = 15
	}
	if c.Port == 0 {
		c.Port = 8444
	}
}
