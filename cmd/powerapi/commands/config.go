package commands

import (
	"fmt"
	"os"
	"time"

	"powerapi-backend/internal/components/chrono"
	"powerapi-backend/internal/components/telemetry"
	"powerapi-backend/internal/powerapi"
	"powerapi-backend/internal/scrapers/powerschool"
	"powerapi-backend/lib/configutil"
	"powerapi-backend/lib/restyutil"
)

type Config struct {
	ServerUrl       string `json:"server_url"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ServiceUsername string `json:"service_username"`
	ServicePassword string `json:"service_password"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

// loadConfig reads powerapi.json5 from the working directory or any of its
// parents. POWERAPI_PASSWORD overrides the password so it can be left out of
// the file.
func loadConfig() (Config, error) {
	config, err := configutil.ReadRecursively[Config]("powerapi.json5")
	if err != nil {
		return Config{}, fmt.Errorf("read powerapi.json5: %w", err)
	}
	password, ok := os.LookupEnv("POWERAPI_PASSWORD")
	if ok {
		config.Password = password
	}
	if config.ServerUrl == "" || config.Username == "" {
		return Config{}, fmt.Errorf("powerapi.json5 must specify server_url and username")
	}
	return config, nil
}

func newAPI(config Config, dumpHttp string) (powerapi.API, error) {
	options := powerschool.Options{
		ServiceUsername: config.ServiceUsername,
		ServicePassword: config.ServicePassword,
		Timeout:         time.Duration(config.TimeoutSeconds) * time.Second,
	}
	if dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHttp)
		if err != nil {
			return powerapi.API{}, err
		}
		options.Instrument = output
	}

	tel := telemetry.SlogAPI{}
	clock := chrono.NewStandardTime()
	client, err := powerschool.NewClient(config.ServerUrl, options, tel, clock)
	if err != nil {
		return powerapi.API{}, err
	}
	return powerapi.NewAPI(client, tel, clock), nil
}
