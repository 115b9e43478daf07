package config

import "time"

// WeatherConfig holds the two public weather endpoints.
type WeatherConfig struct {
	OpenMeteoURL    string        `env:"OPEN_METEO_URL" yaml:"open_meteo_url" default:"https://api.open-meteo.com/v1/forecast"`
	NominatimURL    string        `env:"NOMINATIM_URL" yaml:"nominatim_url" default:"https://nominatim.openstreetmap.org/search"`
	GeocodeTimeout  time.Duration `env:"GEOCODE_TIMEOUT" yaml:"geocode_timeout" default:"10s"`
	ForecastTimeout time.Duration `env:"FORECAST_TIMEOUT" yaml:"forecast_timeout" default:"15s"`
}
