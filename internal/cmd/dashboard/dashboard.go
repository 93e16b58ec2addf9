// Package dashboard parses dashboard service flags and launches the
// service.
package dashboard

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/devatlas/devatlas/internal/platform/cmd"
	"github.com/devatlas/devatlas/internal/services/dashboard"
)

// Config holds dashboard command configuration.
type Config struct {
	Port          int    `env:"DEVATLAS_PORT" envDefault:"8080"`
	GeoPath       string `env:"DEVATLAS_GEO_PATH" envDefault:"data/provinces.geojson"`
	IndicatorPath string `env:"DEVATLAS_INDICATOR_PATH" envDefault:"data/indicators.xlsx"`
	CatalogPath   string `env:"DEVATLAS_CATALOG_PATH" envDefault:"devatlas.db"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The dashboard HTTP server port")
	fs.StringVar(&cfg.GeoPath, "geo", cfg.GeoPath, "Path to the province boundary GeoJSON file")
	fs.StringVar(&cfg.IndicatorPath, "indicators", cfg.IndicatorPath, "Path to the indicator workbook (xlsx)")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Path to the upload catalog database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the dashboard HTTP service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDashboard, func(ctx context.Context) error {
		server, err := dashboard.NewServer(ctx, dashboard.Config{
			HTTPAddr:      fmt.Sprintf(":%d", cfg.Port),
			GeoPath:       cfg.GeoPath,
			IndicatorPath: cfg.IndicatorPath,
			CatalogPath:   cfg.CatalogPath,
		})
		if err != nil {
			return err
		}
		defer server.Close()
		return server.ListenAndServe(ctx)
	})
}
