package site

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/tsoniclang/tsumo/pkg/netcache"
)

// LoadRemoteData fetches each configured data source and decodes it
// into Site.Data under its configured key. Documents are decoded as
// YAML, which also covers JSON payloads. Sources come from the
// dataSources map in the site config.
func LoadRemoteData(ctx context.Context, s *Site, sources map[string]string, cacheDir string) error {
	if len(sources) == 0 {
		return nil
	}
	cache := netcache.New(cacheDir)
	for key, url := range sources {
		body, fromCache, err := cache.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("data source %s: %w", key, err)
		}
		var doc any
		if err := yaml.Unmarshal(body, &doc); err != nil {
			return fmt.Errorf("decoding data source %s: %w", key, err)
		}
		s.Data[key] = doc
		slog.Debug("loaded remote data", "key", key, "url", url, "cached", fromCache)
	}
	return nil
}
