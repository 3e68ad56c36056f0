//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/nvuppala/route-planner-service/internal/cache"
	"github.com/nvuppala/route-planner-service/internal/network"
	"github.com/nvuppala/route-planner-service/internal/service"
	"github.com/nvuppala/route-planner-service/internal/weather"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey        string
	APIURL        string
	DatasetPath   string
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("WEATHER_API_URL")
	if apiURL == "" {
		apiURL = "https://api.openweathermap.org/data/2.5/weather"
	}

	datasetPath := os.Getenv("DATASET_PATH")
	if datasetPath == "" {
		datasetPath = "../../config/network.yaml"
	}

	cacheBackend := os.Getenv("INTEGRATION_CACHE_BACKEND")
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		APIKey:        apiKey,
		APIURL:        apiURL,
		DatasetPath:   datasetPath,
		CacheBackend:  cacheBackend,
		MemcachedAddr: memcachedAddr,
	}
}

// SetupIntegrationService creates a routing service backed by the shipped
// network dataset and a real weather provider. Returns the routing service,
// the network, the provider, and a cleanup function.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.RoutingService, *network.RoadNetwork, weather.Provider, func()) {
	ds, err := network.LoadDataset(cfg.DatasetPath)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	net := network.New(ds)

	provider, err := weather.NewOpenWeatherProvider(
		cfg.APIKey, cfg.APIURL, 5*time.Second, 3, 100*time.Millisecond, 2*time.Second, 1)
	if err != nil {
		t.Fatalf("NewOpenWeatherProvider() error = %v", err)
	}

	var cacheSvc cache.Cache
	var cleanup func()

	if cfg.CacheBackend == "memcached" {
		memcachedCache, err := cache.NewMemcachedCache(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil {
			cacheSvc = memcachedCache
			cleanup = func() { memcachedCache.Close() }
			t.Logf("Using Memcached cache at %s", cfg.MemcachedAddr)
		} else {
			t.Logf("Memcached not available (%v), using in-memory cache", err)
			cacheSvc = cache.NewInMemoryCache()
			cleanup = func() {}
		}
	} else {
		cacheSvc = cache.NewInMemoryCache()
		cleanup = func() {}
	}

	routing := service.NewRoutingService(net, cacheSvc, cfg.CacheBackend, 5*time.Minute)
	return routing, net, provider, cleanup
}
