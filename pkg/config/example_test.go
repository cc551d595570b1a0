package config_test

import (
	"fmt"
	"os"

	"github.com/wonny/covidwatch/pkg/config"
)

// Example layers COVIDWATCH_* variables over the defaults
func Example() {
	os.Setenv("COVIDWATCH_CACHE_TTL", "30m")
	os.Setenv("COVIDWATCH_REDIS_ENABLED", "true")
	defer os.Unsetenv("COVIDWATCH_CACHE_TTL")
	defer os.Unsetenv("COVIDWATCH_REDIS_ENABLED")

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Println("port:", cfg.Port)
	fmt.Println("cache ttl:", cfg.Cache.TTL)
	fmt.Println("redis:", cfg.Redis.Enabled, cfg.RedisAddr())
	fmt.Println("snapshots in postgres:", cfg.UsePostgres())
	// Output:
	// port: 5000
	// cache ttl: 30m0s
	// redis: true localhost:6379
	// snapshots in postgres: false
}
