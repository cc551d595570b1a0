package database_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/database"
)

// Example shows the fallback signal used to pick the bbolt snapshot store
func Example() {
	cfg := config.Default()

	_, err := database.New(context.Background(), cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		fmt.Println("no database url: snapshots go to", cfg.Storage.DataDir)
	}
	// Output: no database url: snapshots go to data
}
