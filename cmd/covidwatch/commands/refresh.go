package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/pkg/metrics"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "데이터 1회 갱신",
	Long: `disease.sh 에서 global/countries 데이터를 받아 캐시와 스냅샷에 저장합니다.

서버 없이 스냅샷 백업을 채울 때 사용합니다.

Example:
  go run ./cmd/covidwatch refresh
  go run ./cmd/covidwatch refresh --prune`,
	RunE: runRefresh,
}

var (
	refreshPrune   bool
	refreshTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshPrune, "prune", false, "보존 기간이 지난 스냅샷 삭제")
	refreshCmd.Flags().DurationVar(&refreshTimeout, "timeout", 2*time.Minute, "전체 제한 시간")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	PrintHeader(out, "covidwatch Refresh")

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), refreshTimeout)
	defer cancel()

	b, err := openBackend(ctx, cfg, log, metrics.NewManager(metrics.WithMetricsEnabled(false)))
	if err != nil {
		return err
	}
	defer b.Close()

	start := time.Now()
	if err := b.svc.Refresh(ctx); err != nil {
		PrintWarning(out, "Refresh failed")
		return fmt.Errorf("refresh: %w", err)
	}

	status := b.svc.Status()
	PrintSuccess(out, fmt.Sprintf("Refreshed in %.2fs (cache: %s)", time.Since(start).Seconds(), status.Cache.Backend))

	if refreshPrune {
		pruned, err := b.svc.PruneSnapshots(ctx, cfg.Storage.Retention)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		fmt.Fprintf(out, "Pruned %d snapshot(s) older than %s\n", pruned, cfg.Storage.Retention)
	}

	PrintSeparator(out)
	return nil
}
