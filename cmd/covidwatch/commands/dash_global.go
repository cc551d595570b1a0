package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/internal/dashboard/overview"
	"github.com/wonny/covidwatch/internal/stream"
)

var dashGlobalCmd = &cobra.Command{
	Use:   "global",
	Short: "전세계 현황",
	Long: `전세계 합계, 지도 마커, 상위 국가 테이블, 추이 차트를 출력합니다.

Example:
  go run ./cmd/covidwatch dash global
  go run ./cmd/covidwatch dash global --days 90 --top 20`,
	Args: cobra.NoArgs,
	RunE: runDashGlobal,
}

var dashWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "갱신 이벤트 구독",
	Long: `/ws 에 연결해 서버가 데이터를 갱신할 때마다 전세계 현황을 다시 출력합니다.
연결이 끊기면 지수 백오프로 재연결합니다. Ctrl+C로 종료.

Example:
  go run ./cmd/covidwatch dash watch`,
	Args: cobra.NoArgs,
	RunE: runDashWatch,
}

var (
	globalDays int
	globalTop  int
)

func init() {
	dashCmd.AddCommand(dashGlobalCmd)
	dashCmd.AddCommand(dashWatchCmd)

	dashGlobalCmd.Flags().IntVar(&globalDays, "days", overview.DefaultDays, "추이 기간 (일)")
	dashGlobalCmd.Flags().IntVar(&globalTop, "top", overview.DefaultTopN, "상위 국가 수")
}

func runDashGlobal(cmd *cobra.Command, args []string) error {
	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	return overview.New(env.client, env.term, env.log).
		WithTopN(globalTop).
		WithDays(globalDays).
		Load(ctx)
}

func runDashWatch(cmd *cobra.Command, args []string) error {
	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	wsURL, err := stream.URLFor(env.client.BaseURL())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	show := func() {
		g, err := env.client.Global(ctx)
		if err != nil {
			env.term.ShowError(overview.MsgGlobalFailed, nil)
			return
		}
		env.term.RenderGlobal(overview.GlobalPanel(g))
	}

	show()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", wsURL)

	err = stream.Watch(ctx, wsURL, env.log, func(ev stream.Event) {
		if ev.Type != "refresh" {
			return
		}
		env.log.WithField("countries", ev.Countries).Debug("Refresh event received")
		show()
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}
