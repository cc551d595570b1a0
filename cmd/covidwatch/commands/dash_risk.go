package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/internal/dashboard/risk"
	"github.com/wonny/covidwatch/internal/dashboard/vaccine"
)

var dashRiskCmd = &cobra.Command{
	Use:   "risk [name]",
	Short: "위험도 평가",
	Long: `위험 점수(0~10), 등급, 요인별 막대, 권고 사항을 출력합니다.
백신 접종률을 알 수 있으면 요인에 포함합니다.

Example:
  go run ./cmd/covidwatch dash risk Germany
  go run ./cmd/covidwatch dash risk Germany --retries 2`,
	Args: cobra.ExactArgs(1),
	RunE: runDashRisk,
}

var dashVaccineCmd = &cobra.Command{
	Use:   "vaccine [name]",
	Short: "백신 접종 현황",
	Long: `총 접종 수, 1회 이상 접종자, 완전 접종자, 접종 추이를 출력합니다.

Example:
  go run ./cmd/covidwatch dash vaccine Japan`,
	Args: cobra.ExactArgs(1),
	RunE: runDashVaccine,
}

var (
	riskRetries int
)

func init() {
	dashCmd.AddCommand(dashRiskCmd)
	dashCmd.AddCommand(dashVaccineCmd)

	dashRiskCmd.Flags().IntVar(&riskRetries, "retries", 0, "실패 시 재시도 횟수")
}

func (e *dashEnv) vaccines() *vaccine.Service {
	return vaccine.NewService(e.client, e.term, vaccine.NewCache(e.cfg.Cache.VaccineTTL), e.log)
}

func runDashRisk(cmd *cobra.Command, args []string) error {
	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	view := risk.NewView(env.client, env.term, env.log).
		WithCoverage(env.vaccines()).
		WithTimeout(env.cfg.Dashboard.LoadTimeout)

	err = view.Load(ctx, args[0])
	for i := 0; err != nil && i < riskRetries && ctx.Err() == nil; i++ {
		err = view.Retry(ctx)
	}
	return err
}

func runDashVaccine(cmd *cobra.Command, args []string) error {
	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	return env.vaccines().Lookup(ctx, args[0])
}
