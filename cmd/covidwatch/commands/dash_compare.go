package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/internal/dashboard/compare"
)

var dashCompareCmd = &cobra.Command{
	Use:   "compare [countries...]",
	Short: "국가 비교",
	Long: `최대 5개국을 비교 테이블과 차트로 출력합니다.

Metrics:
  cases, deaths, recovered, active,
  casesPerOneMillion, deathsPerOneMillion, testsPerOneMillion

-i 모드 명령:
  add <name>      remove <name>
  metric <key>    list
  retry           quit

Example:
  go run ./cmd/covidwatch dash compare USA India
  go run ./cmd/covidwatch dash compare USA India --metric deathsPerOneMillion
  go run ./cmd/covidwatch dash compare -i`,
	RunE: runDashCompare,
}

var (
	compareMetric string
	compareLive   bool
)

func init() {
	dashCmd.AddCommand(dashCompareCmd)

	dashCompareCmd.Flags().StringVar(&compareMetric, "metric", string(compare.DefaultMetric), "차트 지표")
	dashCompareCmd.Flags().BoolVarP(&compareLive, "interactive", "i", false, "표준 입력으로 선택 변경")
}

func parseMetric(s string) (compare.Metric, error) {
	m := compare.Metric(s)
	if !m.Known() {
		names := make([]string, 0, len(compare.Metrics()))
		for _, k := range compare.Metrics() {
			names = append(names, string(k))
		}
		return "", fmt.Errorf("unknown metric %q (one of: %s)", s, strings.Join(names, ", "))
	}
	return m, nil
}

func runDashCompare(cmd *cobra.Command, args []string) error {
	metric, err := parseMetric(compareMetric)
	if err != nil {
		return err
	}
	if len(args) == 0 && !compareLive {
		return fmt.Errorf("at least one country is required")
	}

	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	sel := compare.NewSelector(env.client, env.term, env.term, env.log)
	defer sel.Teardown()
	sel.SetMetric(metric)

	// pairs go in with one request each, the way the two dropdowns do
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			sel.AddPair(ctx, args[i], args[i+1])
		} else {
			sel.Add(ctx, args[i])
		}
	}

	if !compareLive {
		return nil
	}

	out := cmd.ErrOrStderr()
	repl(ctx, cmd.InOrStdin(), out, "compare> ", func(verb, arg string) bool {
		switch verb {
		case "add":
			sel.Add(ctx, arg)
		case "remove", "rm":
			if !sel.Remove(ctx, arg) {
				fmt.Fprintf(out, "%s is not selected\n", arg)
			}
		case "metric":
			m, err := parseMetric(arg)
			if err != nil {
				fmt.Fprintln(out, err)
				break
			}
			sel.SetMetric(m)
		case "list":
			fmt.Fprintf(out, "%s (metric: %s)\n", strings.Join(sel.Selected(), ", "), sel.Metric().DisplayName())
		case "retry":
			if !env.term.Retry() {
				fmt.Fprintln(out, "nothing to retry")
			}
		default:
			fmt.Fprintf(out, "unknown command %q\n", verb)
		}
		return true
	})
	return nil
}
