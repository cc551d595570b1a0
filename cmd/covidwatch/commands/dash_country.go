package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/internal/dashboard/search"
	"github.com/wonny/covidwatch/internal/dashboard/vaccine"
	"github.com/wonny/covidwatch/internal/tracker"
)

var dashCountryCmd = &cobra.Command{
	Use:   "country [name]",
	Short: "국가 상세",
	Long: `국가 → 과거 추이 → 위험도 순서로 조회합니다.
추이나 위험도 조회가 실패하면 나머지 정보만 출력합니다.

Example:
  go run ./cmd/covidwatch dash country "S. Korea" --days 60`,
	Args: cobra.ExactArgs(1),
	RunE: runDashCountry,
}

var dashSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "국가명 검색",
	Long: `국가명을 부분 일치로 검색합니다.

-i 모드에서는 한 줄이 하나의 입력 값이며,
"open <name>" 으로 국가 상세를 엽니다.

Presets:
  country  - 1글자 이상, 최대 7개
  risk     - 2글자 이상, 최대 5개
  vaccine  - 1글자 이상, 최대 5개 (입력 debounce)

Example:
  go run ./cmd/covidwatch dash search kor
  go run ./cmd/covidwatch dash search --preset vaccine -i`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDashSearch,
}

var dashExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "CSV 다운로드",
	Long: `국가 데이터를 CSV 파일로 저장합니다.

Example:
  go run ./cmd/covidwatch dash export USA
  go run ./cmd/covidwatch dash export USA -o -`,
	Args: cobra.ExactArgs(1),
	RunE: runDashExport,
}

var (
	countryDays   int
	searchPreset  string
	searchLive    bool
	exportOutFile string
)

var presets = map[string]search.Preset{
	"country": search.CountrySearch,
	"risk":    search.RiskSearch,
	"vaccine": search.VaccineSearch,
}

func init() {
	dashCmd.AddCommand(dashCountryCmd)
	dashCmd.AddCommand(dashSearchCmd)
	dashCmd.AddCommand(dashExportCmd)

	dashCountryCmd.Flags().IntVar(&countryDays, "days", 0, "추이 기간 (일, 0 = 서버 기본값)")
	dashSearchCmd.Flags().StringVar(&searchPreset, "preset", "country", "country | risk | vaccine")
	dashSearchCmd.Flags().BoolVarP(&searchLive, "interactive", "i", false, "표준 입력을 검색어로 사용")
	dashExportCmd.Flags().StringVarP(&exportOutFile, "output", "o", "", "출력 파일 (default: {name}_covid_data.csv, - = stdout)")
}

func runDashCountry(cmd *cobra.Command, args []string) error {
	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	outcome, err := search.NewDetail(env.client, env.term, env.log).
		WithDays(countryDays).
		Load(ctx, args[0])
	if err != nil {
		return err
	}
	if outcome != search.Complete {
		env.log.WithField("outcome", outcome.String()).Debug("Country shown partially")
	}
	return nil
}

func runDashSearch(cmd *cobra.Command, args []string) error {
	preset, ok := presets[searchPreset]
	if !ok {
		return fmt.Errorf("unknown preset %q", searchPreset)
	}

	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	countries, err := env.client.Countries(ctx)
	if err != nil {
		return err
	}
	index := search.NewIndex(countries)

	if !searchLive {
		term := ""
		if len(args) > 0 {
			term = args[0]
		}
		search.NewBox(index, preset, env.term, nil).Input(term)
		return nil
	}

	// vaccine search waits for typing to settle; the others fire per line
	var box *search.Box
	if searchPreset == "vaccine" {
		d := vaccine.NewDebouncer(env.cfg.Dashboard.SearchDebounce)
		defer d.Stop()
		box = search.NewBox(index, preset, env.term, d)
	} else {
		box = search.NewBox(index, preset, env.term, nil)
	}
	detail := search.NewDetail(env.client, env.term, env.log)

	repl(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), "search> ", func(verb, arg string) bool {
		switch verb {
		case "open":
			_, _ = detail.Load(ctx, arg)
		case "retry":
			env.term.Retry()
		default:
			box.Input(joinInput(verb, arg))
		}
		return true
	})
	return nil
}

// joinInput restores a search line that repl split at the first space
func joinInput(verb, arg string) string {
	if arg == "" {
		return verb
	}
	return verb + " " + arg
}

func runDashExport(cmd *cobra.Command, args []string) error {
	env, err := newDashEnv(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	name := args[0]
	if exportOutFile == "-" {
		return env.client.DownloadCSV(ctx, name, cmd.OutOrStdout())
	}

	path := exportOutFile
	if path == "" {
		path = tracker.CSVFilename(name)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := env.client.DownloadCSV(ctx, name, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	PrintSuccess(cmd.ErrOrStderr(), fmt.Sprintf("Saved %s (%s)", path, env.client.ExportURL(name)))
	return nil
}
