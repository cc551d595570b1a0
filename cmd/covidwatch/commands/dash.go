package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/covidwatch/internal/dashboard/client"
	"github.com/wonny/covidwatch/internal/dashboard/render/term"
	"github.com/wonny/covidwatch/pkg/config"
	"github.com/wonny/covidwatch/pkg/logger"
)

// dashCmd represents the dash command
var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "터미널 대시보드",
	Long: `실행 중인 covidwatch 서버의 /api 를 읽어 터미널에 출력합니다.

Subcommands:
  global   - 전세계 현황, 지도 마커, 상위 국가, 추이
  country  - 국가 상세 (country -> historical -> risk)
  compare  - 최대 5개국 비교
  risk     - 위험도 평가
  vaccine  - 백신 접종 현황
  search   - 국가명 검색
  export   - CSV 다운로드
  watch    - 갱신 이벤트 구독

Example:
  go run ./cmd/covidwatch dash global --days 90
  go run ./cmd/covidwatch dash compare USA India Brazil -i
  go run ./cmd/covidwatch dash --url http://covid.internal:5000 risk Germany`,
}

var (
	dashURL string
)

func init() {
	rootCmd.AddCommand(dashCmd)

	dashCmd.PersistentFlags().StringVar(&dashURL, "url", "", "backend base URL (default: dashboard.base_url)")
}

// dashEnv is what every dash subcommand needs
type dashEnv struct {
	cfg    *config.Config
	log    *logger.Logger
	client *client.Client
	term   *term.Renderer
}

func newDashEnv(cmd *cobra.Command) (*dashEnv, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, err
	}
	if dashURL != "" {
		cfg.Dashboard.BaseURL = dashURL
	}

	return &dashEnv{
		cfg:    cfg,
		log:    log,
		client: client.New(cfg, log),
		term:   term.New(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}, nil
}

// signalContext is cancelled on Ctrl+C
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// repl reads "verb argument" lines until EOF, "quit" or ctx is done.
// handle returns false to stop.
func repl(ctx context.Context, in io.Reader, out io.Writer, prompt string, handle func(verb, arg string) bool) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, prompt)
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
			if verb == "" {
				continue
			}
			if verb == "quit" || verb == "exit" {
				return
			}
			if !handle(strings.ToLower(verb), strings.TrimSpace(arg)) {
				return
			}
		}
	}
}
