package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/maverick/backend/internal/contracts"
	"github.com/wonny/maverick/backend/internal/riskconfig"
)

// riskCmd represents the risk command group
var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "리스크 분석",
	Long: `포트폴리오 리스크 분석 도구.

Subcommands:
  analyze    - 분석 요청 JSON → 리포트
  scenarios  - 스트레스 시나리오 목록
  config     - 리스크 설정 검증 + 해시

Example:
  go run ./cmd/maverick risk analyze --input request.json --pretty
  cat request.json | go run ./cmd/maverick risk analyze --input -
  go run ./cmd/maverick risk config --path config/risk/default.yaml`,
}

var (
	riskAnalyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "포트폴리오 전체 분석",
		RunE:  runRiskAnalyze,
	}

	riskScenariosCmd = &cobra.Command{
		Use:   "scenarios",
		Short: "스트레스 시나리오 목록",
		RunE:  runRiskScenarios,
	}

	riskConfigCmd = &cobra.Command{
		Use:   "config",
		Short: "리스크 설정 검증",
		RunE:  runRiskConfig,
	}
)

var (
	analyzeInput  string
	analyzePretty bool
	configPath    string
)

func init() {
	rootCmd.AddCommand(riskCmd)
	riskCmd.AddCommand(riskAnalyzeCmd)
	riskCmd.AddCommand(riskScenariosCmd)
	riskCmd.AddCommand(riskConfigCmd)

	riskAnalyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "분석 요청 JSON 파일 (- = stdin)")
	riskAnalyzeCmd.Flags().BoolVar(&analyzePretty, "pretty", false, "들여쓰기 출력")
	_ = riskAnalyzeCmd.MarkFlagRequired("input")

	riskConfigCmd.Flags().StringVar(&configPath, "path", "", "YAML 경로 (기본: --risk-config / 내장)")
}

func runRiskAnalyze(cmd *cobra.Command, args []string) error {
	req, err := readRequest(cmd, analyzeInput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.analyzer.Analyze(ctx, req)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if analyzePretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

// readRequest 파일 또는 stdin에서 분석 요청 읽기
func readRequest(cmd *cobra.Command, path string) (contracts.AnalysisRequest, error) {
	var req contracts.AnalysisRequest

	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("decode input: %w", err)
	}
	return req, nil
}

func runRiskScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := riskconfig.LoadOrDefault(riskConfigPath)
	if err != nil {
		return fmt.Errorf("load risk config: %w", err)
	}

	out := cmd.OutOrStdout()
	columns := []string{"ID", "NAME", "MARKET", "DAYS", "RECOVERY"}
	widths := []int{16, 36, 8, 6, 8}
	printTableHeader(out, columns, widths)
	for _, s := range cfg.Stress.Scenarios {
		recovery := "-"
		if s.RecoveryDays != nil {
			recovery = strconv.Itoa(*s.RecoveryDays)
		}
		printTableRow(out, []string{
			s.ID,
			s.Name,
			fmt.Sprintf("%.1f%%", s.MarketReturn*100),
			strconv.Itoa(s.DurationDays),
			recovery,
		}, widths)
	}
	return nil
}

func runRiskConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = riskConfigPath
	}

	var cfg *riskconfig.Config
	if path == "" {
		cfg = riskconfig.Default()
		if err := riskconfig.Validate(cfg); err != nil {
			return fmt.Errorf("built-in config invalid: %w", err)
		}
		path = "(built-in)"
	} else {
		loaded, _, err := riskconfig.Load(path)
		if err != nil {
			printError(cmd.OutOrStdout(), fmt.Sprintf("Invalid risk config %s: %v", path, err))
			return err
		}
		cfg = loaded
	}

	hash, err := riskconfig.Hash(cfg)
	if err != nil {
		return fmt.Errorf("hash risk config: %w", err)
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "Risk config is valid")
	printKeyValue(out, "Path", path, 10)
	printKeyValue(out, "Config ID", cfg.Meta.ConfigID, 10)
	printKeyValue(out, "Version", cfg.Meta.Version, 10)
	printKeyValue(out, "Scenarios", strconv.Itoa(len(cfg.Stress.Scenarios)), 10)
	printKeyValue(out, "Hash", hash, 10)
	return nil
}
