package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	riskConfigPath string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "maverick",
	Short: "Maverick - 포트폴리오 리스크 분석 엔진",
	Long: `Maverick Risk Analytics CLI

상관관계, VaR/CVaR, 베타, 변동성, 스트레스 테스트,
분산 점수, 섹터 노출을 계산하는 포트폴리오 리스크 엔진.

Usage:
  go run ./cmd/maverick [command]

Examples:
  go run ./cmd/maverick api
  go run ./cmd/maverick risk analyze --input request.json --pretty
  go run ./cmd/maverick risk scenarios
  go run ./cmd/maverick scheduler --once`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&riskConfigPath, "risk-config", "", "risk engine YAML (default: RISK_CONFIG_PATH or built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}
