package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV", "development")
	t.Setenv("DATA_SOURCE", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		analyzeInput, analyzePretty, configPath, riskConfigPath = "", false, "", ""
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRiskScenarios(t *testing.T) {
	out, err := execute(t, "risk", "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "RECOVERY")
}

func TestRiskConfigBuiltIn(t *testing.T) {
	out, err := execute(t, "risk", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Risk config is valid")
	assert.Contains(t, out, "maverick_risk_default")
}

func TestRiskConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meta:\n  config_idd: x\n"), 0o644))

	out, err := execute(t, "risk", "config", "--path", path)
	assert.Error(t, err)
	assert.Contains(t, out, "Invalid risk config")
}

func TestRiskAnalyze(t *testing.T) {
	req := map[string]interface{}{
		"positions": []map[string]interface{}{
			{"ticker": "AAPL", "market_value": 70000, "sector": "Technology"},
			{"ticker": "JNJ", "market_value": 30000, "sector": "Healthcare"},
		},
		"returns": map[string][]float64{
			"AAPL": {0.01, -0.02, 0.015, 0.003, -0.007, 0.012, -0.004, 0.008},
			"JNJ":  {0.002, -0.004, 0.006, -0.001, 0.003, -0.002, 0.001, 0.004},
		},
		"target_profile": "defensive",
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := execute(t, "risk", "analyze", "--input", path)
	require.NoError(t, err)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "defensive", report["target_profile"])
	assert.NotEmpty(t, report["run_id"])
	assert.NotNil(t, report["diversification"])
}

func TestRiskAnalyzeMissingFile(t *testing.T) {
	_, err := execute(t, "risk", "analyze", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
