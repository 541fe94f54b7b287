package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"canaryAnalytics/business/analytics"
	"canaryAnalytics/domain"
	promRepo "canaryAnalytics/internal/repository/prometheus"
	"canaryAnalytics/internal/repository/static"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	requestPath      string
	observationsPath string
	prometheusURL    string
	queryTimeout     time.Duration
	stateInPath      string
	stateOutPath     string

	roundWeights string
	roundTotal   float64
)

var rootCmd = &cobra.Command{
	Use:   "assess-cli",
	Short: "Run canary analytics iterations offline",
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess one experiment iteration and print the result as JSON",
	RunE:  runAssess,
}

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Round weights to integers that sum to the total",
	RunE:  runRound,
}

func init() {
	assessCmd.Flags().StringVar(&requestPath, "request", "", "experiment iteration request (yaml or json)")
	assessCmd.Flags().StringVar(&observationsPath, "observations", "", "metric observations fixture (yaml or json)")
	assessCmd.Flags().StringVar(&prometheusURL, "prometheus-url", "", "query a Prometheus server instead of a fixture")
	assessCmd.Flags().DurationVar(&queryTimeout, "query-timeout", 10*time.Second, "per query timeout against Prometheus")
	assessCmd.Flags().StringVar(&stateInPath, "state-in", "", "previous last_state, used when the request carries none")
	assessCmd.Flags().StringVar(&stateOutPath, "state-out", "", "write the resulting last_state here")
	_ = assessCmd.MarkFlagRequired("request")
	assessCmd.MarkFlagsMutuallyExclusive("observations", "prometheus-url")
	assessCmd.MarkFlagsOneRequired("observations", "prometheus-url")

	roundCmd.Flags().StringVar(&roundWeights, "weights", "", "comma separated non-negative weights")
	roundCmd.Flags().Float64Var(&roundTotal, "total", 100, "target sum")
	_ = roundCmd.MarkFlagRequired("weights")

	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(roundCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	var req domain.ExperimentIterationRequest
	if err := decodeFile(requestPath, &req); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	if err := validator.New().Struct(req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if req.LastState == nil && stateInPath != "" {
		var prev domain.LastState
		if err := decodeFile(stateInPath, &prev); err != nil {
			return fmt.Errorf("previous state: %w", err)
		}
		req.LastState = &prev
	}

	metricsRepo, err := metricsRepository()
	if err != nil {
		return err
	}

	svc := analytics.NewAnalyticsService(metricsRepo, nil, analytics.DefaultConfig())
	result, err := svc.Assess(cmd.Context(), req)
	if err != nil {
		return err
	}

	if stateOutPath != "" {
		data, err := json.MarshalIndent(result.LastState, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal state: %w", err)
		}
		if err := os.WriteFile(stateOutPath, data, 0o644); err != nil {
			return fmt.Errorf("write state: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func metricsRepository() (analytics.MetricsRepository, error) {
	if prometheusURL != "" {
		return promRepo.NewMetricsRepository(prometheusURL, queryTimeout)
	}
	return static.LoadObservations(observationsPath)
}

func runRound(cmd *cobra.Command, args []string) error {
	var weights []float64
	for _, field := range strings.Split(roundWeights, ",") {
		w, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("weight %q: %w", field, err)
		}
		weights = append(weights, w)
	}

	parts := make([]string, 0, len(weights))
	for _, v := range analytics.Round(weights, roundTotal) {
		parts = append(parts, strconv.Itoa(v))
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, ","))
	return nil
}

// decodeFile reads yaml or json into out. The document goes through a
// generic map so the json tags of the domain types apply to both formats.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	data, err = json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}
	return json.Unmarshal(data, out)
}
