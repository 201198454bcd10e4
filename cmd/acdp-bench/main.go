// Command acdp-bench measures issuance, presentation-generation, and
// verification throughput/latency and reports results as text, JSON, or a
// rendered chart.
package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/acdp/acdp-core/pkg/credential"
	"github.com/acdp/acdp-core/pkg/mac"
)

// stageResult holds one benchmarked operation's timing distribution.
type stageResult struct {
	Name         string        `json:"name"`
	Iterations   int           `json:"iterations"`
	Total        time.Duration `json:"totalNs"`
	MeanPerOp    time.Duration `json:"meanPerOpNs"`
	OpsPerSecond float64       `json:"opsPerSecond"`
}

func main() {
	iterations := flag.Int("iterations", 200, "Number of iterations per stage")
	output := flag.String("output", "", "Output file path (empty for stdout)")
	format := flag.String("format", "text", "Output format (text, json, chart)")
	chartFile := flag.String("chart", "acdp-bench.png", "PNG file for -format=chart")
	flag.Parse()

	if *iterations < 1 {
		fmt.Fprintln(os.Stderr, "Error: iterations must be at least 1")
		os.Exit(1)
	}

	results, err := runAll(*iterations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmarks: %v\n", err)
		os.Exit(1)
	}

	if err := report(results, strings.ToLower(*format), *output, *chartFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reporting results: %v\n", err)
		os.Exit(1)
	}
}

func runAll(iterations int) ([]stageResult, error) {
	macKey, err := mac.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate MAC key: %w", err)
	}

	issuances := make([]*mac.DirectIssuance, 0, iterations)
	issueStage, err := timeStage("issue-arc", iterations, func() error {
		d, err := mac.IssueDirectARC(macKey, rand.Reader)
		if err != nil {
			return err
		}
		issuances = append(issuances, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	creds := make([]*credential.Credential, 0, iterations)
	for i := 0; i < iterations; i++ {
		d := issuances[i%len(issuances)]
		creds = append(creds, &credential.Credential{
			Version:        credential.CurrentVersion,
			CredentialID:   uuid.New(),
			CredentialType: credential.Anonymous,
			AgentID:        "bench-agent",
			Capabilities:   credential.Capabilities{AllowedTools: []string{"bench.*"}, MaxPresentations: iterations + 1},
			ARC:            &credential.ARCData{U: d.U, Q: d.Q, X1: d.X1, M1Commit: d.M1Commit},
			IssuedAt:       time.Now(),
			ExpiresAt:      time.Now().Add(24 * time.Hour),
		})
	}

	presentations := make([]*credential.Presentation, 0, iterations)
	genStage, err := timeStage("generate-presentation", iterations, func() error {
		i := len(presentations)
		p, err := credential.Generate(creds[i], issuances[i%len(issuances)].M1, fmt.Sprintf("ctx-%d", i), uint64(i), rand.Reader)
		if err != nil {
			return err
		}
		presentations = append(presentations, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	verifyStage, err := timeStage("verify-presentation", iterations, func() error {
		i := 0
		return credential.Verify(creds[i%len(creds)], presentations[i%len(presentations)], fmt.Sprintf("ctx-%d", i%len(presentations)))
	})
	if err != nil {
		return nil, err
	}

	return []stageResult{issueStage, genStage, verifyStage}, nil
}

func timeStage(name string, iterations int, op func() error) (stageResult, error) {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := op(); err != nil {
			return stageResult{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	total := time.Since(start)
	mean := total / time.Duration(iterations)
	return stageResult{
		Name:         name,
		Iterations:   iterations,
		Total:        total,
		MeanPerOp:    mean,
		OpsPerSecond: float64(iterations) / total.Seconds(),
	}, nil
}

func report(results []stageResult, format, output, chartFile string) error {
	switch format {
	case "json":
		return reportJSON(results, output)
	case "chart":
		return reportChart(results, chartFile)
	default:
		return reportText(results, output)
	}
}

func reportText(results []stageResult, output string) error {
	var b strings.Builder
	b.WriteString("ACDP benchmark results\n")
	for _, r := range results {
		fmt.Fprintf(&b, "  %-22s iterations=%-6d mean=%-14s ops/s=%.1f\n",
			r.Name, r.Iterations, r.MeanPerOp, r.OpsPerSecond)
	}
	return writeOutput(output, []byte(b.String()))
}

func reportJSON(results []stageResult, output string) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return writeOutput(output, data)
}

func reportChart(results []stageResult, chartFile string) error {
	xValues := make([]float64, len(results))
	yValues := make([]float64, len(results))
	ticks := make([]chart.Tick, len(results))
	for i, r := range results {
		xValues[i] = float64(i)
		yValues[i] = r.OpsPerSecond
		ticks[i] = chart.Tick{Value: float64(i), Label: r.Name}
	}

	graph := chart.Chart{
		Title: "ACDP operation throughput",
		XAxis: chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{Name: "ops/sec"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "ops/sec",
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	f, err := os.Create(chartFile)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	fmt.Printf("Chart written to %s\n", chartFile)
	return nil
}

func writeOutput(output string, data []byte) error {
	if output == "" {
		fmt.Print(string(data))
		if !strings.HasSuffix(string(data), "\n") {
			fmt.Println()
		}
		return nil
	}
	return os.WriteFile(output, data, 0o644)
}
