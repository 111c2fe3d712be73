package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"goposthoc/adapters/excel"
	"goposthoc/adapters/stats/stages"
	"goposthoc/domain/adjust"
	"goposthoc/domain/signrank"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goposthoc",
		Short: "Exact signed-rank distributions and multiple-comparison correction",
	}

	rootCmd.AddCommand(
		newAdjustCmd(),
		newSignrankCmd(),
		newSweepCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAdjustCmd() *cobra.Command {
	var method string
	var alpha float64
	var file string

	cmd := &cobra.Command{
		Use:   "adjust [p-values...]",
		Short: "Adjust a family of p-values for multiple comparisons",
		Long: `Adjust a family of p-values for multiple comparisons.

P-values are given as arguments or read one-per-line from --file.

Example: goposthoc adjust 0.01 0.04 0.03 0.20 --method holm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pValues, err := collectPValues(args, file)
			if err != nil {
				return err
			}
			m, err := adjust.ParseMethod(method)
			if err != nil {
				return err
			}
			adjusted, err := adjust.AdjustWithAlpha(pValues, m, alpha)
			if err != nil {
				return err
			}

			significant := 0
			for _, q := range adjusted {
				if q <= alpha {
					significant++
				}
			}
			return printJSON(map[string]interface{}{
				"method":      m,
				"alpha":       alpha,
				"raw_p":       pValues,
				"adjusted_p":  adjusted,
				"significant": significant,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", string(adjust.DefaultMethod), "Adjustment method: "+methodList())
	cmd.Flags().Float64Var(&alpha, "alpha", adjust.DefaultAlpha, "Significance level")
	cmd.Flags().StringVar(&file, "file", "", "File with one p-value per line")

	return cmd
}

func newSignrankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signrank",
		Short: "Exact null distribution of the signed-rank statistic",
	}
	cmd.AddCommand(newSignrankSubCmd("pmf", signrank.PMF), newSignrankSubCmd("cdf", signrank.CDF))
	return cmd
}

func newSignrankSubCmd(kind string, eval func(t, n int, m signrank.Method) (float64, error)) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   kind + " [t] [n]",
		Short: fmt.Sprintf("Evaluate the %s at rank sum t for sample size n", strings.ToUpper(kind)),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("t must be an integer: %w", err)
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("n must be an integer: %w", err)
			}
			m, err := signrank.ParseMethod(method)
			if err != nil {
				return err
			}
			value, err := eval(t, n, m)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"statistic": kind,
				"t":         t,
				"n":         n,
				"method":    m,
				"value":     value,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", string(signrank.DefaultMethod), "Algorithm: recursive, enumerate, or shift")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var method string
	var alpha float64
	var file string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run pairwise signed-rank tests over a score matrix with family correction",
		Long: `Run pairwise signed-rank tests over every column pair of a score
matrix read from a CSV or Excel file, then apply the family correction.

Example: goposthoc sweep --file scores.csv --method bh --alpha 0.05`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			matrix, err := excel.NewDataReader(file).ReadMatrix()
			if err != nil {
				return err
			}
			m, err := adjust.ParseMethod(method)
			if err != nil {
				return err
			}

			stage := stages.NewPosthocStage(m, alpha)
			results, family, err := stage.Execute(context.Background(), matrix.Variables, matrix.Rows)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"source":  matrix.Source,
				"family":  family,
				"results": results,
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", string(adjust.DefaultMethod), "Adjustment method: "+methodList())
	cmd.Flags().Float64Var(&alpha, "alpha", adjust.DefaultAlpha, "Significance level")
	cmd.Flags().StringVar(&file, "file", "", "CSV or Excel score matrix")

	return cmd
}

// collectPValues merges argument and file inputs into one family.
func collectPValues(args []string, file string) ([]float64, error) {
	values := make([]float64, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid p-value %q: %w", a, err)
		}
		values = append(values, v)
	}
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			v, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid p-value %q in %s: %w", line, file, err)
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no p-values given")
	}
	return values, nil
}

func methodList() string {
	names := make([]string, 0, len(adjust.Methods()))
	for _, m := range adjust.Methods() {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
