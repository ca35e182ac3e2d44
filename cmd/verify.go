package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nsxbet/sqlguard/pkg/logger"
	"github.com/nsxbet/sqlguard/pkg/policy"
	"github.com/nsxbet/sqlguard/pkg/verify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] <sql-file>",
	Short: "Verify a SQL statement against an allow-list policy",
	Long: `Verify reads a single SQL statement from a file and checks it against
a declarative policy of allowed tables, columns, and row-level
restrictions.

It reports whether the statement is allowed outright, why not if it
isn't, and — where the policy's decisions can be fixed by rewriting
the query (removing a disallowed column, adding a missing row
restriction) — a corrected statement.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("policy", "p", "", "path to policy file (YAML or JSON)")
	verifyCmd.Flags().StringP("output", "o", "text", "output format (text, json, yaml)")
	verifyCmd.Flags().String("dialect", "", "SQL dialect (trino, postgres)")
	verifyCmd.Flags().Float64("risk", 0, "risk score to attach to the verdict")
	verifyCmd.Flags().StringSlice("deny-func", nil, "function name to forbid in the projection list (repeatable)")

	_ = viper.BindPFlag("policy", verifyCmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("output", verifyCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("dialect", verifyCmd.Flags().Lookup("dialect"))
	_ = viper.BindPFlag("risk", verifyCmd.Flags().Lookup("risk"))
	_ = viper.BindPFlag("deny-func", verifyCmd.Flags().Lookup("deny-func"))
}

func runVerify(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	}
	logger.NewWithLevel(logLevel)

	slog.Debug("starting verify command", "args", args)

	sqlFile := args[0]
	sqlBytes, err := os.ReadFile(sqlFile)
	if err != nil {
		return errors.Wrapf(err, "failed to read SQL file: %s", sqlFile)
	}

	policyPath := viper.GetString("policy")
	if policyPath == "" {
		return errors.New("a --policy file is required")
	}
	pol, err := policy.Load(policyPath)
	if err != nil {
		return errors.Wrapf(err, "failed to load policy: %s", policyPath)
	}

	opts := []verify.Option{
		verify.WithRisk(viper.GetFloat64("risk")),
	}
	if dialectName := viper.GetString("dialect"); dialectName != "" {
		opts = append(opts, verify.WithDialect(dialectName))
	}
	if denied := viper.GetStringSlice("deny-func"); len(denied) > 0 {
		opts = append(opts, verify.WithDeniedFunctions(denied...))
	}

	verdict, err := verify.VerifySQL(string(sqlBytes), pol, opts...)
	if err != nil {
		return errors.Wrapf(err, "failed to verify SQL file: %s", sqlFile)
	}

	if err := outputVerdict(verdict, viper.GetString("output")); err != nil {
		return err
	}

	if !verdict.Allowed {
		os.Exit(1)
	}
	return nil
}

func outputVerdict(v *verify.Verdict, format string) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(v)
	case "text":
		return outputVerdictText(v)
	default:
		return errors.Errorf("unsupported output format: %s", format)
	}
}

func outputVerdictText(v *verify.Verdict) error {
	if v.Allowed {
		fmt.Println("ALLOWED")
	} else {
		fmt.Println("DENIED")
	}
	for _, e := range v.Errors {
		fmt.Printf("  - %s\n", e)
	}
	if v.Fixed != nil {
		fmt.Println("Fixed statement:")
		fmt.Printf("  %s\n", *v.Fixed)
	}
	if v.Risk != 0 {
		fmt.Printf("Risk: %.2f\n", v.Risk)
	}
	return nil
}
