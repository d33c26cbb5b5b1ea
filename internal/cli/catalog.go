package cli

import (
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/report"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List known EC2 vCPU quota codes and the instance families they cover",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringP("output", "o", "table", "Output format (table, json, yaml)")
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	format, err := report.ParseFormat(output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := initCatalog(cfg)
	if err != nil {
		return err
	}

	return report.Catalog(cmd.OutOrStdout(), format, reg.All())
}
