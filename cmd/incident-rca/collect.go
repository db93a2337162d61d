package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/miradorstack/incident-rca/internal/collector"
)

func newCollectCmd(flags *globalFlags) *cobra.Command {
	var (
		namespace string
		at        string
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect a signal batch from the configured sources and print it as JSON",
		Long: `collect queries the Kubernetes and Prometheus sources enabled in the configuration
and prints the merged batch in the shape analyze -f accepts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			c, err := buildCollector(cfg, logger)
			if err != nil {
				return err
			}
			if c == nil {
				return errors.New("no signal source enabled: set collector.kubernetes.enabled or collector.prometheus.address")
			}

			q := collector.Query{Namespace: namespace}
			if at != "" {
				q.At, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return err
				}
			}
			batch, err := c.Collect(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), batch)
		},
	}
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "namespace to collect from (defaults to collector.kubernetes.namespace)")
	cmd.Flags().StringVar(&at, "at", "", "reference instant, RFC3339 (defaults to now)")
	return cmd
}
