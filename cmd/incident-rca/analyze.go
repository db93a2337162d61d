package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/miradorstack/incident-rca/internal/api"
	"github.com/miradorstack/incident-rca/internal/models"
	"github.com/miradorstack/incident-rca/internal/utils"
)

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var (
		file string
		opts models.AnalyzeOptions
		mode string
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse a signal batch file and print the result as JSON",
		Example: `  incident-rca analyze -f batch.json
  incident-rca analyze -f batch.yaml --mode disabled --top-k 3
  cat batch.json | incident-rca analyze -f -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			batch, err := readBatch(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			opts.ReasoningMode = models.ReasoningMode(mode)
			_, opts, err = api.FromAnalyzeRequest(&api.AnalyzeRequest{Signals: batch, Options: opts})
			if err != nil {
				return err
			}

			pipeline, _, err := buildPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			result, err := pipeline.Analyze(cmd.Context(), batch, opts)
			if err != nil {
				if kind := utils.KindOf(err); kind != "" {
					return fmt.Errorf("%s: %s", kind, utils.ReasonOf(err))
				}
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "signal batch file (JSON or YAML); - reads stdin")
	cmd.Flags().StringVar(&mode, "mode", "", "reasoning mode: disabled, mock or live (defaults to reasoning.mode)")
	cmd.Flags().IntVar(&opts.TopK, "top-k", 0, "number of ranked signals to keep")
	cmd.Flags().IntVar(&opts.WindowPaddingMinutes, "padding", 0, "incident window padding in minutes")
	cmd.Flags().StringVar(&opts.Service, "service", "", "service name passed to the prompt")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "namespace passed to the prompt")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readBatch decodes a batch from path, or from stdin when path is "-". Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON.
func readBatch(stdin io.Reader, path string) (models.SignalBatch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.SignalBatch{}, fmt.Errorf("read batch: %w", err)
	}

	var batch models.SignalBatch
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &batch)
	default:
		err = json.Unmarshal(data, &batch)
	}
	if err != nil {
		return models.SignalBatch{}, fmt.Errorf("decode batch %s: %w", path, err)
	}
	return batch, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
