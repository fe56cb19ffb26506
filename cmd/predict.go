package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evroute/core/clock"
	"github.com/kilianp07/evroute/core/prediction"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a predictor locally and print the result as JSON",
	Long: `Run a predictor locally without recording it in any history.
The input is the same JSON body the HTTP endpoint accepts, given as the
single argument or read from stdin when the argument is omitted or "-".`,
}

type routeInput struct {
	Candidates  []prediction.Route     `json:"candidates"`
	Preferences prediction.Preferences `json:"preferences"`
}

func init() {
	predictCmd.AddCommand(
		predictor("slot", "Estimate port availability at a station", func(in []byte) (any, error) {
			var req prediction.SlotInput
			if err := decodeInput(in, &req); err != nil {
				return nil, err
			}
			return prediction.PredictSlot(req, clock.System{}), nil
		}),
		predictor("energy", "Estimate remaining charge at destination", func(in []byte) (any, error) {
			var req prediction.EnergyInput
			if err := decodeInput(in, &req); err != nil {
				return nil, err
			}
			return prediction.PredictEnergy(req), nil
		}),
		predictor("route", "Rank candidate routes", func(in []byte) (any, error) {
			var req routeInput
			if err := decodeInput(in, &req); err != nil {
				return nil, err
			}
			return prediction.ScoreRoutes(req.Candidates, req.Preferences), nil
		}),
	)
	rootCmd.AddCommand(predictCmd)
}

func predictor(name, short string, run func([]byte) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [json|-]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			out, err := run(in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return b, nil
}

func decodeInput(in []byte, v any) error {
	if len(bytes.TrimSpace(in)) == 0 {
		return nil
	}
	if err := json.Unmarshal(in, v); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}
	return nil
}
