// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// trialclean epochs an EDF recording into fixed-length trials, rejects
// outlier trials and channels with the automatic summary strategy, and
// writes the cleaned recording back out as EDF.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OpenPSG/reject"
	"github.com/spf13/cobra"
)

func main() {
	var (
		inputPath   string
		outputPath  string
		optionsPath string
		epoch       time.Duration
		metric      string
		cutoff      float64
		keepChannel string
	)

	cmd := &cobra.Command{
		Use:          "trialclean",
		Short:        "Reject bad trials and channels from an EDF recording",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stderr, nil))

			opts := reject.Options{}
			if optionsPath != "" {
				var err error
				opts, err = reject.LoadOptions(optionsPath)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("metric") || opts.Metric == "" {
				opts.Metric = reject.Metric(metric)
			}
			if cmd.Flags().Changed("cutoff") || opts.Cutoff == 0 {
				opts.Cutoff = cutoff
			}
			if cmd.Flags().Changed("keepchannel") || opts.KeepChannel == "" {
				opts.KeepChannel = reject.KeepChannel(keepChannel)
			}
			opts.Method = reject.MethodSummary
			opts.Logger = log

			in, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("error opening input: %w", err)
			}
			defer in.Close()

			ds, trl, info, err := reject.ReadEDF(in, epoch)
			if err != nil {
				return err
			}
			log.Info("recording loaded",
				slog.Int("channels", len(ds.Labels)),
				slog.Int("trials", len(ds.Trials)),
				slog.Float64("fsample", ds.FSample))

			res, err := reject.Reject(ds, trl, opts, reject.DefaultStrategies())
			if err != nil {
				return err
			}
			if len(res.Dataset.Trials) == 0 {
				return fmt.Errorf("all trials were rejected, refusing to write an empty recording")
			}

			out, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("error creating output: %w", err)
			}
			defer out.Close()

			if err := reject.WriteEDF(out, res.Dataset, info); err != nil {
				return err
			}
			log.Info("cleaned recording written",
				slog.String("path", outputPath),
				slog.Int("channels", len(res.Dataset.Labels)),
				slog.Int("trials", len(res.Dataset.Trials)),
				slog.Int("artifacts", len(res.Artifact)))
			return out.Close()
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input EDF file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output EDF file")
	cmd.Flags().StringVarP(&optionsPath, "options", "c", "", "YAML options file")
	cmd.Flags().DurationVarP(&epoch, "epoch", "e", 30*time.Second, "trial length to epoch the recording into")
	cmd.Flags().StringVarP(&metric, "metric", "m", string(reject.MetricVar), "summary metric (var|min|max|maxabs|range|kurtosis)")
	cmd.Flags().Float64Var(&cutoff, "cutoff", reject.DefaultCutoff, "robust z cutoff for rejection")
	cmd.Flags().StringVar(&keepChannel, "keepchannel", string(reject.KeepChannelNo), "bad channel policy (no|yes|nan)")

	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	if err := cmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
