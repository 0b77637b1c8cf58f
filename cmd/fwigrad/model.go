package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/seisgo/fwigrad/internal/inversion"
	"github.com/seisgo/fwigrad/internal/logger"
	"github.com/seisgo/fwigrad/pkg/seis"
)

func modelCmd() *cli.Command {
	var (
		inputPath string
		outPath   string
	)

	return &cli.Command{
		Name:  "model",
		Usage: "Forward-model a synthetic shot gather",
		Flags: append(append(computeFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "SEIS file with model and acquisition",
				Required:    true,
				Destination: &inputPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output SEIS file with the synthetic shot data",
				Value:       "shots.seis",
				Destination: &outPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyComputeConfig(cmd, LoadConfig())
			log := buildLogger()
			ctx = logger.WithContext(ctx, log)

			in, err := inversion.LoadInput(inputPath)
			if err != nil {
				return err
			}
			defer in.Close()

			eng, err := inversion.NewEngine(in.Model, in.Acq, nil, inversion.Config{
				Order:   int(order),
				Workers: int(workers),
			}, log)
			if err != nil {
				return err
			}

			log.Info("modelling", "input", inputPath, "shots", in.Acq.Ns, "nt", in.Acq.Nt)
			data, err := eng.Model(ctx)
			if err != nil {
				return err
			}

			// The output carries model and acquisition through, so it
			// feeds straight into the gradient command.
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			w, err := seis.NewWriter(f)
			if err != nil {
				return err
			}
			model, err := seis.EncodeGrid(in.Model)
			if err != nil {
				return err
			}
			if err := w.WriteSection(seis.SectionVelocityModel, 1, model); err != nil {
				return err
			}
			acq, err := seis.EncodeAcquisition(in.Acq)
			if err != nil {
				return err
			}
			if err := w.WriteSection(seis.SectionAcquisition, 1, acq); err != nil {
				return err
			}
			shots, err := seis.EncodeGather(data, in.Acq)
			if err != nil {
				return err
			}
			if err := w.WriteSection(seis.SectionShotData, 1, shots); err != nil {
				return err
			}
			if err := w.Finalise(); err != nil {
				return err
			}
			log.Info("shot gather written", "path", outPath, "samples", len(data))
			return nil
		},
	}
}
