package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/seisgo/fwigrad/internal/grid"
	"github.com/seisgo/fwigrad/internal/inversion"
	"github.com/seisgo/fwigrad/internal/logger"
	"github.com/seisgo/fwigrad/pkg/seis"
)

func gradientCmd() *cli.Command {
	var (
		inputPath string
		outPath   string
		reportOut string

		precondition bool
		smooth       bool
		rbell        int64
		muteRows     int64
	)

	return &cli.Command{
		Name:  "gradient",
		Usage: "Compute the FWI gradient for a SEIS input file",
		Flags: append(append(computeFlags(), loggingFlags()...),
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "SEIS file with model, acquisition and shot data",
				Required:    true,
				Destination: &inputPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output SEIS file for gradient and illumination",
				Value:       "gradient.seis",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "report",
				Usage:       "optional JSON objective report path",
				Destination: &reportOut,
			},
			&cli.BoolFlag{
				Name:        "precondition",
				Usage:       "divide the gradient by the source illumination",
				Destination: &precondition,
			},
			&cli.BoolFlag{
				Name:        "smooth",
				Usage:       "apply bell smoothing to the gradient",
				Destination: &smooth,
			},
			&cli.Int64Flag{
				Name:        "rbell",
				Usage:       "bell smoothing radius in cells",
				Value:       2,
				Destination: &rbell,
			},
			&cli.Int64Flag{
				Name:        "mute",
				Usage:       "zero this many rows below the free surface",
				Destination: &muteRows,
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
			if in.Obs == nil {
				return fmt.Errorf("%s: no shot data; run \"fwigrad model\" first", inputPath)
			}

			eng, err := inversion.NewEngine(in.Model, in.Acq, in.Obs, inversion.Config{
				Order:        int(order),
				Workers:      int(workers),
				ShotWorkers:  int(shotWorkers),
				Iterations:   int(iterations),
				Precondition: precondition,
				Smooth:       smooth,
				RBell:        int(rbell),
				MuteRows:     int(muteRows),
			}, log)
			if err != nil {
				return err
			}

			log.Info("computing gradient",
				"input", inputPath, "shots", in.Acq.Ns, "nt", in.Acq.Nt,
				"iterations", iterations, "shot_workers", shotWorkers)
			results, err := eng.Run(ctx)
			if err != nil {
				return err
			}

			last := results[len(results)-1]
			if err := writeGradientFile(outPath, eng.Grid(), last); err != nil {
				return err
			}
			log.Info("gradient written", "path", outPath, "objective", last.Objective)

			if reportOut != "" {
				if err := inversion.NewReport(results).Write(reportOut); err != nil {
					return err
				}
				log.Info("report written", "path", reportOut)
			}
			return nil
		},
	}
}

// writeGradientFile emits the gradient and illumination maps as a
// SEIS file on the interior grid.
func writeGradientFile(path string, g grid.Grid, res *inversion.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := seis.NewWriter(f)
	if err != nil {
		return err
	}
	grad, err := seis.EncodeGrid(&seis.GridData{Nz: g.Nz, Nx: g.Nx, Dz: g.Dz, Dx: g.Dx, Data: res.Gradient})
	if err != nil {
		return err
	}
	if err := w.WriteSection(seis.SectionGradient, 1, grad); err != nil {
		return err
	}
	illum, err := seis.EncodeGrid(&seis.GridData{Nz: g.Nz, Nx: g.Nx, Dz: g.Dz, Dx: g.Dx, Data: res.Illum})
	if err != nil {
		return err
	}
	if err := w.WriteSection(seis.SectionIllumination, 1, illum); err != nil {
		return err
	}
	return w.Finalise()
}
