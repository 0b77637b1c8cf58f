package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/seisgo/fwigrad/pkg/seis"
)

type inspectSection struct {
	Type    string `json:"type"`
	Version uint32 `json:"version"`
	Offset  uint64 `json:"offset"`
	Size    uint64 `json:"size"`
}

type inspectGrid struct {
	Nz int     `json:"nz"`
	Nx int     `json:"nx"`
	Dz float64 `json:"dz"`
	Dx float64 `json:"dx"`
}

type inspectOutput struct {
	Path        string            `json:"path"`
	Major       uint16            `json:"major"`
	Minor       uint16            `json:"minor"`
	FileSize    uint64            `json:"file_size"`
	Sections    []inspectSection  `json:"sections"`
	Model       *inspectGrid      `json:"model,omitempty"`
	Acquisition *seis.Acquisition `json:"acquisition,omitempty"`
}

func sectionName(t seis.SectionType) string {
	switch t {
	case seis.SectionVelocityModel:
		return "velocity_model"
	case seis.SectionAcquisition:
		return "acquisition"
	case seis.SectionShotData:
		return "shot_data"
	case seis.SectionGradient:
		return "gradient"
	case seis.SectionIllumination:
		return "illumination"
	default:
		return fmt.Sprintf("unknown_0x%04x", uint32(t))
	}
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Dump SEIS file metadata as JSON",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("usage: fwigrad inspect FILE")
			}
			path := cmd.Args().First()
			f, err := seis.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			out := inspectOutput{
				Path:     path,
				Major:    f.Header.Major,
				Minor:    f.Header.Minor,
				FileSize: f.Header.FileSize,
			}
			for _, s := range f.Sections {
				out.Sections = append(out.Sections, inspectSection{
					Type:    sectionName(seis.SectionType(s.Type)),
					Version: s.Version,
					Offset:  s.Offset,
					Size:    s.Size,
				})
			}
			if sec := f.Section(seis.SectionVelocityModel); sec != nil {
				gd, err := seis.DecodeGrid(f.SectionData(sec))
				if err != nil {
					return fmt.Errorf("velocity model: %w", err)
				}
				out.Model = &inspectGrid{Nz: gd.Nz, Nx: gd.Nx, Dz: gd.Dz, Dx: gd.Dx}
			}
			if sec := f.Section(seis.SectionAcquisition); sec != nil {
				acq, err := seis.DecodeAcquisition(f.SectionData(sec))
				if err != nil {
					return fmt.Errorf("acquisition: %w", err)
				}
				out.Acquisition = acq
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
