package inversion

import (
	"fmt"

	"github.com/seisgo/fwigrad/pkg/seis"
)

// Input is one decoded SEIS input file. Obs is nil when the file
// carries no shot data, which is enough for forward modelling. The
// gather views the underlying mapping, so Close must not be called
// while an engine built from this input is still running.
type Input struct {
	Model *seis.GridData
	Acq   *seis.Acquisition
	Obs   *seis.Gather

	f *seis.File
}

// LoadInput opens path and decodes the velocity model, acquisition
// metadata and, when present, the observed shot gather.
func LoadInput(path string) (*Input, error) {
	f, err := seis.Open(path)
	if err != nil {
		return nil, err
	}

	sec := f.Section(seis.SectionVelocityModel)
	if sec == nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w: velocity model", path, seis.ErrMissingSection)
	}
	model, err := seis.DecodeGrid(f.SectionData(sec))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: velocity model: %w", path, err)
	}

	sec = f.Section(seis.SectionAcquisition)
	if sec == nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w: acquisition", path, seis.ErrMissingSection)
	}
	acq, err := seis.DecodeAcquisition(f.SectionData(sec))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: acquisition: %w", path, err)
	}

	in := &Input{Model: model, Acq: acq, f: f}
	if sec := f.Section(seis.SectionShotData); sec != nil {
		obs, err := seis.NewGather(f.SectionData(sec), acq)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%s: shot data: %w", path, err)
		}
		in.Obs = obs
	}
	return in, nil
}

func (in *Input) Close() error {
	if in.f == nil {
		return nil
	}
	err := in.f.Close()
	in.f = nil
	return err
}
