package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"omibyte.io/cmrt/boot"
)

// ProjectFile is the name of the optional per-package configuration.
const ProjectFile = "cmrt.yaml"

// Project is the content of cmrt.yaml.
type Project struct {
	Target     string      `yaml:"target"`
	Device     string      `yaml:"device"`
	Output     string      `yaml:"output"`
	Tags       []string    `yaml:"tags"`
	Interrupts int         `yaml:"interrupts"`
	StackStart string      `yaml:"stack-start"`
	Lint       bool        `yaml:"lint"`
	Boot       boot.Config `yaml:"boot"`
}

// LoadProject reads cmrt.yaml from dir. A missing file is not an error and
// yields nil.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, ProjectFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProjectConfig, path, err)
	}

	// Relative device paths are relative to the project file.
	if len(p.Device) > 0 && !filepath.IsAbs(p.Device) {
		p.Device = filepath.Join(dir, p.Device)
	}
	return &p, nil
}

// Merge fills the options left unset by flags from the project file, then
// from the environment, then from the defaults. Boot steps and the lint are
// enabled when either source enables them.
func (o *Options) Merge(p *Project, env Env) error {
	if p != nil {
		if len(o.Target) == 0 {
			o.Target = p.Target
		}
		if len(o.Device) == 0 {
			o.Device = p.Device
		}
		if len(o.Output) == 0 {
			o.Output = p.Output
		}
		if o.Interrupts == 0 {
			o.Interrupts = p.Interrupts
		}
		if o.StackStart == 0 && len(p.StackStart) > 0 {
			v, err := strconv.ParseUint(p.StackStart, 0, 32)
			if err != nil {
				return fmt.Errorf("%w: stack-start: %v", ErrProjectConfig, err)
			}
			o.StackStart = uint32(v)
		}
		o.BuildTags = append(o.BuildTags, p.Tags...)
		o.Lint = o.Lint || p.Lint
		o.Boot.SetSP = o.Boot.SetSP || p.Boot.SetSP
		o.Boot.SetVTOR = o.Boot.SetVTOR || p.Boot.SetVTOR
		o.Boot.SkipDataInit = o.Boot.SkipDataInit || p.Boot.SkipDataInit
		o.Boot.FPU = o.Boot.FPU || p.Boot.FPU
	}

	if len(o.Target) == 0 {
		o.Target = env.Value("CMRT_TARGET")
	}
	if len(o.Device) == 0 {
		o.Device = env.Value("CMRT_DEVICE")
	}

	if len(o.Output) == 0 {
		o.Output = "build"
	}
	if len(o.Package) == 0 {
		o.Package = "."
	}
	if o.Environment == nil {
		o.Environment = env
	}
	return nil
}
