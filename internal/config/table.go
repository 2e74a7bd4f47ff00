package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// TableFile is an HCL preset for the table and the bot. Attributes left out
// keep whatever the environment configured.
//
//	table {
//	  board_width = 700
//	  restitution = 0.9
//	  frame_every = 5
//	}
//
//	ai {
//	  candidates = 20
//	}
type TableFile struct {
	Table *TableSettings `hcl:"table,block"`
	AI    *AISettings    `hcl:"ai,block"`
}

type TableSettings struct {
	BoardWidth     *float64 `hcl:"board_width,optional"`
	DT             *float64 `hcl:"dt,optional"`
	Deceleration   *float64 `hcl:"deceleration,optional"`
	Restitution    *float64 `hcl:"restitution,optional"`
	MaxSteps       *int     `hcl:"max_steps,optional"`
	FrameEvery     *int     `hcl:"frame_every,optional"`
	MaxStrikeSpeed *float64 `hcl:"max_strike_speed,optional"`
	MaxStrikeAngle *float64 `hcl:"max_strike_angle,optional"`
}

type AISettings struct {
	Candidates *int `hcl:"candidates,optional"`
	Workers    *int `hcl:"workers,optional"`
}

// LoadTableFile parses an HCL table preset.
func LoadTableFile(filename string) (*TableFile, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("table file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var tf TableFile
	diags = gohcl.DecodeBody(file.Body, nil, &tf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return &tf, nil
}

// ApplyTableFile loads filename and overrides the matching fields of c.
func (c *Config) ApplyTableFile(filename string) error {
	tf, err := LoadTableFile(filename)
	if err != nil {
		return err
	}
	tf.apply(c)
	return nil
}

func (tf *TableFile) apply(c *Config) {
	if t := tf.Table; t != nil {
		setFloat(&c.BoardWidth, t.BoardWidth)
		setFloat(&c.SimDT, t.DT)
		setFloat(&c.SimDeceleration, t.Deceleration)
		setFloat(&c.SimRestitution, t.Restitution)
		setInt(&c.SimMaxSteps, t.MaxSteps)
		setInt(&c.FrameEvery, t.FrameEvery)
		setFloat(&c.MaxStrikeSpeed, t.MaxStrikeSpeed)
		setFloat(&c.MaxStrikeAngle, t.MaxStrikeAngle)
	}
	if a := tf.AI; a != nil {
		setInt(&c.AICandidates, a.Candidates)
		setInt(&c.AIWorkers, a.Workers)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
