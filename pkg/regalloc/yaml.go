package regalloc

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-ilc/pkg/il"
)

// AllocationDoc is the YAML form of one function's allocation
type AllocationDoc struct {
	Function  string   `yaml:"function"`
	FrameSize int64    `yaml:"frame_size"`
	Vars      []VarDoc `yaml:"vars"`
}

// VarDoc describes one variable slot
type VarDoc struct {
	Name   string     `yaml:"name"`
	Slot   int        `yaml:"slot"`
	Start  int        `yaml:"start"`
	End    int        `yaml:"end"`
	Phases []PhaseDoc `yaml:"phases"`
}

// PhaseDoc describes one timeline phase
type PhaseDoc struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Loc   string `yaml:"loc"`
}

// Doc converts an allocation into its YAML document form. Unused slots are omitted.
func Doc(fn *il.Function, alloc *Allocation) AllocationDoc {
	doc := AllocationDoc{Function: fn.Name, FrameSize: -alloc.FrameSize}
	for s, iv := range alloc.Intervals {
		if iv == nil {
			continue
		}
		v := VarDoc{Name: slotName(fn, s), Slot: s, Start: iv.Start, End: iv.End}
		for _, p := range alloc.Timelines[s] {
			v.Phases = append(v.Phases, PhaseDoc{Start: p.Start, End: p.End, Loc: p.Loc.String()})
		}
		doc.Vars = append(doc.Vars, v)
	}
	return doc
}

// WriteYAML writes the allocations of every function as a YAML sequence
func WriteYAML(w io.Writer, prog *il.Program, allocs []*Allocation) error {
	docs := make([]AllocationDoc, len(prog.Functions))
	for i := range prog.Functions {
		docs[i] = Doc(&prog.Functions[i], allocs[i])
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}
