package svgmin

import (
	"context"

	"github.com/charmbracelet/log"
)

// Settings are the caller supplied knobs for one pipeline run.
type Settings struct {
	Level         Level  `json:"level"`
	Optimize      bool   `json:"optimize"`
	Strict        bool   `json:"strict"`
	DeepMinify    bool   `json:"deepMinify"`
	ComponentName string `json:"componentName"`
}

// Result is everything the page shell renders for one input.
type Result struct {
	Input    string           `json:"-"`
	Active   string           `json:"svg"` // optimized when optimization ran, raw input otherwise
	Settings Settings         `json:"settings"`
	Report   ValidationReport `json:"validation"`
	Stats    FileSizeStats    `json:"stats"`
	// FellBack is set when the optimizer discarded its output; NoEffect when
	// optimization ran but saved nothing. Both are meant to be shown to the user.
	FellBack bool          `json:"fellBack"`
	NoEffect bool          `json:"noEffect"`
	Notice   string        `json:"notice,omitempty"`
	Outputs  EncodedOutput `json:"outputs"`
	Seq      uint64        `json:"seq,omitempty"`
}

// Pipeline chains Validator, Optimizer and Encoders. It holds no per-document
// state and is safe for concurrent use.
type Pipeline struct {
	optimizer *Optimizer
	log       *log.Logger
}

func NewPipeline(logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = discardLogger()
	}
	o := NewOptimizer()
	o.SetLogger(logger)
	return &Pipeline{optimizer: o, log: logger}
}

// Process validates input and, when valid, optimizes and encodes it. A failed
// validation is not an error: the report explains it and outputs stay empty.
// The only error returned is the context's.
func (p *Pipeline) Process(ctx context.Context, input string, s Settings) (*Result, error) {
	if s.ComponentName == "" {
		s.ComponentName = defaultComponentName
	}
	res := &Result{Input: input, Settings: s}

	res.Report = Validate(input, s.Strict)
	if !res.Report.IsValid {
		p.log.Debug("validation failed", "err", res.Report.Error)
		return res, nil
	}

	res.Active = input
	if s.Optimize {
		opt, err := p.optimizer.Run(ctx, input, s.Level)
		if err != nil {
			return nil, err
		}
		res.Active = opt.Output
		res.FellBack = opt.FellBack
		if s.DeepMinify && !opt.FellBack {
			if out, ok := p.optimizer.Minify(res.Active); ok {
				res.Active = out
			}
		}
		switch {
		case res.FellBack:
			res.Notice = "optimization failed and was undone: " + opt.Err.Error()
		case len(res.Active) >= len(input):
			res.NoEffect = true
			res.Notice = "optimization had no effect"
		}
	}
	res.Stats = newFileSizeStats(input, res.Active)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Outputs = Encode(res.Active, s.ComponentName)
	return res, nil
}
