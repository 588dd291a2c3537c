package svgmin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/minify/v2"
)

// Level is an optimization tier. Each level applies every rule of the levels
// below it plus its own.
type Level int

const (
	Conservative Level = iota
	Balanced
	Aggressive
	Maximum
)

var levelNames = [...]string{"conservative", "balanced", "aggressive", "maximum"}

func (l Level) String() string {
	if l < Conservative || l > Maximum {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	return Conservative, errors.New("unknown optimization level: " + s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

type FileSizeStats struct {
	OriginalSizeBytes  int     `json:"originalSizeBytes"`
	OptimizedSizeBytes int     `json:"optimizedSizeBytes"`
	ReductionPercent   float64 `json:"reductionPercent"`
}

func newFileSizeStats(original, optimized string) FileSizeStats {
	st := FileSizeStats{OriginalSizeBytes: len(original), OptimizedSizeBytes: len(optimized)}
	if st.OriginalSizeBytes > 0 {
		pct := float64(st.OriginalSizeBytes-st.OptimizedSizeBytes) / float64(st.OriginalSizeBytes) * 100
		st.ReductionPercent = math.Round(pct*100) / 100
	}
	return st
}

// Optimization is the outcome of one optimizer run.
type Optimization struct {
	Output   string
	Level    Level
	Stats    FileSizeStats
	FellBack bool  // the original input was returned because the run failed
	Err      error // why it fell back
}

type Optimizer struct {
	min *minify.M
	log *log.Logger
}

func NewOptimizer() *Optimizer {
	return &Optimizer{
		min: newMinifier(),
		log: discardLogger(),
	}
}

func (o *Optimizer) SetLogger(l *log.Logger) {
	if l == nil {
		l = discardLogger()
	}
	o.log = l
}

var defaultOptimizer = NewOptimizer()

// Optimize runs the rules of level over svg. It never fails: when anything
// goes wrong the input comes back unchanged.
func Optimize(svg string, level Level) string {
	return defaultOptimizer.Optimize(svg, level)
}

func (o *Optimizer) Optimize(svg string, level Level) string {
	res, _ := o.Run(context.Background(), svg, level)
	return res.Output
}

// Run is Optimize with cancellation between rules and a full report. The
// returned error is only ever ctx.Err(); rule failures fall back instead.
func (o *Optimizer) Run(ctx context.Context, svg string, level Level) (res Optimization, err error) {
	res = Optimization{Output: svg, Level: level}

	fallback := func(cause error) {
		o.log.Warn("optimization fell back to original input", "level", level, "err", cause)
		res.Output = svg
		res.FellBack = true
		res.Err = cause
	}

	defer func() {
		if r := recover(); r != nil {
			fallback(fmt.Errorf("optimizer panic: %v", r))
		}
		res.Stats = newFileSizeStats(svg, res.Output)
	}()

	if level < Conservative || level > Maximum {
		fallback(errors.New("unknown optimization level " + level.String()))
		return res, nil
	}

	doc, perr := ParseDocument(svg)
	if perr != nil {
		fallback(perr)
		return res, nil
	}
	root := doc.Root()
	if root == nil {
		fallback(ErrNoSvgRoot)
		return res, nil
	}

	for _, r := range rulesFor(level) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.apply(o, doc, root)
	}
	// removals above can leave whitespace runs behind, settle them once more
	if level >= Maximum {
		tidyWhitespace(root, true)
	} else {
		tidyWhitespace(root, false)
	}

	out := doc.String()
	if !hasSvgPair(out) {
		fallback(errors.New("optimized output lost its <svg> element"))
		return res, nil
	}
	// rewriting can grow a few constructs (CDATA, quotes); never hand back more bytes
	if len(out) > len(svg) {
		return res, nil
	}
	res.Output = out
	return res, nil
}

// Minify runs the tdewolff svg minifier over an already optimized document.
// The result is kept only when it is smaller and still a complete <svg> pair.
func (o *Optimizer) Minify(svg string) (string, bool) {
	out, err := o.min.String(svgMediaType, svg)
	if err != nil {
		o.log.Warn("svg minifier failed", "err", err)
		return svg, false
	}
	if !hasSvgPair(out) || len(out) >= len(svg) {
		return svg, false
	}
	return out, true
}

func hasSvgPair(s string) bool {
	return strings.Contains(s, "<svg") && strings.Contains(s, "</svg>")
}
