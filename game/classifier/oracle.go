package classifier

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// ErrUnknownLabel is returned when a model answers with something other than a heading
var ErrUnknownLabel = errors.New("unknown direction label")

// NumFeatures is the length of Features.Vector
const NumFeatures = 9

// Features is the model input describing one tick
type Features struct {
	HeadX      float64 `json:"head_x"`
	HeadY      float64 `json:"head_y"`
	FoodX      float64 `json:"food_x"`
	FoodY      float64 `json:"food_y"`
	BodyLength float64 `json:"body_length"`
	DeltaX     float64 `json:"delta_x"`
	DeltaY     float64 `json:"delta_y"`
	Distance   float64 `json:"distance"`
	// Heading uses the nominal codes 0 up, 1 down, 2 left, 3 right
	Heading int `json:"heading"`
}

// FeaturesFromGrid builds the feature row for the board as it stands before the move
func FeaturesFromGrid(g *engine.Grid) Features {
	head := g.Head()
	return Features{
		HeadX:      float64(head.X),
		HeadY:      float64(head.Y),
		FoodX:      float64(g.Food.X),
		FoodY:      float64(g.Food.Y),
		BodyLength: float64(g.Len()),
		DeltaX:     float64(g.Food.X - head.X),
		DeltaY:     float64(g.Food.Y - head.Y),
		Distance:   engine.EuclideanDistance(head, g.Food),
		Heading:    int(g.Direction),
	}
}

// Vector returns the eight numeric attributes followed by the heading code
func (f Features) Vector() []float64 {
	return []float64{
		f.HeadX, f.HeadY, f.FoodX, f.FoodY, f.BodyLength,
		f.DeltaX, f.DeltaY, f.Distance, float64(f.Heading),
	}
}

// Float32 is Vector converted for tensor runtimes
func (f Features) Float32() []float32 {
	v := f.Vector()
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Oracle predicts a direction label for a feature row
type Oracle interface {
	Predict(ctx context.Context, f Features) (string, error)
}

// OracleFunc adapts a function to the Oracle interface
type OracleFunc func(ctx context.Context, f Features) (string, error)

func (fn OracleFunc) Predict(ctx context.Context, f Features) (string, error) {
	return fn(ctx, f)
}

// ParseLabel maps a model label to a heading. Direction names are matched
// case-insensitively and the digits 0-3 are read as nominal heading codes.
func ParseLabel(label string) (engine.Direction, error) {
	label = strings.TrimSpace(label)
	if d, ok := engine.ParseDirection(label); ok {
		return d, nil
	}
	if n, err := strconv.Atoi(label); err == nil {
		if d, ok := engine.DirectionFromAction(n); ok {
			return d, nil
		}
	}
	return engine.Up, ErrUnknownLabel
}

// Labels lists the class labels in nominal order
func Labels() []string {
	labels := make([]string, 0, len(engine.Directions))
	for _, d := range engine.Directions {
		labels = append(labels, d.String())
	}
	return labels
}
