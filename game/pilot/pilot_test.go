package pilot

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/wricardo/mcp-training/snakegame/game/classifier"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/planner"
)

func testGrid(food engine.Position) *engine.Grid {
	body := []engine.Position{{X: 100, Y: 50}, {X: 90, Y: 50}, {X: 80, Y: 50}}
	g := engine.NewGrid(480, 480, body, engine.Right, true, rand.New(rand.NewSource(1)))
	g.Food = food
	return g
}

func fixedOracle(label string, err error) classifier.Oracle {
	return classifier.OracleFunc(func(ctx context.Context, f classifier.Features) (string, error) {
		return label, err
	})
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyKeyboard, false},
		{"keyboard", PolicyKeyboard, false},
		{"Autopilot", PolicyAutopilot, false},
		{" classifier ", PolicyClassifier, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownPolicy) {
				t.Errorf("ParsePolicy(%q) expected ErrUnknownPolicy, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParsePolicy(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestDecide_Keyboard(t *testing.T) {
	p := New(nil)
	g := testGrid(engine.Position{X: 300, Y: 300})

	tests := []struct {
		key  string
		want engine.Direction
	}{
		{"w", engine.Up},
		{"ArrowDown", engine.Down},
		{"a", engine.Right},
		{"left", engine.Right},
		{"", engine.Right},
	}
	for _, tt := range tests {
		d, err := p.Decide(context.Background(), g, Request{Policy: PolicyKeyboard, Key: tt.key})
		if err != nil {
			t.Fatalf("Decide(%q) failed: %v", tt.key, err)
		}
		if d.Direction != tt.want {
			t.Errorf("Decide(%q) = %s, want %s", tt.key, d.Direction, tt.want)
		}
		if d.Source != "keyboard" {
			t.Errorf("Expected keyboard source, got %s", d.Source)
		}
	}

	if _, err := p.Decide(context.Background(), g, Request{Key: "q"}); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
}

func TestDecide_Autopilot(t *testing.T) {
	p := New(nil)
	g := testGrid(engine.Position{X: 100, Y: 40})

	d, err := p.Decide(context.Background(), g, Request{Policy: PolicyAutopilot, Key: "s"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if d.Direction != engine.Up {
		t.Errorf("Expected autopilot to head UP to the food, got %s", d.Direction)
	}
	if d.Autopilot == nil || d.Autopilot.Tier != planner.TierPath {
		t.Errorf("Expected path tier decision, got %+v", d.Autopilot)
	}
}

func TestDecide_Classifier(t *testing.T) {
	food := engine.Position{X: 100, Y: 40}

	tests := []struct {
		name         string
		label        string
		oracleErr    error
		want         engine.Direction
		wantAccepted bool
	}{
		{"accepted label", "RIGHT", nil, engine.Right, true},
		{"nominal code", "0", nil, engine.Up, true},
		{"reverses autopilot", "DOWN", nil, engine.Up, false},
		{"reverses heading", "LEFT", nil, engine.Up, false},
		{"unknown label", "JUMP", nil, engine.Up, false},
		{"oracle failure", "", errors.New("timeout"), engine.Up, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(fixedOracle(tt.label, tt.oracleErr))
			d, err := p.Decide(context.Background(), testGrid(food), Request{Policy: PolicyClassifier})
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if d.Direction != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, d.Direction)
			}
			if d.LabelAccepted != tt.wantAccepted {
				t.Errorf("Expected accepted=%v, got %v", tt.wantAccepted, d.LabelAccepted)
			}
			if tt.wantAccepted && d.Source != "classifier" {
				t.Errorf("Expected classifier source, got %s", d.Source)
			}
			if tt.oracleErr != nil && d.OracleError == "" {
				t.Error("Expected oracle error to be recorded")
			}
		})
	}
}

func TestDecide_ClassifierWithoutOracle(t *testing.T) {
	p := New(nil)
	if p.HasOracle() {
		t.Error("Expected no oracle")
	}
	_, err := p.Decide(context.Background(), testGrid(engine.Position{X: 300, Y: 300}), Request{Policy: PolicyClassifier})
	if !errors.Is(err, ErrNoOracle) {
		t.Errorf("Expected ErrNoOracle, got %v", err)
	}
}

func TestDecide_UnknownPolicy(t *testing.T) {
	_, err := New(nil).Decide(context.Background(), testGrid(engine.Position{X: 300, Y: 300}), Request{Policy: "telepathy"})
	if !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("Expected ErrUnknownPolicy, got %v", err)
	}
}

func TestDecide_KeyTurnsBeforePlanning(t *testing.T) {
	ctx := context.Background()
	p := New(nil)

	t.Run("stuck keeps the keyed heading", func(t *testing.T) {
		body := []engine.Position{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 20}}
		g := engine.NewGrid(50, 50, body, engine.Up, false, rand.New(rand.NewSource(1)))
		g.Food = engine.Position{X: 40, Y: 40}

		d, err := p.Decide(ctx, g, Request{Policy: PolicyAutopilot, Key: "a"})
		if err != nil {
			t.Fatalf("Decide failed: %v", err)
		}
		if d.Autopilot.Tier != planner.TierStuck || d.Direction != engine.Left {
			t.Errorf("Expected stuck LEFT, got %s %s", d.Autopilot.Tier, d.Direction)
		}
		if g.Direction != engine.Up {
			t.Errorf("Decide changed the live heading to %s", g.Direction)
		}
	})

	t.Run("edge target follows the keyed axis", func(t *testing.T) {
		tests := []struct {
			key  string
			want engine.Position
		}{
			{"", engine.Position{X: 100, Y: 470}},
			{"w", engine.Position{X: 470, Y: 50}},
			{"a", engine.Position{X: 100, Y: 470}},
		}
		for _, tt := range tests {
			g := testGrid(engine.Position{X: 90, Y: 50})
			d, err := p.Decide(ctx, g, Request{Policy: PolicyAutopilot, Key: tt.key})
			if err != nil {
				t.Fatalf("Decide(%q) failed: %v", tt.key, err)
			}
			if d.Autopilot.Tier != planner.TierEdge || d.Autopilot.Target != tt.want {
				t.Errorf("Decide(%q) = %s toward %+v, want edge toward %+v", tt.key, d.Autopilot.Tier, d.Autopilot.Target, tt.want)
			}
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := p.Decide(ctx, testGrid(engine.Position{X: 300, Y: 300}), Request{Policy: PolicyAutopilot, Key: "q"})
		if !errors.Is(err, ErrUnknownKey) {
			t.Errorf("Expected ErrUnknownKey, got %v", err)
		}
	})
}

func TestDecide_ClassifierSeesKeyedHeading(t *testing.T) {
	var seen classifier.Features
	label := "LEFT"
	p := New(classifier.OracleFunc(func(ctx context.Context, f classifier.Features) (string, error) {
		seen = f
		return label, nil
	}))
	g := testGrid(engine.Position{X: 100, Y: 40})

	d, err := p.Decide(context.Background(), g, Request{Policy: PolicyClassifier, Key: "w"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if seen.Heading != int(engine.Up) {
		t.Errorf("Expected the classifier to see heading UP, got %d", seen.Heading)
	}
	// LEFT would reverse the snake's actual heading
	if d.LabelAccepted || d.Direction != engine.Up {
		t.Errorf("Expected LEFT to be rejected, got %s accepted=%v", d.Direction, d.LabelAccepted)
	}

	label = "RIGHT"
	d, err = p.Decide(context.Background(), g, Request{Policy: PolicyClassifier, Key: "w"})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if !d.LabelAccepted || d.Direction != engine.Right {
		t.Errorf("Expected RIGHT to be accepted, got %s accepted=%v", d.Direction, d.LabelAccepted)
	}
}
