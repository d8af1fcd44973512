// core/scenario_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/cablegrid/model"
)

// Scenario is a tower line plus the sparks to place on it.
type Scenario struct {
	Hang     float64
	Segments int
	Template model.TowerTemplate
	Towers   []Vec3
	Sparks   []SparkSpec
}

// SparkSpec places a spark on the cable spanning towers Span and Span+1 that
// attaches at Slot.
type SparkSpec struct {
	Span      int
	Slot      int
	Speed     float64
	Direction int
}

// internal JSON shapes – keep them unexported so we’re free to evolve them.
type scenarioJSON struct {
	Hang     *float64            `json:"hang"`
	Segments int                 `json:"segments"`
	Template model.TowerTemplate `json:"template"`
	Towers   []model.Position    `json:"towers"`
	Sparks   []sparkJSON         `json:"sparks"`
}

type sparkJSON struct {
	StartSpan int     `json:"start_span"`
	StartSlot int     `json:"start_slot"`
	Speed     float64 `json:"speed"`
	Direction *int    `json:"direction"` // optional; defaults to forward
}

// LoadScenario reads a JSON scenario from r. Missing hang and segments fall
// back to DefaultHang and DefaultSegments.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	sc := &Scenario{
		Hang:     DefaultHang,
		Segments: DefaultSegments,
		Template: payload.Template,
		Towers:   make([]Vec3, 0, len(payload.Towers)),
		Sparks:   make([]SparkSpec, 0, len(payload.Sparks)),
	}
	if payload.Hang != nil {
		sc.Hang = *payload.Hang
	}
	if payload.Segments != 0 {
		sc.Segments = payload.Segments
	}
	if sc.Hang < 0 {
		return nil, fmt.Errorf("LoadScenario: %w: negative hang %g", ErrDegenerateCurve, sc.Hang)
	}
	if sc.Segments < 0 {
		return nil, fmt.Errorf("LoadScenario: %w: segment count %d", ErrInvalidCable, sc.Segments)
	}
	if len(payload.Towers) == 0 {
		return nil, fmt.Errorf("LoadScenario: no towers")
	}

	for _, p := range payload.Towers {
		sc.Towers = append(sc.Towers, VecFrom(p))
	}

	for i, s := range payload.Sparks {
		if s.StartSpan < 0 || s.StartSpan >= len(sc.Towers)-1 {
			return nil, fmt.Errorf("LoadScenario: spark %d: span %d out of range", i, s.StartSpan)
		}
		dir := 1
		if s.Direction != nil {
			dir = *s.Direction
		}
		sc.Sparks = append(sc.Sparks, SparkSpec{
			Span:      s.StartSpan,
			Slot:      s.StartSlot,
			Speed:     s.Speed,
			Direction: dir,
		})
	}

	return sc, nil
}

// LoadScenarioFile opens path and decodes it with LoadScenario.
func LoadScenarioFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	sc, err := LoadScenario(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
