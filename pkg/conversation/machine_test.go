package conversation

import (
	"math/rand"
	"strings"
	"testing"

	"paintcode/pkg/domain"
)

func testResolution() domain.Resolution {
	return domain.Resolution{
		Tier: domain.TierProduct,
		Record: domain.PaintRecord{
			Brand: "Toyota", Code: "040", ColorName: "Super White",
			Swatch:  domain.Swatch{Base: domain.RGB{R: 248, G: 248, B: 248}},
			Tier:    domain.TierProduct,
			InStock: true,
		},
	}
}

func testDiagnosis() domain.Diagnosis {
	return domain.Diagnosis{
		Problem:            "stone chip on the hood",
		RepairType:         domain.RepairChip,
		RecommendedProduct: domain.ProductTouchUpPen,
		ProductName:        "Touch-Up Paint Pen",
		Confidence:         0.9,
	}
}

// runEffects executes non-question effects against canned results until the
// machine either asks a question or emits the result.
func runEffects(t *testing.T, m *Machine, effects []Effect) []Effect {
	t.Helper()
	for i := 0; i < 10; i++ {
		if len(effects) != 1 {
			t.Fatalf("expected exactly one effect, got %v", effects)
		}
		switch effects[0].Kind {
		case EffectAskQuestion, EffectEmitResult:
			return effects
		case EffectResolveColor:
			m.RecordResolution(m.Epoch(), testResolution())
		case EffectDiagnose:
			m.RecordDiagnosis(m.Epoch(), testDiagnosis())
		case EffectResearchLocation:
			m.RecordLocation(m.Epoch(), domain.LocationInfo{Locations: []string{"Driver's side door jamb"}})
		case EffectResearchEra:
			m.RecordEra(m.Epoch(), domain.EraContent{Researched: true})
		}
		effects = m.Continue()
	}
	t.Fatal("effect loop did not settle")
	return nil
}

func TestHappyPath(t *testing.T) {
	m := New()
	if m.Stage() != StageWelcome {
		t.Fatalf("stage = %s", m.Stage())
	}

	// Partial info: machine must ask for what is missing.
	effects := m.Advance(Turn{
		Message: "I have a 2020 Toyota",
		Facts:   domain.Facts{Brand: "Toyota", Year: 2020},
	})
	if effects[0].Kind != EffectAskQuestion || m.Stage() != StageGathering {
		t.Fatalf("effects = %v, stage = %s", effects, m.Stage())
	}
	if !strings.Contains(effects[0].Question, "model") {
		t.Fatalf("question = %q", effects[0].Question)
	}

	// Complete basics: machine requests resolution, then asks to confirm.
	effects = m.Advance(Turn{
		Message: "Camry, paint code 040",
		Facts:   domain.Facts{Model: "Camry", PaintCode: "040"},
	})
	effects = runEffects(t, m, effects)
	if m.Stage() != StageVerifyingColor {
		t.Fatalf("stage = %s", m.Stage())
	}
	if !strings.Contains(effects[0].Question, "Super White") {
		t.Fatalf("question = %q", effects[0].Question)
	}

	// Confirmation moves on to the damage question.
	effects = m.Advance(Turn{Message: "yes, that's it"})
	if m.Stage() != StageDiagnosing || !strings.Contains(effects[0].Question, "damage") {
		t.Fatalf("stage = %s, effects = %v", m.Stage(), effects)
	}

	// Damage description drives diagnosis, research, and the final result.
	effects = m.Advance(Turn{
		Message: "stone chip on the hood",
		Facts:   domain.Facts{RepairProblem: "stone chip on the hood"},
	})
	effects = runEffects(t, m, effects)
	if effects[0].Kind != EffectEmitResult || m.Stage() != StageReady {
		t.Fatalf("effects = %v, stage = %s", effects, m.Stage())
	}

	res, err := m.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.Resolution.Record.ColorName != "Super White" || res.Diagnosis.RepairType != domain.RepairChip {
		t.Fatalf("result = %+v", res)
	}
	if !res.Facts.ColorVerified {
		t.Fatal("facts must record the confirmation")
	}
}

func TestSingleMessageProvidesEverything(t *testing.T) {
	m := New()
	effects := m.Advance(Turn{
		Message: "2020 Toyota Camry, code 040, chip on the hood",
		Facts: domain.Facts{
			Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040",
			RepairProblem: "chip on the hood",
		},
	})
	effects = runEffects(t, m, effects)
	// Color still needs confirming even when everything else is known.
	if m.Stage() != StageVerifyingColor || effects[0].Kind != EffectAskQuestion {
		t.Fatalf("stage = %s, effects = %v", m.Stage(), effects)
	}

	effects = m.Advance(Turn{Message: "yes"})
	effects = runEffects(t, m, effects)
	if effects[0].Kind != EffectEmitResult {
		t.Fatalf("effects = %v", effects)
	}
}

func TestColorRejectionRegression(t *testing.T) {
	m := New()
	effects := m.Advance(Turn{
		Message: "2020 Toyota Camry code 040",
		Facts:   domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040"},
	})
	runEffects(t, m, effects)
	epochBefore := m.Epoch()

	effects = m.Advance(Turn{Message: "no, that's not right"})
	if m.Stage() != StageGathering {
		t.Fatalf("stage after rejection = %s", m.Stage())
	}
	if m.Epoch() == epochBefore {
		t.Fatal("rejection must bump the epoch")
	}

	// Vehicle facts survive; only the color identification is gone.
	f := m.Facts()
	if f.Brand != "Toyota" || f.Model != "Camry" || f.Year != 2020 {
		t.Fatalf("vehicle facts lost: %+v", f)
	}
	if f.PaintCode != "" || f.ColorName != "" || f.ColorVerified {
		t.Fatalf("color facts must be cleared: %+v", f)
	}
	if !strings.Contains(effects[0].Question, "paint code") {
		t.Fatalf("question = %q", effects[0].Question)
	}
}

func TestCorrectedCodeSupersedesResolution(t *testing.T) {
	m := New()
	effects := runEffects(t, m, m.Advance(Turn{
		Message: "2020 Toyota Camry code 040",
		Facts:   domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040"},
	}))
	if !strings.Contains(effects[0].Question, "040") {
		t.Fatalf("question = %q", effects[0].Question)
	}
	staleEpoch := m.Epoch()

	// A plain correction, not a yes/no answer: the machine must drop the
	// 040 resolution and resolve the new code instead of re-confirming.
	effects = m.Advance(Turn{
		Message: "actually the code is 8X8",
		Facts:   domain.Facts{PaintCode: "8X8"},
	})
	if effects[0].Kind != EffectResolveColor {
		t.Fatalf("effects = %v", effects)
	}
	f := m.Facts()
	if f.PaintCode != "8X8" || f.ColorName != "" || f.HexColor != "" || f.ColorVerified {
		t.Fatalf("stale color facts survive correction: %+v", f)
	}
	if m.RecordResolution(staleEpoch, testResolution()) {
		t.Fatal("in-flight resolution for the old code must be fenced off")
	}

	res := domain.Resolution{
		Tier: domain.TierProduct,
		Record: domain.PaintRecord{
			Brand: "Toyota", Code: "8X8", ColorName: "Cavalry Blue",
			Swatch: domain.Swatch{Base: domain.RGB{R: 54, G: 95, B: 145}},
			Tier:   domain.TierProduct, InStock: true,
		},
	}
	if !m.RecordResolution(m.Epoch(), res) {
		t.Fatal("resolution for the corrected code not applied")
	}
	effects = m.Continue()
	if !strings.Contains(effects[0].Question, "Cavalry Blue") {
		t.Fatalf("question = %q", effects[0].Question)
	}
	if m.Facts().PaintCode != "8X8" {
		t.Fatalf("facts = %+v", m.Facts())
	}
}

func TestCorrectedBrandSupersedesResolution(t *testing.T) {
	m := New()
	runEffects(t, m, m.Advance(Turn{
		Facts: domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040"},
	}))
	m.Advance(Turn{Message: "yes"})

	// The brand changes after the color was already confirmed.
	effects := m.Advance(Turn{
		Message: "sorry, it's a Lexus, not a Toyota",
		Facts:   domain.Facts{Brand: "Lexus"},
	})
	if effects[0].Kind != EffectResolveColor {
		t.Fatalf("effects = %v", effects)
	}
	if m.Facts().ColorVerified {
		t.Fatal("confirmation must not survive a brand correction")
	}
	if m.Facts().Brand != "Lexus" {
		t.Fatalf("facts = %+v", m.Facts())
	}
}

func TestStaleResolutionDropped(t *testing.T) {
	m := New()
	runEffects(t, m, m.Advance(Turn{
		Message: "2020 Toyota Camry code 040",
		Facts:   domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040"},
	}))

	staleEpoch := m.Epoch()
	m.Advance(Turn{Message: "no"}) // bumps epoch

	if m.RecordResolution(staleEpoch, testResolution()) {
		t.Fatal("stale resolution must be dropped")
	}
	if m.Facts().ColorName != "" {
		t.Fatal("stale resolution leaked into facts")
	}
}

func TestVINSkipsConfirmation(t *testing.T) {
	m := New()
	effects := m.Advance(Turn{
		Facts: domain.Facts{
			Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040",
			RepairProblem: "scratched door",
		},
		Source: domain.SourceVIN,
	})
	effects = runEffects(t, m, effects)
	if effects[0].Kind != EffectEmitResult {
		t.Fatalf("VIN flow must not ask for confirmation, got %v at stage %s", effects, m.Stage())
	}
	if !m.Facts().ColorVerified {
		t.Fatal("VIN facts must count as verified")
	}
}

func TestResolutionFailureReasks(t *testing.T) {
	m := New()
	effects := m.Advance(Turn{
		Facts: domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "ZZZ"},
	})
	if effects[0].Kind != EffectResolveColor {
		t.Fatalf("effects = %v", effects)
	}

	if !m.RecordResolutionFailure(m.Epoch(), true) {
		t.Fatal("failure not applied")
	}
	effects = m.Continue()
	if m.Stage() != StageGathering || effects[0].Kind != EffectAskQuestion {
		t.Fatalf("stage = %s, effects = %v", m.Stage(), effects)
	}
	if !strings.Contains(effects[0].Question, "ZZZ") {
		t.Fatalf("question must mention the failed code: %q", effects[0].Question)
	}
	if m.Facts().PaintCode != "" {
		t.Fatal("failed code must be cleared")
	}
}

func TestResolutionFailureClearsStaleColor(t *testing.T) {
	m := Restore(StageVerifyingColor, domain.Facts{
		Brand: "Toyota", Model: "Camry", Year: 2020,
		PaintCode: "040", ColorName: "Super White", HexColor: "#F8F8F8",
	})
	effects := m.Continue()
	if effects[0].Kind != EffectResolveColor {
		t.Fatalf("effects = %v", effects)
	}

	if !m.RecordResolutionFailure(m.Epoch(), false) {
		t.Fatal("failure not applied")
	}
	f := m.Facts()
	if f.PaintCode != "" || f.ColorName != "" || f.HexColor != "" {
		t.Fatalf("failed resolution left color facts behind: %+v", f)
	}
}

func TestDiagnosisFailureReasks(t *testing.T) {
	m := New()
	runEffects(t, m, m.Advance(Turn{
		Facts: domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040"},
	}))
	m.Advance(Turn{Message: "yes"})

	effects := m.Advance(Turn{
		Message: "big dent",
		Facts:   domain.Facts{RepairProblem: "big dent"},
	})
	if effects[0].Kind != EffectDiagnose {
		t.Fatalf("effects = %v", effects)
	}
	if !m.RecordDiagnosisFailure(m.Epoch()) {
		t.Fatal("failure not applied")
	}
	effects = m.Continue()
	if effects[0].Kind != EffectAskQuestion || m.Stage() != StageDiagnosing {
		t.Fatalf("effects = %v, stage = %s", effects, m.Stage())
	}
	if m.Facts().RepairProblem != "" {
		t.Fatal("unclassifiable problem must be cleared")
	}
}

func TestResultRefusedBeforeReady(t *testing.T) {
	m := New()
	if _, err := m.Result(); err == nil {
		t.Fatal("Result must fail at welcome")
	}
	m.Advance(Turn{Facts: domain.Facts{Brand: "Toyota"}})
	if _, err := m.Result(); err == nil {
		t.Fatal("Result must fail while gathering")
	}
}

func TestRestore(t *testing.T) {
	facts := domain.Facts{Brand: "Toyota", Model: "Camry", Year: 2020, PaintCode: "040", ColorVerified: true}
	m := Restore(StageDiagnosing, facts)

	effects := m.Advance(Turn{
		Message: "rust on the fender",
		Facts:   domain.Facts{RepairProblem: "rust on the fender"},
	})
	effects = runEffects(t, m, effects)
	// Restored machines re-run resolution since results are not persisted,
	// but they must not re-ask for already-known facts.
	if effects[0].Kind != EffectEmitResult {
		t.Fatalf("effects = %v at stage %s", effects, m.Stage())
	}
}

// TestRandomizedTurns hammers the machine with arbitrary turn sequences and
// checks the standing invariants: exactly one effect per step, a result only
// at the ready stage, and never a result without a damage description.
func TestRandomizedTurns(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	turns := []Turn{
		{Message: "hi"},
		{Message: "2020 Toyota", Facts: domain.Facts{Brand: "Toyota", Year: 2020}},
		{Message: "Camry", Facts: domain.Facts{Model: "Camry"}},
		{Message: "code 040", Facts: domain.Facts{PaintCode: "040"}},
		{Message: "yes"},
		{Message: "no"},
		{Message: "scratch on the door", Facts: domain.Facts{RepairProblem: "scratch on the door"}},
		{Facts: domain.Facts{Brand: "Honda", Model: "Civic", Year: 2015, PaintCode: "NH-731P"}, Source: domain.SourceVIN},
	}

	for run := 0; run < 200; run++ {
		m := New()
		for step := 0; step < 12; step++ {
			var effects []Effect
			if rng.Intn(4) == 0 {
				effects = m.Continue()
			} else {
				effects = m.Advance(turns[rng.Intn(len(turns))])
			}
			if len(effects) != 1 {
				t.Fatalf("run %d step %d: effects = %v", run, step, effects)
			}

			// Execute the requested effect, randomly simulating failures
			// and stale epochs.
			epoch := m.Epoch()
			if rng.Intn(8) == 0 {
				epoch++ // simulate a result from a rejected generation
			}
			switch effects[0].Kind {
			case EffectResolveColor:
				if rng.Intn(3) == 0 {
					m.RecordResolutionFailure(epoch, rng.Intn(2) == 0)
				} else {
					m.RecordResolution(epoch, testResolution())
				}
			case EffectDiagnose:
				if rng.Intn(3) == 0 {
					m.RecordDiagnosisFailure(epoch)
				} else {
					m.RecordDiagnosis(epoch, testDiagnosis())
				}
			case EffectResearchLocation:
				m.RecordLocation(epoch, domain.LocationInfo{Locations: []string{"door jamb"}})
			case EffectResearchEra:
				m.RecordEra(epoch, domain.EraContent{Researched: true})
			case EffectEmitResult:
				res, err := m.Result()
				if err != nil {
					t.Fatalf("run %d step %d: EmitResult but Result failed: %v", run, step, err)
				}
				if res.Facts.RepairProblem == "" {
					t.Fatalf("run %d step %d: result without damage description", run, step)
				}
			}

			if m.Stage() != StageReady {
				if _, err := m.Result(); err == nil {
					t.Fatalf("run %d step %d: Result succeeded at stage %s", run, step, m.Stage())
				}
			}
		}
	}
}
