// Package conversation drives the multi-stage paint identification dialog.
// The machine is pure state: it consumes user turns and completed side-effect
// results, and emits the next effects for the caller to execute. Nothing in
// here performs I/O, which is what makes the flow testable turn by turn.
package conversation

import (
	"fmt"
	"strings"

	"paintcode/pkg/domain"
	"paintcode/pkg/paint"
)

// Stage names the dialog phases. Stages only matter for persistence and for
// deciding how to interpret the next user message; the planner itself works
// off accumulated facts.
type Stage string

const (
	StageWelcome        Stage = "welcome"
	StageGathering      Stage = "gathering_info"
	StageVerifyingColor Stage = "verifying_color"
	StageDiagnosing     Stage = "diagnosing_problem"
	StageLocation       Stage = "researching_location"
	StageEra            Stage = "researching_era_content"
	StageReady          Stage = "ready_for_result"
)

// EffectKind is an action the caller must perform on the machine's behalf.
type EffectKind string

const (
	EffectAskQuestion      EffectKind = "ask_question"
	EffectResolveColor     EffectKind = "resolve_color"
	EffectDiagnose         EffectKind = "diagnose"
	EffectResearchLocation EffectKind = "research_location"
	EffectResearchEra      EffectKind = "research_era"
	EffectEmitResult       EffectKind = "emit_result"
)

// Effect is a single action request. Question is set for EffectAskQuestion.
type Effect struct {
	Kind     EffectKind
	Question string
}

// Turn is one user message, pre-digested: Facts is the merged output of the
// deterministic parser and the model extraction, Message the raw text for
// yes/no interpretation.
type Turn struct {
	Message string
	Facts   domain.Facts
	Source  domain.FactSource
}

// Result is the completed identification package.
type Result struct {
	Facts      domain.Facts        `json:"facts"`
	Resolution domain.Resolution   `json:"resolution"`
	Diagnosis  domain.Diagnosis    `json:"diagnosis"`
	Location   domain.LocationInfo `json:"location"`
	Era        domain.EraContent   `json:"eraContent"`
}

// Machine holds one conversation's dialog state. Not safe for concurrent
// use; the owning session serializes access.
type Machine struct {
	stage Stage
	facts domain.Facts

	// epoch fences async effect results. Rejecting a color bumps it, so a
	// research result that raced the rejection is dropped on arrival.
	epoch uint64

	resolution *domain.Resolution
	diagnosis  *domain.Diagnosis
	location   *domain.LocationInfo
	era        *domain.EraContent

	notice string
}

// New starts a conversation at the welcome stage.
func New() *Machine {
	return &Machine{stage: StageWelcome}
}

// Restore rebuilds a machine from persisted stage and facts. Side-effect
// results are not persisted; the planner will simply request them again.
func Restore(stage Stage, facts domain.Facts) *Machine {
	if stage == "" {
		stage = StageWelcome
	}
	return &Machine{stage: stage, facts: facts}
}

// Stage returns the current dialog stage.
func (m *Machine) Stage() Stage { return m.stage }

// Facts returns the accumulated fact set.
func (m *Machine) Facts() domain.Facts { return m.facts }

// Epoch returns the fence value to attach to async effect executions.
func (m *Machine) Epoch() uint64 { return m.epoch }

// Advance consumes a user turn and returns the effects to execute next.
func (m *Machine) Advance(t Turn) []Effect {
	if m.stage == StageVerifyingColor {
		// Negation first: "no, that's not right" also contains "right".
		switch {
		case IsNegative(t.Message):
			m.rejectColor()
		case IsAffirmative(t.Message):
			m.facts.ColorVerified = true
		}
	}

	// A re-stated brand or code supersedes the identification in progress:
	// the old resolution no longer describes the vehicle the user means.
	if m.resolution != nil && m.contradictsResolution(t.Facts) {
		m.facts.ColorName = ""
		m.facts.HexColor = ""
		m.facts.ColorVerified = false
		m.resolution = nil
		m.epoch++
	}

	m.facts = MergeFacts(m.facts, t.Facts)
	if t.Source == domain.SourceVIN {
		m.facts.ImageType = domain.SourceVIN
	} else if t.Source == domain.SourcePhoto && m.facts.ImageType == "" {
		m.facts.ImageType = domain.SourcePhoto
	}
	return m.plan()
}

// Continue re-plans without a user turn, after effect results were recorded.
func (m *Machine) Continue() []Effect {
	return m.plan()
}

// contradictsResolution reports whether the incoming facts name a different
// brand or paint code than the one already resolved.
func (m *Machine) contradictsResolution(f domain.Facts) bool {
	if f.PaintCode != "" && !strings.EqualFold(f.PaintCode, m.facts.PaintCode) {
		return true
	}
	if f.Brand != "" && !strings.EqualFold(f.Brand, m.facts.Brand) {
		return true
	}
	return false
}

// rejectColor rolls the conversation back to fact gathering. Only the color
// identification is discarded; vehicle and damage facts survive.
func (m *Machine) rejectColor() {
	m.facts.PaintCode = ""
	m.facts.ColorName = ""
	m.facts.HexColor = ""
	m.facts.ColorVerified = false
	m.resolution = nil
	m.epoch++
	m.notice = "No problem, let's try again."
	m.stage = StageGathering
}

func (m *Machine) plan() []Effect {
	f := m.facts

	if missing := m.missingBasics(); len(missing) > 0 {
		m.stage = StageGathering
		return []Effect{m.ask(gatheringQuestion(missing))}
	}

	// Resolution is not persisted, so a restored conversation re-resolves
	// even when the color was already confirmed.
	if m.resolution == nil {
		m.stage = StageVerifyingColor
		return []Effect{{Kind: EffectResolveColor}}
	}
	if !f.ColorVerified {
		if f.ImageType == domain.SourceVIN {
			// VIN label facts are ground truth; no confirmation round.
			m.facts.ColorVerified = true
		} else {
			m.stage = StageVerifyingColor
			return []Effect{m.ask(confirmQuestion(m.resolution.Record))}
		}
	}

	if m.facts.RepairProblem == "" {
		m.stage = StageDiagnosing
		return []Effect{m.ask("What kind of paint damage are you repairing? For example a stone chip, a scratch, rust, or a larger faded area.")}
	}
	if m.diagnosis == nil {
		m.stage = StageDiagnosing
		return []Effect{{Kind: EffectDiagnose}}
	}
	if m.location == nil {
		m.stage = StageLocation
		return []Effect{{Kind: EffectResearchLocation}}
	}
	if m.era == nil {
		m.stage = StageEra
		return []Effect{{Kind: EffectResearchEra}}
	}

	m.stage = StageReady
	return []Effect{{Kind: EffectEmitResult}}
}

func (m *Machine) missingBasics() []string {
	var missing []string
	if m.facts.Brand == "" {
		missing = append(missing, "brand")
	}
	if m.facts.Model == "" {
		missing = append(missing, "model")
	}
	if m.facts.Year == 0 {
		missing = append(missing, "year")
	}
	if m.facts.PaintCode == "" && m.facts.ColorName == "" {
		missing = append(missing, "paint code or color name")
	}
	return missing
}

// ask builds an AskQuestion effect, prefixing any pending one-shot notice.
func (m *Machine) ask(question string) Effect {
	if m.notice != "" {
		question = m.notice + " " + question
		m.notice = ""
	}
	return Effect{Kind: EffectAskQuestion, Question: question}
}

func gatheringQuestion(missing []string) string {
	return fmt.Sprintf("Could you tell me your vehicle's %s?", joinNatural(missing))
}

func confirmQuestion(rec domain.PaintRecord) string {
	name := rec.ColorName
	if name == "" {
		name = rec.Code
	}
	return fmt.Sprintf("I found %s (%s, code %s). Does that look like your color?",
		name, paint.RGBToHex(rec.Swatch.Base), rec.Code)
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}

// RecordResolution applies a completed color resolution. Returns false when
// the result is stale (the user rejected the color while it was in flight).
func (m *Machine) RecordResolution(epoch uint64, res domain.Resolution) bool {
	if epoch != m.epoch {
		return false
	}
	m.resolution = &res
	m.facts.ColorName = res.Record.ColorName
	m.facts.PaintCode = res.Record.Code
	m.facts.HexColor = paint.RGBToHex(res.Record.Swatch.Base)
	return true
}

// RecordResolutionFailure rolls back the paint code so gathering asks for it
// again, with a notice explaining what happened.
func (m *Machine) RecordResolutionFailure(epoch uint64, fallbackToWebSearch bool) bool {
	if epoch != m.epoch {
		return false
	}
	m.notice = fmt.Sprintf("I couldn't find a match for code %q.", m.facts.PaintCode)
	if fallbackToWebSearch {
		m.notice = fmt.Sprintf("I couldn't verify code %q from my data or research.", m.facts.PaintCode)
	}
	m.facts.PaintCode = ""
	m.facts.ColorName = ""
	m.facts.HexColor = ""
	m.facts.ColorVerified = false
	m.resolution = nil
	m.stage = StageGathering
	return true
}

// RecordDiagnosis applies a completed repair diagnosis.
func (m *Machine) RecordDiagnosis(epoch uint64, d domain.Diagnosis) bool {
	if epoch != m.epoch {
		return false
	}
	m.diagnosis = &d
	m.facts.RepairType = d.RepairType
	m.facts.RecommendedProduct = d.RecommendedProduct
	return true
}

// RecordDiagnosisFailure asks the user to rephrase the damage description.
func (m *Machine) RecordDiagnosisFailure(epoch uint64) bool {
	if epoch != m.epoch {
		return false
	}
	m.notice = "I couldn't classify that damage."
	m.facts.RepairProblem = ""
	m.facts.RepairType = ""
	m.facts.RecommendedProduct = ""
	m.diagnosis = nil
	return true
}

// RecordLocation applies a completed label location research result.
func (m *Machine) RecordLocation(epoch uint64, info domain.LocationInfo) bool {
	if epoch != m.epoch {
		return false
	}
	m.location = &info
	return true
}

// RecordEra applies a completed era content research result.
func (m *Machine) RecordEra(epoch uint64, content domain.EraContent) bool {
	if epoch != m.epoch {
		return false
	}
	m.era = &content
	return true
}

// Result assembles the final package. It fails unless the machine reached
// the ready stage with every component recorded; a result without a damage
// description must never be emitted.
func (m *Machine) Result() (Result, error) {
	if m.stage != StageReady {
		return Result{}, fmt.Errorf("conversation not ready: stage %s", m.stage)
	}
	if m.facts.RepairProblem == "" {
		return Result{}, fmt.Errorf("conversation reached ready without a damage description")
	}
	if m.resolution == nil || m.diagnosis == nil || m.location == nil || m.era == nil {
		return Result{}, fmt.Errorf("conversation reached ready with missing components")
	}
	return Result{
		Facts:      m.facts,
		Resolution: *m.resolution,
		Diagnosis:  *m.diagnosis,
		Location:   *m.location,
		Era:        *m.era,
	}, nil
}
