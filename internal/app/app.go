// Package app wires the conversation machine to the resolver, classifier,
// and researchers, and owns conversation persistence. The HTTP layer calls
// into here; nothing in here knows about HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paintcode/internal/util"
	"paintcode/pkg/ai"
	"paintcode/pkg/conversation"
	"paintcode/pkg/diagnose"
	"paintcode/pkg/domain"
	"paintcode/pkg/paint"
	"paintcode/pkg/research"
	"paintcode/pkg/resolver"
	"paintcode/pkg/storage"
	"paintcode/pkg/store"
)

// ErrConversationNotFound is returned for unknown conversation IDs.
var ErrConversationNotFound = store.ErrNotFound

// effectBudget bounds the resolve/diagnose/research loop within one turn.
// A correct machine settles in far fewer steps; the cap guards against a
// planner bug turning into a spin.
const effectBudget = 10

// App is the assembled service.
type App struct {
	db         *paint.Database
	resolver   *resolver.Resolver
	classifier *diagnose.Classifier
	locations  *research.LocationResearcher
	era        *research.EraResearcher
	extractor  *ai.Extractor
	vision     ai.ImageAnalyzer
	store      store.ConversationStore
	photos     storage.PhotoStore
}

// Options collects the app's collaborators. Nil extractor, vision, and
// photos degrade gracefully; db, resolver, classifier, locations, era, and
// store are required.
type Options struct {
	DB         *paint.Database
	Resolver   *resolver.Resolver
	Classifier *diagnose.Classifier
	Locations  *research.LocationResearcher
	Era        *research.EraResearcher
	Extractor  *ai.Extractor
	Vision     ai.ImageAnalyzer
	Store      store.ConversationStore
	Photos     storage.PhotoStore
}

// New assembles the app.
func New(opts Options) *App {
	photos := opts.Photos
	if photos == nil {
		photos = storage.NoopStore{}
	}
	return &App{
		db:         opts.DB,
		resolver:   opts.Resolver,
		classifier: opts.Classifier,
		locations:  opts.Locations,
		era:        opts.Era,
		extractor:  opts.Extractor,
		vision:     opts.Vision,
		store:      opts.Store,
		photos:     photos,
	}
}

// TurnReply is what one chat turn produces.
type TurnReply struct {
	ConversationID string               `json:"conversationId"`
	Message        string               `json:"message"`
	Stage          string               `json:"stage"`
	Facts          domain.Facts         `json:"detectedInfo"`
	Result         *conversation.Result `json:"result,omitempty"`
}

// HandleTurn processes one user message. An empty conversationID starts a
// new conversation.
func (a *App) HandleTurn(ctx context.Context, conversationID, message string) (TurnReply, error) {
	conv, m, err := a.loadOrCreate(ctx, conversationID)
	if err != nil {
		return TurnReply{}, err
	}

	facts := factsFromParsed(conversation.ParseMessage(message))
	// The damage question was just asked; the answer is the damage
	// description even when no model is configured to extract it.
	if conversation.Stage(conv.Stage) == conversation.StageDiagnosing && facts.RepairProblem == "" {
		facts.RepairProblem = message
	}
	if a.extractor != nil {
		history, herr := a.store.Messages(ctx, conv.ID)
		if herr != nil {
			history = nil
		}
		extracted, xerr := a.extractor.ExtractVehicleInfo(ctx, history, message)
		if xerr != nil {
			util.LoggerFromContext(ctx).Warn("chat extraction failed", "conversation", conv.ID, "err", xerr)
		} else {
			// The deterministic parse wins over the model on conflicts.
			facts = conversation.MergeFacts(extracted.Facts(), facts)
		}
	}

	return a.runTurn(ctx, conv, m, message, conversation.Turn{
		Message: message,
		Facts:   facts,
		Source:  domain.SourceText,
	})
}

// HandlePhoto processes an uploaded vehicle image: archive it, analyze it,
// and feed the extracted facts through the conversation as a turn.
func (a *App) HandlePhoto(ctx context.Context, conversationID, contentType string, image []byte) (TurnReply, error) {
	if a.vision == nil {
		return TurnReply{}, fmt.Errorf("image analysis is not configured")
	}
	conv, m, err := a.loadOrCreate(ctx, conversationID)
	if err != nil {
		return TurnReply{}, err
	}

	photoID := util.NewID()
	if _, err := a.photos.SavePhoto(ctx, conv.ID, photoID, contentType, image); err != nil {
		// Archiving is best effort; identification continues.
		util.LoggerFromContext(ctx).Warn("photo archive failed", "conversation", conv.ID, "err", err)
	}

	analysis, err := ai.AnalyzePhoto(ctx, a.vision, contentType, image)
	if err != nil {
		return TurnReply{}, fmt.Errorf("analyze photo: %w", err)
	}

	turn := conversation.Turn{
		Message: "[photo upload]",
		Facts: domain.Facts{
			Brand:     analysis.Brand,
			Model:     analysis.Model,
			Year:      analysis.Year,
			PaintCode: analysis.PaintCode,
			ColorName: analysis.ColorName,
		},
		Source: analysis.Source(),
	}
	return a.runTurn(ctx, conv, m, turn.Message, turn)
}

func (a *App) loadOrCreate(ctx context.Context, conversationID string) (domain.Conversation, *conversation.Machine, error) {
	if conversationID == "" {
		now := time.Now().UTC()
		conv := domain.Conversation{
			ID:        util.NewID(),
			Stage:     string(conversation.StageWelcome),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.store.Create(ctx, conv); err != nil {
			return domain.Conversation{}, nil, fmt.Errorf("create conversation: %w", err)
		}
		return conv, conversation.New(), nil
	}

	conv, err := a.store.Get(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	return conv, conversation.Restore(conversation.Stage(conv.Stage), conv.Facts), nil
}

// runTurn advances the machine and executes its effects until it asks a
// question or emits the final result, then persists the outcome.
func (a *App) runTurn(ctx context.Context, conv domain.Conversation, m *conversation.Machine, userMessage string, turn conversation.Turn) (TurnReply, error) {
	log := util.LoggerFromContext(ctx)
	effects := m.Advance(turn)

	reply := TurnReply{ConversationID: conv.ID}

loop:
	for i := 0; ; i++ {
		if i >= effectBudget {
			return TurnReply{}, fmt.Errorf("conversation %s did not settle", conv.ID)
		}
		if len(effects) != 1 {
			return TurnReply{}, fmt.Errorf("conversation %s produced %d effects", conv.ID, len(effects))
		}
		effect := effects[0]

		switch effect.Kind {
		case conversation.EffectAskQuestion:
			reply.Message = effect.Question
			break loop

		case conversation.EffectEmitResult:
			result, err := m.Result()
			if err != nil {
				return TurnReply{}, fmt.Errorf("assemble result: %w", err)
			}
			reply.Result = &result
			reply.Message = resultMessage(result)
			break loop

		case conversation.EffectResolveColor:
			a.executeResolve(ctx, m)

		case conversation.EffectDiagnose:
			epoch := m.Epoch()
			d, err := a.classifier.Diagnose(ctx, m.Facts().RepairProblem)
			if err != nil {
				log.Warn("diagnosis failed", "conversation", conv.ID, "err", err)
				m.RecordDiagnosisFailure(epoch)
			} else {
				m.RecordDiagnosis(epoch, d)
			}

		case conversation.EffectResearchLocation:
			f := m.Facts()
			m.RecordLocation(m.Epoch(), a.locations.Research(ctx, f.Brand, f.Model, f.Year))

		case conversation.EffectResearchEra:
			f := m.Facts()
			epoch := m.Epoch()
			content, err := a.era.Research(ctx, f.Brand, f.Model, f.Year, f.RepairType)
			if err != nil {
				log.Warn("era research failed", "conversation", conv.ID, "err", err)
				content = domain.EraContent{}
			}
			m.RecordEra(epoch, content)

		default:
			return TurnReply{}, fmt.Errorf("unknown effect %q", effect.Kind)
		}

		if effect.Kind != conversation.EffectAskQuestion {
			effects = m.Continue()
		}
	}

	reply.Stage = string(m.Stage())
	reply.Facts = m.Facts()

	a.persistTurn(ctx, conv, m, userMessage, reply.Message)
	return reply, nil
}

// executeResolve runs the resolver with whatever color handle the facts
// hold: the paint code through the tiers, or a color name against the
// catalog.
func (a *App) executeResolve(ctx context.Context, m *conversation.Machine) {
	f := m.Facts()
	epoch := m.Epoch()

	if f.PaintCode != "" {
		res, err := a.resolver.Resolve(ctx, f.Brand, f.PaintCode)
		if err != nil {
			var nf *resolver.NotFoundError
			fallback := errors.As(err, &nf) && nf.FallbackToWebSearch
			m.RecordResolutionFailure(epoch, fallback)
			return
		}
		m.RecordResolution(epoch, res)
		return
	}

	// Color-name path: best catalog match for the described color.
	if matches := a.db.SearchByColorName(f.ColorName); len(matches) > 0 {
		rec := matches[0]
		m.RecordResolution(epoch, domain.Resolution{Record: rec, Tier: rec.Tier})
		return
	}
	m.RecordResolutionFailure(epoch, false)
}

func (a *App) persistTurn(ctx context.Context, conv domain.Conversation, m *conversation.Machine, userMessage, assistantMessage string) {
	log := util.LoggerFromContext(ctx)
	now := time.Now().UTC()

	for _, msg := range []domain.Message{
		{ID: util.NewID(), ConversationID: conv.ID, Role: "user", Content: userMessage, CreatedAt: now},
		{ID: util.NewID(), ConversationID: conv.ID, Role: "assistant", Content: assistantMessage, CreatedAt: now.Add(time.Millisecond)},
	} {
		if err := a.store.AppendMessage(ctx, msg); err != nil {
			log.Warn("append message failed", "conversation", conv.ID, "err", err)
		}
	}

	conv.Stage = string(m.Stage())
	conv.Facts = m.Facts()
	conv.Preview = preview(conv.Facts, userMessage)
	conv.UpdatedAt = now
	if err := a.store.Update(ctx, conv); err != nil {
		log.Warn("update conversation failed", "conversation", conv.ID, "err", err)
	}
}

func factsFromParsed(p conversation.ParsedInput) domain.Facts {
	return domain.Facts{
		Brand:     p.Brand,
		Model:     p.Model,
		Year:      p.Year,
		PaintCode: p.PaintCode,
	}
}

func preview(f domain.Facts, fallback string) string {
	if f.Brand != "" && f.Model != "" && f.Year != 0 {
		return fmt.Sprintf("%d %s %s", f.Year, f.Brand, f.Model)
	}
	if f.Brand != "" {
		return f.Brand
	}
	if len(fallback) > 60 {
		return fallback[:60]
	}
	return fallback
}

func resultMessage(r conversation.Result) string {
	rec := r.Resolution.Record
	msg := fmt.Sprintf("Your paint is %s (code %s). For your %s we recommend the %s.",
		rec.ColorName, rec.Code, r.Diagnosis.RepairType, r.Diagnosis.ProductName)
	if rec.Tier == domain.TierReference {
		msg += " " + rec.Disclaimer
	}
	return msg
}
