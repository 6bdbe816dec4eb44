package app

import (
	"context"

	"paintcode/pkg/domain"
)

// The direct API operations. These skip the conversation machine and hit the
// pipeline components straight on, for clients that already know what they
// want.

// Lookup resolves a brand and paint code through the tiers.
func (a *App) Lookup(ctx context.Context, brand, code string) (domain.Resolution, error) {
	return a.resolver.Resolve(ctx, brand, code)
}

// Diagnose classifies a damage description.
func (a *App) Diagnose(ctx context.Context, problem string) (domain.Diagnosis, error) {
	return a.classifier.Diagnose(ctx, problem)
}

// ResearchLocation answers where the paint code label is on a vehicle.
func (a *App) ResearchLocation(ctx context.Context, brand, model string, year int) domain.LocationInfo {
	return a.locations.Research(ctx, brand, model, year)
}

// ResearchEra finds era-appropriate repair content.
func (a *App) ResearchEra(ctx context.Context, brand, model string, year int, repair domain.RepairType) (domain.EraContent, error) {
	return a.era.Research(ctx, brand, model, year, repair)
}

// SearchColors finds purchasable colors by name.
func (a *App) SearchColors(query string) []domain.PaintRecord {
	return a.db.SearchByColorName(query)
}

// SimilarColors suggests purchasable alternatives near a reference color.
func (a *App) SimilarColors(ref domain.RGB, limit int) []domain.PaintRecord {
	return a.db.SimilarColors(ref, limit)
}

// Brands lists the purchasable catalog brands.
func (a *App) Brands() []string {
	return a.db.Brands()
}

// Conversations lists saved conversations, most recent first.
func (a *App) Conversations(ctx context.Context, limit int) ([]domain.Conversation, error) {
	return a.store.List(ctx, limit)
}

// Conversation fetches one conversation and its transcript.
func (a *App) Conversation(ctx context.Context, id string) (domain.Conversation, []domain.Message, error) {
	conv, err := a.store.Get(ctx, id)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	msgs, err := a.store.Messages(ctx, id)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	return conv, msgs, nil
}

// DeleteConversation removes a conversation, its transcript, and any
// archived photos.
func (a *App) DeleteConversation(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	return a.photos.DeletePhotos(ctx, id)
}
