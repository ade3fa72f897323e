package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jwalitptl/agenda-api/internal/model"
)

func (r *profileRepository) GetProfiles(ctx context.Context, userIDs []uuid.UUID) ([]*model.Profile, error) {
	if len(userIDs) == 0 {
		return []*model.Profile{}, nil
	}
	query := `
		SELECT user_id, full_name, email
		FROM profiles
		WHERE user_id = ANY($1)
	`
	ids := make(pq.StringArray, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}

	profiles := []*model.Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, ids); err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	return profiles, nil
}

func (r *profileRepository) ProfessionalUserID(ctx context.Context, professionalID uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.GetContext(ctx, &userID, `SELECT user_id FROM professionals WHERE id = $1`, professionalID)
	if err != nil {
		return uuid.Nil, notFoundOr(err, "professional", "get professional")
	}
	return userID, nil
}
