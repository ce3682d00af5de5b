package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/modelhub/portal/internal/account"
	"github.com/modelhub/portal/internal/model"
)

// GetPreferences returns the saved preferences of a user, or
// account.ErrPreferencesNotFound.
func (r *Repository) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	query := `
		SELECT user_id, email_notifications, usage_alerts, usage_alert_percent,
		       muted_types, timezone, updated_at
		FROM account_preferences
		WHERE user_id = $1
	`

	var p model.Preferences
	var muted []string
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.EmailNotifications,
		&p.UsageAlerts,
		&p.UsageAlertPercent,
		pq.Array(&muted),
		&p.Timezone,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, account.ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	if muted == nil {
		muted = []string{}
	}
	p.MutedTypes = muted
	return &p, nil
}

// PutPreferences inserts or replaces the preferences of a user.
func (r *Repository) PutPreferences(ctx context.Context, p *model.Preferences) error {
	query := `
		INSERT INTO account_preferences
			(user_id, email_notifications, usage_alerts, usage_alert_percent, muted_types, timezone, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			email_notifications = EXCLUDED.email_notifications,
			usage_alerts        = EXCLUDED.usage_alerts,
			usage_alert_percent = EXCLUDED.usage_alert_percent,
			muted_types         = EXCLUDED.muted_types,
			timezone            = EXCLUDED.timezone,
			updated_at          = EXCLUDED.updated_at
	`

	muted := p.MutedTypes
	if muted == nil {
		muted = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		p.UserID,
		p.EmailNotifications,
		p.UsageAlerts,
		p.UsageAlertPercent,
		pq.Array(muted),
		p.Timezone,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
