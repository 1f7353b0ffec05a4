package services

import (
	"context"
	"encoding/json"

	"github.com/mirea/edupulse/internal/app/auth"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/rs/zerolog"
)

// auditor appends activity log rows. Failures are logged and never fail the caller.
type auditor struct {
	logs   LogStore
	logger zerolog.Logger
}

func encodeValues(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (a auditor) record(ctx context.Context, actor auth.Actor, action, table string, recordID int64, oldValues, newValues interface{}) {
	if a.logs == nil {
		return
	}
	entry := &models.ActivityLog{
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		OldValues: encodeValues(oldValues),
		NewValues: encodeValues(newValues),
	}
	if actor.UserID > 0 {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := a.logs.CreateActivityLog(ctx, entry); err != nil {
		a.logger.Warn().Err(err).Str("action", action).Str("table", table).Int64("recordID", recordID).Msg("Failed to write activity log")
	}
}
