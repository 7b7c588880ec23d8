package dao

import (
	"context"

	"barista-web/pkg/core/registration/model"
)

type AttemptRepository interface {
	Record(ctx context.Context, attempt model.Attempt) error
	Recent(ctx context.Context, limit int) ([]model.Attempt, error)
	Ping(ctx context.Context) error
}
