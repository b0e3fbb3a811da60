// Package tolerance resolves how far a counted drawer may drift from the
// expected amount before the close is flagged. Values are read on every call;
// nothing here caches.
package tolerance

import (
	"context"
	"errors"
	"fmt"

	"cashdesk-backend/internal/models"
	"cashdesk-backend/internal/money"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

var ErrInvalid = errors.New("invalid cash tolerance")

type Source interface {
	Tolerance(ctx context.Context, branchID uint) (money.Money, error)
}

// Writer is implemented by sources an admin can update.
type Writer interface {
	Set(ctx context.Context, branchID, userID uint, value money.Money) error
}

// Parse accepts the stored text form of a tolerance.
func Parse(raw string) (money.Money, error) {
	v, err := money.Parse(raw)
	if err != nil {
		return money.Zero, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	if v.IsNegative() {
		return money.Zero, fmt.Errorf("%w: %q is negative", ErrInvalid, raw)
	}
	if !v.InRange() {
		return money.Zero, fmt.Errorf("%w: %q is too large", ErrInvalid, raw)
	}
	return v, nil
}

// Static always answers with the same value.
type Static money.Money

func (s Static) Tolerance(context.Context, uint) (money.Money, error) {
	return money.Money(s), nil
}

// SettingsSource reads the branch_settings row of the branch.
type SettingsSource struct {
	db  *gorm.DB
	def money.Money
}

func NewSettingsSource(db *gorm.DB, def money.Money) *SettingsSource {
	return &SettingsSource{db: db, def: def}
}

func (s *SettingsSource) Tolerance(ctx context.Context, branchID uint) (money.Money, error) {
	var setting models.BranchSetting
	err := s.db.WithContext(ctx).
		Where(&models.BranchSetting{BranchID: branchID, Key: models.SettingCashTolerance}).
		Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.def, nil
	}
	if err != nil {
		return money.Zero, fmt.Errorf("read tolerance of branch %d: %w", branchID, err)
	}
	return Parse(setting.Value)
}

// Set upserts the branch tolerance. Validation happens before the write so a
// bad value never reaches the table.
func (s *SettingsSource) Set(ctx context.Context, branchID, userID uint, value money.Money) error {
	if value.IsNegative() || !value.InRange() {
		return fmt.Errorf("%w: %s", ErrInvalid, value)
	}
	setting := models.BranchSetting{
		BranchID:  branchID,
		Key:       models.SettingCashTolerance,
		Value:     value.String(),
		UpdatedBy: userID,
	}
	return s.db.WithContext(ctx).Save(&setting).Error
}

// RedisSource reads cashdesk:branch:<id>:cash_tolerance, falling back to the
// default when the key is absent.
type RedisSource struct {
	client redis.Cmdable
	def    money.Money
}

func NewRedisSource(client redis.Cmdable, def money.Money) *RedisSource {
	return &RedisSource{client: client, def: def}
}

func RedisKey(branchID uint) string {
	return fmt.Sprintf("cashdesk:branch:%d:%s", branchID, models.SettingCashTolerance)
}

func (s *RedisSource) Tolerance(ctx context.Context, branchID uint) (money.Money, error) {
	raw, err := s.client.Get(ctx, RedisKey(branchID)).Result()
	if errors.Is(err, redis.Nil) {
		return s.def, nil
	}
	if err != nil {
		return money.Zero, fmt.Errorf("read tolerance of branch %d: %w", branchID, err)
	}
	return Parse(raw)
}

func (s *RedisSource) Set(ctx context.Context, branchID, _ uint, value money.Money) error {
	if value.IsNegative() || !value.InRange() {
		return fmt.Errorf("%w: %s", ErrInvalid, value)
	}
	return s.client.Set(ctx, RedisKey(branchID), value.String(), 0).Err()
}
