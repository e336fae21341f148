package paymentmethod

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/postback/internal/models"
	"github.com/fatflowers/postback/pkg/apperr"
	cfgpkg "github.com/fatflowers/postback/pkg/config"
)

// Store reads payment-method configuration. The gateway secret lives in the
// method's config args.
type Store struct {
	db        *gorm.DB
	secretArg string
	log       *zap.SugaredLogger
}

func NewStore(db *gorm.DB, cfg *cfgpkg.Config, log *zap.SugaredLogger) *Store {
	return &Store{db: db, secretArg: cfg.Pagarme.APIKeyArg, log: log}
}

func (s *Store) Get(ctx context.Context, code string) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment method %s", code)
		}
		return nil, fmt.Errorf("failed to load payment method %s: %w", code, err)
	}
	return &m, nil
}

// GetConfiguredSecret returns the api key of method code. A missing or
// disabled method, or an empty key, is a configuration error.
func (s *Store) GetConfiguredSecret(ctx context.Context, code string) (string, error) {
	m, err := s.Get(ctx, code)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.Configuration("payment method %s is not configured", code)
	}
	if err != nil {
		return "", err
	}
	if !m.Enabled {
		return "", apperr.Configuration("payment method %s is disabled", code)
	}
	secret, ok := m.Arg(s.secretArg)
	if !ok || secret == "" {
		return "", apperr.Configuration("payment method %s has no %s", code, s.secretArg)
	}
	return secret, nil
}

// Seed upserts methods by code.
func (s *Store) Seed(ctx context.Context, seeds []*cfgpkg.PaymentMethodSeed) error {
	if len(seeds) == 0 {
		return nil
	}
	rows := lo.Map(seeds, func(seed *cfgpkg.PaymentMethodSeed, _ int) *models.PaymentMethod {
		args := lo.Map(seed.Args, func(a cfgpkg.ConfigArg, _ int) models.ConfigArg {
			return models.ConfigArg{Name: a.Name, Value: a.Value}
		})
		handler := seed.Handler
		if handler == "" {
			handler = seed.Code
		}
		return &models.PaymentMethod{
			Code:       seed.Code,
			Handler:    handler,
			Enabled:    seed.Enabled,
			ConfigArgs: datatypes.NewJSONType(args),
		}
	})
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"handler", "enabled", "config_args", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed payment methods: %w", err)
	}
	s.log.Infow("payment methods seeded", "codes", lo.Map(seeds, func(seed *cfgpkg.PaymentMethodSeed, _ int) string { return seed.Code }))
	return nil
}

func seedFromConfig(lc fx.Lifecycle, s *Store, cfg *cfgpkg.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Seed(ctx, cfg.PaymentMethods)
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewStore),
	fx.Invoke(seedFromConfig),
)
