package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/siamclean/dispatch/internal/config"
	"github.com/siamclean/dispatch/pkg/clients/lineclient"
	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/core/services"
	"github.com/siamclean/dispatch/pkg/db"
	"github.com/siamclean/dispatch/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Store    db.OfferStore
	Pusher   *lineclient.Client
	Mailer   services.AuditMailer
	Composer *compose.Composer
	Database *postgres.DB
	Logger   *zap.Logger
	Ctx      context.Context
}

// DefaultLocale resolves the configured default notification locale.
func (a *AppContext) DefaultLocale() model.Locale {
	return model.ParseLocale(a.Cfg.DefaultLocale)
}
