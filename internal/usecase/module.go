package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/kilopos/internal/config"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewOperatorUseCase,
	NewLedgerUseCase,
	newLockUseCase,
	NewPaymentUseCase,
	NewDrawerUseCase,
	newSalesUseCase,
	NewEventUseCase,
)

func newLockUseCase(leases repository.LeaseRepository, cfg *config.Config) *LockUseCase {
	return NewLockUseCase(leases, cfg.LeaseTTL)
}

func newSalesUseCase(sales repository.SalesRepository, drawer *DrawerUseCase, cfg *config.Config) *SalesUseCase {
	return NewSalesUseCase(sales, drawer, cfg.ReportLocation)
}
