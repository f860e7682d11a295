package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
	"telegram-credential-broker/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// PoolUseCase owns the credential pools: admin replenishment, allocation for
// approved payments, and reclaim on expiry.
type PoolUseCase struct {
	creds   repository.CredentialRepository
	catalog model.Catalog
	tm      repository.TxRunner
	log     *zerolog.Logger
}

func NewPoolUseCase(creds repository.CredentialRepository, catalog model.Catalog, tm repository.TxRunner, logger *zerolog.Logger) *PoolUseCase {
	l := logger.With().Str("component", "pool").Logger()
	return &PoolUseCase{creds: creds, catalog: catalog, tm: tm, log: &l}
}

// AddCredential stores a new credential in the plan's pool.
func (uc *PoolUseCase) AddCredential(ctx context.Context, planID, username, password, notes string) (*model.Credential, error) {
	if _, ok := uc.catalog.Get(planID); !ok {
		return nil, fmt.Errorf("plan %q: %w", planID, domain.ErrNotFound)
	}
	cred, err := model.NewCredential(planID, username, password, notes)
	if err != nil {
		return nil, err
	}
	err = uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.creds.Save(ctx, tx, cred)
	}, repository.ColCredentials)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan", planID).Str("credential_id", cred.ID).Msg("credential added")
	return cred, nil
}

// BatchEntry is one credential in an AddBatch call.
type BatchEntry struct {
	Username string
	Password string
	Notes    string
}

// AddBatch stores several credentials in one transaction; entries missing a
// username or password are skipped, matching admin bulk uploads. Returns how
// many were added.
func (uc *PoolUseCase) AddBatch(ctx context.Context, planID string, entries []BatchEntry) (int, error) {
	if _, ok := uc.catalog.Get(planID); !ok {
		return 0, fmt.Errorf("plan %q: %w", planID, domain.ErrNotFound)
	}
	added := 0
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		for _, e := range entries {
			cred, err := model.NewCredential(planID, e.Username, e.Password, e.Notes)
			if err != nil {
				uc.log.Warn().Str("plan", planID).Msg("skipping incomplete credential entry")
				continue
			}
			if err := uc.creds.Save(ctx, tx, cred); err != nil {
				return err
			}
			added++
		}
		return nil
	}, repository.ColCredentials)
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Allocate picks the oldest available credential for the plan and assigns it
// to the subscription. It runs inside the caller's transaction so a later
// failure in the same transaction unwinds the assignment.
func (uc *PoolUseCase) Allocate(ctx context.Context, tx repository.Tx, planID, subscriptionID string) (*model.Credential, error) {
	cred, err := uc.creds.FindOldestAvailable(ctx, tx, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPoolExhausted
		}
		return nil, err
	}
	cred.Assign(subscriptionID)
	if err := uc.creds.Save(ctx, tx, cred); err != nil {
		return nil, err
	}
	metrics.IncCredentialsAllocated(planID)
	return cred, nil
}

// Reclaim returns a credential to its pool. Reclaiming an already-available
// credential is a no-op, which is what lets the monitor run the same sweep
// twice without harm.
func (uc *PoolUseCase) Reclaim(ctx context.Context, tx repository.Tx, credentialID string) error {
	cred, err := uc.creds.FindByID(ctx, tx, credentialID)
	if err != nil {
		return err
	}
	if cred.Available() {
		return nil
	}
	cred.Release()
	if err := uc.creds.Save(ctx, tx, cred); err != nil {
		return err
	}
	metrics.IncCredentialsReclaimed(cred.PlanID)
	return nil
}

// ReclaimByID is the standalone admin entry point for Reclaim.
func (uc *PoolUseCase) ReclaimByID(ctx context.Context, credentialID string) error {
	return uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.Reclaim(ctx, tx, credentialID)
	}, repository.ColCredentials)
}

// AvailableCounts reports available credentials per plan, including zero
// entries for plans whose pool is empty.
func (uc *PoolUseCase) AvailableCounts(ctx context.Context) (map[string]int, error) {
	var counts map[string]int
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		counts, err = uc.creds.CountAvailableByPlan(ctx, tx)
		return err
	}, repository.ColCredentials)
	if err != nil {
		return nil, err
	}
	for planID := range uc.catalog {
		if _, ok := counts[planID]; !ok {
			counts[planID] = 0
		}
	}
	return counts, nil
}

// ListCredentials returns every credential, oldest first.
func (uc *PoolUseCase) ListCredentials(ctx context.Context) ([]*model.Credential, error) {
	var creds []*model.Credential
	err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		creds, err = uc.creds.List(ctx, tx)
		return err
	}, repository.ColCredentials)
	return creds, err
}
