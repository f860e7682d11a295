//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/usecase"
)

func TestPoolAddAndCounts(t *testing.T) {
	ctx := context.Background()

	t.Run("counts include zero entries for every plan", func(t *testing.T) {
		d := newDeps(t)
		d.addCredential(t, "basic")

		counts, err := d.poolUC.AvailableCounts(ctx)
		if err != nil {
			t.Fatalf("counts: %v", err)
		}
		if counts["basic"] != 1 {
			t.Errorf("basic = %d, want 1", counts["basic"])
		}
		if n, ok := counts["premium"]; !ok || n != 0 {
			t.Errorf("premium = %d (present=%v), want explicit 0", n, ok)
		}
	})

	t.Run("unknown plan is rejected", func(t *testing.T) {
		d := newDeps(t)
		if _, err := d.poolUC.AddCredential(ctx, "nope", "u", "p", ""); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("batch skips incomplete entries", func(t *testing.T) {
		d := newDeps(t)
		added, err := d.poolUC.AddBatch(ctx, "basic", []usecase.BatchEntry{
			{Username: "a", Password: "1"},
			{Username: "", Password: "2"},
			{Username: "c", Password: "3"},
		})
		if err != nil {
			t.Fatalf("batch: %v", err)
		}
		if added != 2 {
			t.Errorf("added = %d, want 2", added)
		}
	})
}

func TestPoolReclaim(t *testing.T) {
	ctx := context.Background()

	t.Run("reclaim returns an assigned credential", func(t *testing.T) {
		d := newDeps(t)
		res := d.approvedPurchase(t, 1, "basic")

		if err := d.poolUC.ReclaimByID(ctx, res.Credential.ID); err != nil {
			t.Fatalf("reclaim: %v", err)
		}
		counts, _ := d.poolUC.AvailableCounts(ctx)
		if counts["basic"] != 1 {
			t.Errorf("available = %d, want 1", counts["basic"])
		}
	})

	t.Run("reclaiming an available credential is a no-op", func(t *testing.T) {
		d := newDeps(t)
		c := d.addCredential(t, "basic")

		if err := d.poolUC.ReclaimByID(ctx, c.ID); err != nil {
			t.Fatalf("first reclaim: %v", err)
		}
		if err := d.poolUC.ReclaimByID(ctx, c.ID); err != nil {
			t.Fatalf("second reclaim: %v", err)
		}
		counts, _ := d.poolUC.AvailableCounts(ctx)
		if counts["basic"] != 1 {
			t.Errorf("available = %d, want exactly 1", counts["basic"])
		}
	})

	t.Run("reclaim of a missing credential fails", func(t *testing.T) {
		d := newDeps(t)
		if err := d.poolUC.ReclaimByID(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}
