package staking

import (
	"context"
	"testing"
	"time"

	"boopstake/native/rewards"
	"boopstake/services/stake-gateway/models"
)

func TestActivateBoost(t *testing.T) {
	svc, clock := testService(t)
	mustUser(t, svc, "ada")
	ctx := context.Background()

	if _, err := svc.ActivateBoost(ctx, "ada", "mega_boost"); KindOf(err) != KindValidation {
		t.Fatal("expected VALIDATION for unknown kind")
	}

	boost, err := svc.ActivateBoost(ctx, "ada", models.BoostKind72H)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !boost.EndsAt.Equal(clock.Add(72 * time.Hour)) {
		t.Fatalf("window ends %v, want +72h", boost.EndsAt)
	}

	// No stacking while a window is open.
	if _, err := svc.ActivateBoost(ctx, "ada", models.BoostKind24H); KindOf(err) != KindInvalidState {
		t.Fatal("expected INVALID_STATE for overlapping boost")
	}

	// A new window may open once the first lapses.
	*clock = clock.Add(72*time.Hour + time.Minute)
	if _, err := svc.ActivateBoost(ctx, "ada", models.BoostKind24H); err != nil {
		t.Fatalf("activate after lapse: %v", err)
	}
}

func TestBoostRaisesAPR(t *testing.T) {
	svc, _ := testService(t)
	mustUser(t, svc, "ada")
	ctx := context.Background()

	if _, err := svc.CreateStake(ctx, "ada", 50_000); err != nil {
		t.Fatalf("create stake: %v", err)
	}
	before, err := svc.Status(ctx, "ada")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, err := svc.ActivateBoost(ctx, "ada", models.BoostKind24H); err != nil {
		t.Fatalf("activate: %v", err)
	}
	after, err := svc.Status(ctx, "ada")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	want := before.TotalApr + svc.Params().BoostMax
	if want > svc.Params().TotalMax {
		want = svc.Params().TotalMax
	}
	if !approxEqual(after.TotalApr, want) {
		t.Fatalf("apr %f, want %f", after.TotalApr, want)
	}
}

func TestGrantNftRequiresStakeFloor(t *testing.T) {
	svc, _ := testService(t)
	mustUser(t, svc, "ada")
	ctx := context.Background()

	if _, err := svc.GrantNft(ctx, "ada", ""); KindOf(err) != KindValidation {
		t.Fatal("expected VALIDATION for empty token ref")
	}
	if _, err := svc.GrantNft(ctx, "ada", "nft-1"); KindOf(err) != KindInsufficientStake {
		t.Fatal("expected INSUFFICIENT_STAKE below floor")
	}

	if _, err := svc.CreateStake(ctx, "ada", svc.Params().NftMinStake); err != nil {
		t.Fatalf("create stake: %v", err)
	}
	holding, err := svc.GrantNft(ctx, "ada", "nft-1")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !holding.Active {
		t.Fatal("holding should be active")
	}

	if _, err := svc.GrantNft(ctx, "ada", "nft-2"); KindOf(err) != KindInvalidState {
		t.Fatal("expected INVALID_STATE for duplicate holding")
	}

	view, err := svc.Status(ctx, "ada")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	state := rewards.AccountState{TotalStaked: svc.Params().NftMinStake, HasNft: true}
	want := rewards.ComposeAPR(state, svc.Params()).Total
	if !approxEqual(view.TotalApr, want) {
		t.Fatalf("apr %f, want %f with nft bonus", view.TotalApr, want)
	}
}
