package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestGetProfile(t *testing.T) {
	s := newTestServices(t, may10)
	userID := testutil.NewUserID()

	profile, err := s.profiles.GetProfile(context.Background(), userID)
	testutil.AssertNoError(t, err)

	if profile.Currency != models.DefaultCurrency || profile.WarningThresholdPct != 80 || profile.CriticalThresholdPct != 100 {
		t.Errorf("unexpected defaults %+v", profile)
	}

	again, err := s.profiles.GetProfile(context.Background(), userID)
	testutil.AssertNoError(t, err)
	if !again.CreatedAt.Equal(profile.CreatedAt) {
		t.Error("expected the same profile on the second call")
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	valid := ProfileInput{
		DisplayName:          " Sam ",
		Email:                "sam@example.com",
		Currency:             "eur",
		MonthlyBudget:        decimal.NewFromInt(100),
		WarningThresholdPct:  75,
		CriticalThresholdPct: 90,
		EmailNotifications:   true,
	}

	t.Run("replaces_settings", func(t *testing.T) {
		s := newTestServices(t, may10)

		profile, err := s.profiles.UpdateProfile(ctx, testutil.NewUserID(), valid)
		testutil.AssertNoError(t, err)

		if profile.DisplayName != "Sam" || profile.Currency != "EUR" || !profile.EmailNotifications {
			t.Errorf("unexpected profile %+v", profile)
		}
	})

	t.Run("budget_change_checks_current_month", func(t *testing.T) {
		s := newTestServices(t, may10)
		userID := testutil.NewUserID()
		testutil.CreateTestTransaction(t, s.db, userID, models.TransactionTypeExpense, 80, "Food", date(2024, 5, 3))

		_, err := s.profiles.UpdateProfile(ctx, userID, valid)
		testutil.AssertNoError(t, err)

		if got := notificationsOf(t, s.db, userID); len(got) != 1 {
			t.Errorf("expected a warning for 80 of 100 at 75%%, got %d notifications", len(got))
		}
	})

	t.Run("invalid", func(t *testing.T) {
		s := newTestServices(t, may10)
		tests := []struct {
			name   string
			mutate func(*ProfileInput)
		}{
			{"negative_budget", func(in *ProfileInput) { in.MonthlyBudget = decimal.NewFromInt(-1) }},
			{"zero_threshold", func(in *ProfileInput) { in.WarningThresholdPct = 0 }},
			{"warning_above_critical", func(in *ProfileInput) { in.WarningThresholdPct = 95 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := valid
				tt.mutate(&in)
				_, err := s.profiles.UpdateProfile(ctx, testutil.NewUserID(), in)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}
	})
}
