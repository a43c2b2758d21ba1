package matcher

import "testing"

func TestConfigForMode(t *testing.T) {
	accuracy, err := ConfigForMode(ModeAccuracy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accuracy.DateWindowStrict != 3 || accuracy.MaxCombinationDepth != 4 {
		t.Errorf("unexpected accuracy profile: %+v", accuracy)
	}

	speed, err := ConfigForMode(ModeSpeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if speed.DateWindowStrict != 1 || speed.FuzzyTextThreshold != 0.85 {
		t.Errorf("unexpected speed profile: %+v", speed)
	}

	if _, err := ConfigForMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := AccuracyConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default accuracy config should validate: %v", err)
	}

	bad := cfg.Clone()
	bad.AmountToleranceLoose = 0.01
	bad.AmountTolerance = 0.05
	if err := bad.Validate(); err == nil {
		t.Error("expected validation error when loose tolerance is below strict tolerance")
	}
}
