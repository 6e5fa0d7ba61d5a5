package validation

import (
	"testing"
	"time"

	"github.com/vnykmshr/wakeflow/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large positive", 1000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "count", tt.value)
			checkResult(t, err, tt.wantError)
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"zero value", 0, false},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonNegative("test", "queue", tt.value)
			checkResult(t, err, tt.wantError)
		})
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"one second", time.Second, false},
		{"one nanosecond", time.Nanosecond, false},
		{"zero", 0, true},
		{"negative", -time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveDuration("test", "interval", tt.value)
			checkResult(t, err, tt.wantError)
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"non-nil int", 123, false},
		{"non-nil struct", struct{}{}, false},
		{"nil value", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotNil("test", "client", tt.value)
			checkResult(t, err, tt.wantError)
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "name", "events"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	err := ValidateNotEmpty("test", "name", "")
	checkResult(t, err, true)
	if got, want := err.Error(), "test: invalid name= (cannot be empty) - provide a non-empty name"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func checkResult(t *testing.T, err error, wantError bool) {
	t.Helper()
	if wantError {
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.IsValidationError(err) {
			t.Errorf("expected ValidationError, got %T", err)
		}
		return
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
