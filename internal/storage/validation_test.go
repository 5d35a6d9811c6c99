package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/the-spice-must-talk/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMonth(t *testing.T) {
	tests := []struct {
		month   string
		wantErr bool
	}{
		{month: "2025-11", wantErr: false},
		{month: "2025-1", wantErr: true},
		{month: "2025-13", wantErr: true},
		{month: "", wantErr: true},
		{month: "November", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			err := validateMonth(tt.month)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateMonth(%q) error = %v, wantErr %v", tt.month, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMonth) {
				t.Errorf("validateMonth(%q) error = %v, want ErrInvalidMonth", tt.month, err)
			}
		})
	}
}

func TestValidateExpenses(t *testing.T) {
	valid := testExpense("5", "coffee", time.November, 1)

	if err := validateExpenses(nil); !errors.Is(err, ErrEmptySlice) {
		t.Errorf("validateExpenses(nil) error = %v, want ErrEmptySlice", err)
	}
	if err := validateExpenses([]model.Expense{valid}); err != nil {
		t.Errorf("validateExpenses(valid) error = %v", err)
	}
	invalid := valid
	invalid.Date = time.Time{}
	if err := validateExpenses([]model.Expense{valid, invalid}); !errors.Is(err, model.ErrMissingDate) {
		t.Errorf("validateExpenses(missing date) error = %v, want ErrMissingDate", err)
	}
}
