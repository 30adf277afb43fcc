package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedule struct {
	Name string `validate:"required"`
	Cron string `validate:"omitempty,cron"`
	Mail string `validate:"omitempty,email"`
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      schedule
		wantErr string
	}{
		{"valid", schedule{Name: "digest", Cron: "0 9 * * 1"}, ""},
		{"descriptor", schedule{Name: "digest", Cron: "@daily"}, ""},
		{"empty cron allowed", schedule{Name: "digest"}, ""},
		{"bad cron", schedule{Name: "digest", Cron: "every monday"}, `schedule.Cron failed "cron"`},
		{"six fields rejected", schedule{Name: "digest", Cron: "0 0 9 * * 1"}, `schedule.Cron failed "cron"`},
		{"missing name", schedule{}, `schedule.Name failed "required"`},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_JoinsAllProblems(t *testing.T) {
	err := New().Validate(schedule{Cron: "nope", Mail: "x"})
	require.Error(t, err)
	assert.Equal(t,
		`schedule.Name failed "required"; schedule.Cron failed "cron"; schedule.Mail failed "email"`,
		err.Error())
}
