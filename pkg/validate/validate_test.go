package validate_test

import (
	"testing"
	"time"

	"github.com/Astemirdum/library-records/pkg/validate"
	"github.com/stretchr/testify/require"
)

func TestIsPhone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phone string
		want  bool
	}{
		{phone: "+7(912)345-67-89", want: true},
		{phone: "+7(900)111-22-33", want: true},
		{phone: "8-912-345-67-89", want: false},
		{phone: "+7912345-67-89", want: false},
		{phone: "+7(912)345-67-8", want: false},
		{phone: "+7(912)345-67-89 ", want: false},
		{phone: "", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.phone, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, validate.IsPhone(tt.phone))
		})
	}
}

func TestNotPast(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	require.True(t, validate.NotPast("2024-03-10", now))
	require.True(t, validate.NotPast("2024-03-24", now))
	require.False(t, validate.NotPast("2024-03-09", now))
	require.True(t, validate.NotPast("not a date", now))
}

func TestCustomValidator_FieldErrors(t *testing.T) {
	t.Parallel()
	type form struct {
		Number string `form:"bookNumber" validate:"required"`
		Year   int    `form:"publicationYear" validate:"required,min=1500,max=2025"`
		Phone  string `form:"phoneNumber" validate:"required,phone"`
		Due    string `form:"dueDate" validate:"required,datetime=2006-01-02,notpast"`
	}
	v := validate.NewCustomValidator()

	err := v.Validate(form{Year: 1400, Phone: "8-912-345-67-89", Due: "2000-01-01"})
	require.Error(t, err)
	require.Equal(t, map[string]string{
		"bookNumber":      "is required",
		"publicationYear": "must be at least 1500",
		"phoneNumber":     "must match +7(XXX)XXX-XX-XX",
		"dueDate":         "must be today or later",
	}, validate.FieldErrors(err))

	due := time.Now().AddDate(0, 0, 14).Format(time.DateOnly)
	require.NoError(t, v.Validate(form{Number: "B1", Year: 1869, Phone: "+7(912)345-67-89", Due: due}))
}
