package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		name string
		st   Status
		want string
	}{
		{st: Done, want: "done"},
		{st: Error, want: "error"},
		{st: 0, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.st.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrom(t *testing.T) {
	tests := []struct {
		args string
		want Status
	}{
		{args: "done", want: Done},
		{args: "olia", want: 0},
		{args: "error", want: Error},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			if got := From(tt.args); got != tt.want {
				t.Errorf("From() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrCategory_RoundTrip(t *testing.T) {
	for ec := ECIneligible; ec <= ECDatabaseError; ec++ {
		assert.NotEmpty(t, ec.String())
		assert.Equal(t, ec, ECFrom(ec.String()))
	}
	assert.Equal(t, "budget_exhausted", ECBudgetExhausted.String())
	assert.Equal(t, ErrCategory(0), ECFrom("olia"))
}
