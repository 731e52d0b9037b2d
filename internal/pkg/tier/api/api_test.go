package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords("  \n\t"))
	assert.Equal(t, 2, CountWords("hello world"))
	assert.Equal(t, 3, CountWords(" a:\nb   c "))
}

func TestVariants(t *testing.T) {
	tests := []struct {
		r    LookupResult
		want Variant
		cr   int
	}{
		{r: Full{CreditsConsumed: 1}, want: VFull, cr: 1},
		{r: Partial{CreditsConsumed: 2}, want: VPartial, cr: 2},
		{r: Processing{CreditsConsumed: 3}, want: VProcessing, cr: 3},
		{r: NotFound{CreditsConsumed: 4}, want: VNotFound, cr: 4},
		{r: NoMatch{}, want: VNoMatch, cr: 0},
		{r: Error{Message: "err"}, want: VError, cr: 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Variant())
			assert.Equal(t, tt.cr, tt.r.Credits())
			assert.True(t, IsVariant(string(tt.want)))
		})
	}
	assert.False(t, IsVariant("olia"))
}

func TestError_Quota(t *testing.T) {
	assert.True(t, Error{Message: CreditsExceeded}.Quota())
	assert.False(t, Error{Message: "credits"}.Quota())
}
