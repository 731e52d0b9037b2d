package postgres

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNullStr(t *testing.T) {
	assert.Equal(t, sql.NullString{}, toNullStr(""))
	assert.Equal(t, sql.NullString{String: "olia", Valid: true}, toNullStr("olia"))
}

func TestFromNullStr(t *testing.T) {
	assert.Equal(t, "", fromNullStr(sql.NullString{}))
	assert.Equal(t, "olia", fromNullStr(sql.NullString{String: "olia", Valid: true}))
	assert.Equal(t, "", fromNullStr(sql.NullString{String: "olia"}))
}
