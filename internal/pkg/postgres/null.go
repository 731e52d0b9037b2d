package postgres

import "database/sql"

func toNullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func fromNullStr(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
