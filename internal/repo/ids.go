package repo

import (
	"errors"
	"strconv"
)

var ErrInvalidID = errors.New("invalid id")

// FormatID renders a row id as the opaque string clients see.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID is the inverse of FormatID. Only positive ids are valid.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
