package service

import (
	"errors"
	"strconv"

	"skinsignal-api/internal/apperror"
)

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

func notFoundAlert(id int64) error {
	return apperror.NotFound("alert", strconv.FormatInt(id, 10))
}
