package memory

import "errors"

var ErrConflict = errors.New("refresh token already stored")
