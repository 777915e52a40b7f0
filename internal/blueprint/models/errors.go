package models

import "errors"

var (
	ErrWallNotFound   = errors.New("wall not found")
	ErrDegenerateWall = errors.New("degenerate wall: start equals end")
)
