package services

import (
	"errors"
	"fmt"
)

// Business errors. Controllers map these onto HTTP statuses; anything not in
// this taxonomy is treated as an internal failure and never shown verbatim.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfStock      = errors.New("out of stock")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
)

// outOfStock builds an ErrOutOfStock that names the available quantity, per
// the explicit-update policy: rejected requests tell the user the ceiling.
func outOfStock(available int) error {
	return fmt.Errorf("%w: only %d available", ErrOutOfStock, available)
}

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}
