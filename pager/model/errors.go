package model

import "errors"

var (
	// ErrPlayerNotFound reports a missing player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInventoryNotFound reports a player without an inventory.
	ErrInventoryNotFound = errors.New("inventory not found")
	// ErrGameNotFound reports a missing game.
	ErrGameNotFound = errors.New("game not found")
	// ErrPlayerExists reports a second registration of the same Telegram user.
	ErrPlayerExists = errors.New("player already registered")
	// ErrInsufficientFunds reports a debit that would make the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidDate reports a date not in DD.MM.YYYY form.
	ErrInvalidDate = errors.New("invalid date, expected DD.MM.YYYY")
	// ErrInvalidAmount reports a non-positive money amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidInput reports a field failing validation.
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrInventoryNotFound) || errors.Is(err, ErrGameNotFound)
}
