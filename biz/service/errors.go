package service

import "errors"

// 业务校验错误，handler 层统一转成 4xx 提示；其余错误视为内部错误
var (
	ErrSymbolNotFound       = errors.New("symbol not found")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
	ErrSymbolNotHeld        = errors.New("symbol not held")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrUsernameTooShort     = errors.New("username too short")
	ErrUsernameTooLong      = errors.New("username too long")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrMissingField         = errors.New("missing field")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidCredentials   = errors.New("invalid username or password")
)

var validationErrors = []error{
	ErrSymbolNotFound,
	ErrInsufficientBalance,
	ErrInsufficientQuantity,
	ErrSymbolNotHeld,
	ErrUsernameTaken,
	ErrUsernameTooShort,
	ErrUsernameTooLong,
	ErrPasswordMismatch,
	ErrMissingField,
	ErrInvalidQuantity,
	ErrInvalidCredentials,
}

// IsValidationError 是否为用户可见的校验错误
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
