package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput 请求或文件本身有问题，由调用方修正
var ErrInvalidInput = errors.New("invalid input")

// InputError 输入错误，消息可直接返回给调用方
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Unwrap 使 errors.Is 能匹配 ErrInvalidInput
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// Invalidf 构造 InputError
func Invalidf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// IsInputError 是否为（或包装了）输入错误
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
