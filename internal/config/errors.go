package config

import "errors"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigFileRead     = errors.New("config: cannot read file")
	ErrConfigInvalid      = errors.New("config: invalid file")
	ErrInvalidValue       = errors.New("config: invalid value")
)
