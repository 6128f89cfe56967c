package recipe

import "errors"

var (
	ErrParse    = errors.New("recipe parse failed")
	ErrInvalid  = errors.New("invalid recipe")
	ErrNoRecipe = errors.New("no recipe found")
)
