package process

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Expands variable references in each argument using env.
//
// Arguments are treated like here-document lines: $NAME and ${NAME} forms
// are replaced, quotes are kept literally and no field splitting, globbing
// or command substitution takes place. Referencing a variable that is not
// set in env fails with [ErrExpand], as does any construct that would need
// a shell to evaluate it.
func Expand(args []string, env []string) ([]string, error) {
	cfg := &expand.Config{
		Env:     expand.ListEnviron(env...),
		NoUnset: true,
	}

	parser := syntax.NewParser()
	out := make([]string, len(args))
	for i, arg := range args {
		if !strings.ContainsAny(arg, "$`") {
			out[i] = arg
			continue
		}

		word, err := parser.Document(strings.NewReader(arg))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrExpand, arg, err)
		}

		val, err := expand.Document(cfg, word)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrExpand, arg, err)
		}
		out[i] = val
	}
	return out, nil
}
