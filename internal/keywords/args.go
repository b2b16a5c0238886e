package keywords

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidArguments marks argument binding and conversion errors.
var ErrInvalidArguments = errors.New("invalid arguments")

// Arguments carries keyword arguments as they arrive from a caller:
// positional, named, or a mix. Named arguments use the Arg names.
type Arguments struct {
	Positional []interface{}
	Named      map[string]interface{}
}

// values is the bound, converted argument set of one invocation.
type values map[string]interface{}

func (v values) str(name string) string    { return v[name].(string) }
func (v values) boolean(name string) bool  { return v[name].(bool) }
func (v values) list(name string) []string { return v[name].([]string) }

func bind(k *Keyword, args Arguments) (values, error) {
	out := make(values, len(k.Args))
	used := make(map[string]bool, len(args.Named))
	pos := args.Positional

	for i, a := range k.Args {
		if a.Type == ArgVarargs {
			var items []interface{}
			if i < len(pos) {
				items = append(items, pos[i:]...)
			}
			if raw, ok := args.Named[a.Name]; ok {
				used[a.Name] = true
				items = append(items, flatten(raw)...)
			}
			list := make([]string, 0, len(items))
			for _, item := range items {
				s, err := toString(item)
				if err != nil {
					return nil, argError(k, a, err)
				}
				list = append(list, s)
			}
			out[a.Name] = list
			pos = nil
			continue
		}

		var raw interface{}
		switch {
		case i < len(pos):
			raw = pos[i]
			if _, dup := args.Named[a.Name]; dup {
				return nil, fmt.Errorf("%w: %s got multiple values for argument '%s'", ErrInvalidArguments, k.Name, a.Name)
			}
		default:
			v, ok := args.Named[a.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s missing value for argument '%s'", ErrInvalidArguments, k.Name, a.Name)
			}
			used[a.Name] = true
			raw = v
		}

		var (
			converted interface{}
			err       error
		)
		if a.Type == ArgBool {
			converted, err = ToBool(raw)
		} else {
			converted, err = toString(raw)
		}
		if err != nil {
			return nil, argError(k, a, err)
		}
		out[a.Name] = converted
	}

	if len(pos) > len(k.Args) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrInvalidArguments, k.Name, len(k.Args), len(pos))
	}

	var unknown []string
	for name := range args.Named {
		if !used[name] && !declared(k, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s got unexpected arguments: %s", ErrInvalidArguments, k.Name, strings.Join(unknown, ", "))
	}
	return out, nil
}

// NamedArguments maps positional arguments to the keyword's argument names.
// Trailing positional arguments of a varargs keyword are collected into a
// list.
func (k *Keyword) NamedArguments(args Arguments) (map[string]interface{}, error) {
	named := make(map[string]interface{}, len(k.Args))
	for name, v := range args.Named {
		named[name] = v
	}

	for i, v := range args.Positional {
		if i >= len(k.Args) {
			return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrInvalidArguments, k.Name, len(k.Args), len(args.Positional))
		}
		a := k.Args[i]
		if a.Type == ArgVarargs {
			list := append([]interface{}(nil), args.Positional[i:]...)
			if existing, ok := named[a.Name].([]interface{}); ok {
				list = append(list, existing...)
			}
			named[a.Name] = list
			break
		}
		if _, dup := named[a.Name]; dup {
			return nil, fmt.Errorf("%w: %s got multiple values for argument '%s'", ErrInvalidArguments, k.Name, a.Name)
		}
		named[a.Name] = v
	}
	return named, nil
}

func declared(k *Keyword, name string) bool {
	for _, a := range k.Args {
		if a.Name == name {
			return true
		}
	}
	return false
}

func argError(k *Keyword, a Arg, err error) error {
	return fmt.Errorf("%w: %s argument '%s': %v", ErrInvalidArguments, k.Name, a.Name, err)
}

func flatten(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items
	default:
		return []interface{}{v}
	}
}

func toString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool, int, int64, float64, float32, uint, uint64:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", raw)
	}
}

// ToBool converts framework argument values to booleans. Strings are matched
// case-insensitively: true, yes, on and 1 are true; false, no, off, 0, none
// and the empty string are false.
func ToBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0", "none", "":
			return false, nil
		}
		return false, fmt.Errorf("cannot convert %q to a boolean", v)
	default:
		return false, fmt.Errorf("cannot convert %T to a boolean", raw)
	}
}
