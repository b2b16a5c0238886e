package keywords

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"soapctl/internal/library"
)

// ErrUnknownKeyword is returned when a name does not resolve to a keyword.
var ErrUnknownKeyword = errors.New("unknown keyword")

// ArgType is the declared type of a keyword argument.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgBool    ArgType = "bool"
	ArgVarargs ArgType = "varargs"
)

// Arg describes one keyword argument.
type Arg struct {
	Name        string  `json:"name" yaml:"name"`
	Type        ArgType `json:"type" yaml:"type"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Keyword is a single entry of the keyword library.
type Keyword struct {
	// Name is the display name, e.g. "SoapUI Set Endpoint".
	Name    string
	Doc     string
	Args    []Arg
	Returns bool

	call func(ctx context.Context, lib *library.Library, in values) (interface{}, error)
}

// ToolName is the snake_case form of the display name, e.g.
// "soapui_set_endpoint".
func (k *Keyword) ToolName() string {
	return strings.ReplaceAll(strings.ToLower(k.Name), " ", "_")
}

// Signature renders the argument list the way keyword documentation shows it.
func (k *Keyword) Signature() string {
	parts := make([]string, len(k.Args))
	for i, a := range k.Args {
		if a.Type == ArgVarargs {
			parts[i] = "*" + a.Name
		} else {
			parts[i] = a.Name
		}
	}
	return strings.Join(parts, ", ")
}

// Normalize folds a keyword name the way the test framework matches names:
// case-insensitive, spaces and underscores ignored.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == ' ' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Registry holds keyword definitions in documentation order.
type Registry struct {
	mu       sync.RWMutex
	keywords []*Keyword
	byName   map[string]*Keyword
}

// NewRegistry returns a registry with every SoapUI keyword registered.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Keyword)}
	for _, k := range soapUIKeywords() {
		if err := r.Register(k); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a keyword. Names that normalize to an existing keyword are
// rejected.
func (r *Registry) Register(k *Keyword) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Normalize(k.Name)
	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("keyword %q already registered", k.Name)
	}
	r.byName[key] = k
	r.keywords = append(r.keywords, k)
	return nil
}

// Lookup resolves a display name, tool name or any spelling equal under
// Normalize.
func (r *Registry) Lookup(name string) (*Keyword, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byName[Normalize(name)]
	return k, ok
}

// All returns the keywords in registration order.
func (r *Registry) All() []*Keyword {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Keyword(nil), r.keywords...)
}

// Result is the outcome of one keyword invocation.
type Result struct {
	Keyword  string
	Return   interface{}
	Messages []Message
}

// Invoke runs the named keyword against the session's library. The returned
// Result is non-nil whenever the keyword was found, so messages logged before
// a failure are still available alongside the error.
func (r *Registry) Invoke(ctx context.Context, s *Session, name string, args Arguments) (*Result, error) {
	k, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyword, name)
	}

	in, err := bind(k, args)
	if err != nil {
		return &Result{Keyword: k.Name}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.drain()
	ret, err := k.call(ctx, s.lib, in)
	return &Result{
		Keyword:  k.Name,
		Return:   ret,
		Messages: s.log.drain(),
	}, err
}
