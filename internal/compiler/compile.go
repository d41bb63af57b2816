package compiler

// Invoker compiles one module's source for a target mode. Implementations
// must have no side effects beyond their return value.
type Invoker interface {
	Compile(source string, mode Mode) (string, error)
}

// InvokerFunc adapts a plain function to Invoker.
type InvokerFunc func(source string, mode Mode) (string, error)

func (f InvokerFunc) Compile(source string, mode Mode) (string, error) { return f(source, mode) }

// Default is the reference AGL compiler.
var Default Invoker = InvokerFunc(Compile)

// Compile runs the full pipeline over src.
func Compile(src string, mode Mode) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", err
	}
	stmts, err := Parse(tokens)
	if err != nil {
		return "", err
	}
	return Generate(stmts, mode)
}
