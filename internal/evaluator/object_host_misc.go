package evaluator

import (
	"io"
	"os"

	"github.com/funvibe/funxy/internal/typesystem"

	googleuuid "github.com/google/uuid"
)

// Uuid is the runtime value of the lib/uuid virtual package.
type Uuid struct {
	Value string
}

func (u *Uuid) Type() ObjectType { return "UUID" }
func (u *Uuid) Inspect() string  { return u.Value }
func (u *Uuid) RuntimeType() typesystem.Type {
	return typesystem.TCon{Name: "Uuid"}
}
func (u *Uuid) Hash() uint32 { return hashString(u.Value) }

// NewUuid mints a fresh random Uuid value.
func NewUuid() *Uuid {
	return &Uuid{Value: googleuuid.NewString()}
}

// ParseUuid validates and canonicalizes a textual uuid.
func ParseUuid(s string) (*Uuid, bool) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return nil, false
	}
	return &Uuid{Value: parsed.String()}, true
}

// Logger is the runtime value of the lib/log virtual package: a named sink
// with a severity floor.
type Logger struct {
	Name  string
	Level int
	Out   io.Writer
}

func (l *Logger) Type() ObjectType { return "LOGGER" }
func (l *Logger) Inspect() string  { return "<logger " + l.Name + ">" }
func (l *Logger) RuntimeType() typesystem.Type {
	return typesystem.TCon{Name: "Logger"}
}
func (l *Logger) Hash() uint32 { return hashString(l.Name) }

// NewLogger builds a Logger writing to stderr.
func NewLogger(name string) *Logger {
	return &Logger{Name: name, Out: os.Stderr}
}
