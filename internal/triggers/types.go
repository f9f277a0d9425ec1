package triggers

import (
	"context"
	"slices"

	"github.com/KirkDiggler/dh-automation/internal/entities"
	"github.com/KirkDiggler/dh-automation/internal/resources"
)

// Type names an extension point
type Type string

const (
	DualityRoll         Type = "dualityRoll"
	FearRoll            Type = "fearRoll"
	DamageReduction     Type = "damageReduction"
	PostDamageReduction Type = "postDamageReduction"
)

// Scope filters subscribers against the invoking actor
type Scope string

const (
	ScopeSelf  Scope = "self"
	ScopeOther Scope = "other"
	ScopeAny   Scope = "any"
)

// Matches reports whether a subscriber owned by ownerUUID fires for invokerUUID
func (s Scope) Matches(ownerUUID, invokerUUID string) bool {
	switch s {
	case ScopeOther:
		return ownerUUID != invokerUUID
	case ScopeAny:
		return true
	default:
		return ownerUUID == invokerUUID
	}
}

// Definition fixes who may subscribe to a trigger and what it is called with
type Definition struct {
	Type       Type
	ActorTypes []entities.ActorType
	Params     []string
}

// Allows reports whether actors of type t may hold subscriptions
func (d Definition) Allows(t entities.ActorType) bool {
	return slices.Contains(d.ActorTypes, t)
}

var definitions = []Definition{
	{Type: DualityRoll, ActorTypes: []entities.ActorType{entities.ActorTypeCharacter}, Params: []string{"roll", "actor", "config"}},
	{Type: FearRoll, ActorTypes: []entities.ActorType{entities.ActorTypeAdversary}, Params: []string{"roll", "actor", "config"}},
	{Type: DamageReduction, ActorTypes: []entities.ActorType{entities.ActorTypeCharacter}, Params: []string{"damage", "actor", "config"}},
	{Type: PostDamageReduction, ActorTypes: []entities.ActorType{entities.ActorTypeCharacter}, Params: []string{"damage", "marked", "actor", "config"}},
}

// Definitions returns the known triggers in a fixed order
func Definitions() []Definition {
	return slices.Clone(definitions)
}

// Lookup returns the definition for t
func Lookup(t Type) (Definition, bool) {
	for _, def := range definitions {
		if def.Type == t {
			return def, true
		}
	}
	return Definition{}, false
}

// Language selects the command variant
type Language string

const (
	LanguageExpr    Language = "expr"
	LanguageLua     Language = "lua"
	LanguageHandler Language = "handler"
)

// HandlerFunc is a built-in Go trigger command
type HandlerFunc func(ctx context.Context, call *Call) error

// Source is uncompiled command content
type Source struct {
	Language Language
	Code     string
	Handler  HandlerFunc
}

// Subscription is one subscriber's content for one trigger
type Subscription struct {
	Scope    Scope
	Commands []Source
}

// Call is the live invocation a command runs against
type Call struct {
	Type        Type
	OwnerUUID   string
	InvokerUUID string
	Args        map[string]any
	Config      map[string]any
	Updates     []resources.Update
}

// Update queues a resource change on the subscriber's actor
func (c *Call) Update(key string, value int) {
	c.Updates = append(c.Updates, resources.Update{ActorUUID: c.OwnerUUID, Key: key, Value: value})
}

// Set writes into the bound action config
func (c *Call) Set(key string, value any) {
	if c.Config != nil {
		c.Config[key] = value
	}
}

// Command is a compiled trigger command
type Command interface {
	Run(ctx context.Context, call *Call) error
}
