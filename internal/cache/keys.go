package cache

import "tourney/internal/core"

// ScopeAll is the scope of views that span every tournament.
const ScopeAll = "*"

// Key identifies a cached view: the collection it is derived from and the
// scope (usually a tournament id) it was read with.
type Key struct {
	Entity core.EntityType
	Scope  string
}

func NewKey(entity core.EntityType, scope string) Key {
	if scope == "" {
		scope = ScopeAll
	}
	return Key{Entity: entity, Scope: scope}
}

func (k Key) String() string {
	return string(k.Entity) + ":" + k.Scope
}

// KeysFor returns every key a write to entity within scope invalidates:
// the scoped key and the cross-scope key.
func KeysFor(entity core.EntityType, scope string) []Key {
	if scope == "" || scope == ScopeAll {
		return []Key{{Entity: entity, Scope: ScopeAll}}
	}
	return []Key{
		{Entity: entity, Scope: scope},
		{Entity: entity, Scope: ScopeAll},
	}
}
