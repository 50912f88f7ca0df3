// Package model holds the persisted entities of the policy service and their invariants.
package model

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&Tag{},
		&Policy{},
		&Claim{},
	}
}
