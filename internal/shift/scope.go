package shift

import (
	"fmt"

	"cashdesk-backend/internal/config"
)

type lockKey struct {
	scope string
	key   string
}

func (k lockKey) describe() string {
	switch k.scope {
	case config.ScopeOperator:
		return "operator"
	case config.ScopeRegister:
		return "register"
	}
	return "branch"
}

// exclusivityKeys lists the shift_locks keys an open shift holds. The operator
// key is global: one open shift per operator across all branches. A register
// key is only produced when the shift names a register.
func exclusivityKeys(scopes []string, branchID, operatorID uint, registerID *uint) []lockKey {
	keys := make([]lockKey, 0, len(scopes))
	for _, scope := range scopes {
		switch scope {
		case config.ScopeOperator:
			keys = append(keys, lockKey{scope, fmt.Sprintf("operator:%d", operatorID)})
		case config.ScopeRegister:
			if registerID != nil {
				keys = append(keys, lockKey{scope, fmt.Sprintf("branch:%d:register:%d", branchID, *registerID)})
			}
		case config.ScopeBranch:
			keys = append(keys, lockKey{scope, fmt.Sprintf("branch:%d", branchID)})
		}
	}
	return keys
}
