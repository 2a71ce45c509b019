// Package permissions decides whether a credential's capability flags
// allow a protected operation. The check is a pure function with no
// state; unknown operation kinds fail closed.
package permissions

import (
	"github.com/mockgate/mockgate/internal/credentials"
)

// Check reports whether the credential is permitted to invoke the
// operation kind.
func Check(cred *credentials.Credential, op credentials.Operation) bool {
	if cred == nil {
		return false
	}
	switch op {
	case credentials.OperationChat:
		return cred.CanChat
	case credentials.OperationEmbeddings:
		return cred.CanEmbeddings
	case credentials.OperationModerations:
		return cred.CanModerations
	case credentials.OperationImages:
		return cred.CanImages
	default:
		return false
	}
}
