package usecase

import (
	"github.com/pproenca/agent-tui/internal/rpcerr"
)

// invalidParams wraps a JSON decode failure into the transport-level
// -32602 invalid-params error.
func invalidParams(err error) *rpcerr.Error {
	return &rpcerr.Error{
		Code:     rpcerr.CodeInvalidParams,
		Category: rpcerr.CategoryInvalidInput,
		Message:  "invalid params: " + err.Error(),
	}
}

// rpcerrInvalidParams builds an invalid-params error from a plain message,
// for required-field checks use cases perform themselves.
func rpcerrInvalidParams(message string) *rpcerr.Error {
	return &rpcerr.Error{
		Code:     rpcerr.CodeInvalidParams,
		Category: rpcerr.CategoryInvalidInput,
		Message:  message,
	}
}

// asRPCError narrows a generic error returned by the repository/session
// layer back to *rpcerr.Error. Every error those layers return is already
// one (rpcerr.SessionNotFound, PtyError, ...); an unexpected plain error
// is folded into rpcerr.Internal rather than surfaced raw.
func asRPCError(err error) *rpcerr.Error {
	if err == nil {
		return nil
	}
	if rerr, ok := err.(*rpcerr.Error); ok {
		return rerr
	}
	return rpcerr.Internal(err.Error())
}
