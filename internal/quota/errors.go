package quota

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
)

// Code is a stable, machine readable rejection reason.
type Code string

const (
	CodeNoActiveSubscription     Code = "no_active_subscription"
	CodeInsufficientCredit       Code = "insufficient_credit"
	CodeDepthLimitExceeded       Code = "depth_limit_exceeded"
	CodeConcurrencyLimitExceeded Code = "concurrency_limit_exceeded"
	CodeProxyNotFound            Code = "proxy_not_found"
	CodeProxyAccessDenied        Code = "proxy_access_denied"
	CodeInvalidState             Code = "invalid_state"
	CodePlanNotFound             Code = "plan_not_found"
	CodeSubscriptionsDisabled    Code = "subscriptions_disabled"
)

// CreditScope tells which counter an InsufficientCredit rejection refers to.
type CreditScope string

const (
	ScopePlan  CreditScope = "plan"
	ScopeDaily CreditScope = "daily"
)

// Error is a client-facing rejection. Message is shown to the user verbatim.
type Error struct {
	Code    Code
	Scope   CreditScope
	Limit   int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code, and on Scope when the target sets one, so callers can
// write errors.Is(err, ErrInsufficientCredit).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Scope == "" || t.Scope == e.Scope
}

var (
	ErrNoActiveSubscription     = &Error{Code: CodeNoActiveSubscription, Message: "You have no active subscription"}
	ErrInsufficientCredit       = &Error{Code: CodeInsufficientCredit, Message: "insufficient credit"}
	ErrInsufficientPlanCredit   = &Error{Code: CodeInsufficientCredit, Scope: ScopePlan, Message: "insufficient plan credit"}
	ErrInsufficientDailyCredit  = &Error{Code: CodeInsufficientCredit, Scope: ScopeDaily, Message: "insufficient daily credit"}
	ErrDepthLimitExceeded       = &Error{Code: CodeDepthLimitExceeded, Message: "depth limit exceeded"}
	ErrConcurrencyLimitExceeded = &Error{Code: CodeConcurrencyLimitExceeded, Message: "concurrency limit exceeded"}
	ErrProxyNotFound            = &Error{Code: CodeProxyNotFound, Message: "Proxy server does not exist"}
	ErrProxyAccessDenied        = &Error{Code: CodeProxyAccessDenied, Message: "With the current plan you cannot use this proxy server"}
	ErrInvalidState             = &Error{Code: CodeInvalidState, Message: "invalid state"}
	ErrPlanNotFound             = &Error{Code: CodePlanNotFound, Message: "Plan not found"}
	ErrSubscriptionsDisabled    = &Error{Code: CodeSubscriptionsDisabled, Message: "Subscriptions are disabled in non-enterprise mode"}
)

// CodeOf returns the rejection code carried by err, or "" for other errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func insufficientCredit(kind models.JobKind, scope CreditScope, remain int) *Error {
	var msg string
	switch {
	case kind == models.JobKindCrawl && scope == ScopePlan:
		msg = fmt.Sprintf("You just have %d page credits left in your plan", remain)
	case kind == models.JobKindCrawl:
		msg = fmt.Sprintf("You just have %d daily pages left in your plan", remain)
	case scope == ScopePlan:
		msg = fmt.Sprintf("You just have %d credits left in your plan", remain)
	default:
		msg = fmt.Sprintf("You just have %d daily credits left in your plan", remain)
	}
	return &Error{Code: CodeInsufficientCredit, Scope: scope, Limit: remain, Message: msg}
}

func depthLimitExceeded(maxDepth int) *Error {
	return &Error{
		Code:    CodeDepthLimitExceeded,
		Limit:   maxDepth,
		Message: fmt.Sprintf("Your plan does not support more than %d depth", maxDepth),
	}
}

func concurrencyLimitExceeded(maxConcurrent int) *Error {
	return &Error{
		Code:    CodeConcurrencyLimitExceeded,
		Limit:   maxConcurrent,
		Message: fmt.Sprintf("Your plan does not support more than %d concurrent tasks", maxConcurrent),
	}
}

func invalidState(kind models.JobKind) *Error {
	return &Error{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("Only running %s requests can be deleted", kind.Label()),
	}
}
