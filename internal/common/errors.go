package common

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrorCode identifies a failure class surfaced to API clients. Every error
// leaving the pipeline carries exactly one of these.
type ErrorCode string

const (
	CodeInvalidPayload       ErrorCode = "InvalidPayload"
	CodeSameAsset            ErrorCode = "SameAsset"
	CodeAssetNotFound        ErrorCode = "AssetNotFound"
	CodeInsufficientBalance  ErrorCode = "InsufficientBalance"
	CodeInvalidAmount        ErrorCode = "InvalidAmount"
	CodeAmountTooSmallForFee ErrorCode = "AmountTooSmallForFee"
	CodeQuoteFailed          ErrorCode = "QuoteFailed"
	CodeRouteBuildFailed     ErrorCode = "RouteBuildFailed"
	CodeNoRouteInstruction   ErrorCode = "NoRouteInstruction"
	CodeTransactionTooLarge  ErrorCode = "TransactionTooLarge"
	CodeUnhandled            ErrorCode = "Unhandled"
)

// PipelineError is the error type crossing the HTTP boundary. It pairs a
// machine code with a human message, an optional user-facing hint, and the
// pipeline stage where the failure happened.
type PipelineError struct {
	Code        ErrorCode
	StatusCode  int
	Message     string
	UserMessage string
	Tip         string
	Stage       string
	Correlation string
	cause       error
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.cause
}

// WithStage tags the error with the pipeline stage it escaped from.
func (e *PipelineError) WithStage(stage string) *PipelineError {
	e.Stage = stage
	return e
}

// WithTip attaches a user-actionable hint.
func (e *PipelineError) WithTip(tip string) *PipelineError {
	e.Tip = tip
	return e
}

func newError(code ErrorCode, status int, msg, userMsg string) *PipelineError {
	return &PipelineError{
		Code:        code,
		StatusCode:  status,
		Message:     msg,
		UserMessage: userMsg,
	}
}

func ErrInvalidPayload(msg string) *PipelineError {
	return newError(CodeInvalidPayload, http.StatusBadRequest, msg, "The request is missing or has malformed fields.")
}

func ErrSameAsset() *PipelineError {
	return newError(CodeSameAsset, http.StatusBadRequest, "input and output asset are identical", "Pick two different assets to swap.")
}

func ErrAssetNotFound(asset string) *PipelineError {
	return newError(CodeAssetNotFound, http.StatusNotFound,
		fmt.Sprintf("asset account %s does not exist or is malformed", asset),
		"This asset could not be found on chain.")
}

func ErrInsufficientBalance(msg string) *PipelineError {
	return newError(CodeInsufficientBalance, http.StatusBadRequest, msg, "Your balance is too low for this swap.")
}

func ErrInvalidAmount(msg string) *PipelineError {
	return newError(CodeInvalidAmount, http.StatusBadRequest, msg, "Enter a positive amount.")
}

func ErrAmountTooSmallForFee() *PipelineError {
	return newError(CodeAmountTooSmallForFee, http.StatusBadRequest,
		"protocol fee would consume the entire amount",
		"The amount is too small to cover the protocol fee.").WithTip("Try a larger amount.")
}

func ErrQuoteFailed(upstreamStatus int, msg string) *PipelineError {
	return newError(CodeQuoteFailed, http.StatusBadGateway,
		fmt.Sprintf("aggregator quote failed with status %d: %s", upstreamStatus, msg),
		"Pricing is temporarily unavailable for this pair.")
}

func ErrRouteBuildFailed(upstreamStatus int, msg string) *PipelineError {
	return newError(CodeRouteBuildFailed, http.StatusBadGateway,
		fmt.Sprintf("aggregator route build failed with status %d: %s", upstreamStatus, msg),
		"The swap route could not be built.")
}

func ErrNoRouteInstruction() *PipelineError {
	return newError(CodeNoRouteInstruction, http.StatusBadGateway,
		"aggregator returned no executable route instruction",
		"No route is available for this pair right now.")
}

func ErrTransactionTooLarge(size int) *PipelineError {
	return newError(CodeTransactionTooLarge, http.StatusUnprocessableEntity,
		fmt.Sprintf("transaction is %d bytes even without the fee instruction (limit %d)", size, MaxTransactionBytes),
		"This swap needs too many accounts for one transaction.").
		WithTip("Try a smaller amount or a different asset pair.")
}

// ErrUnhandled wraps an unexpected failure with a correlation id so the
// client-visible message can be matched against server logs.
func ErrUnhandled(stage string, cause error) *PipelineError {
	e := newError(CodeUnhandled, http.StatusInternalServerError,
		"internal error", "Something went wrong. Please try again.")
	e.Stage = stage
	e.Correlation = uuid.NewString()
	e.cause = cause
	return e
}

// AsPipelineError returns err as a *PipelineError, wrapping anything else
// as Unhandled at the given stage.
func AsPipelineError(err error, stage string) *PipelineError {
	if pe, ok := err.(*PipelineError); ok {
		if pe.Stage == "" {
			pe.Stage = stage
		}
		return pe
	}
	return ErrUnhandled(stage, err)
}
