// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import "errors"

// 错误分为四类：
// 参数校验类错误同步拒绝，永不重试
// 状态冲突类错误要求调用方重新读取权威状态
// 瞬时基础设施类错误允许有限退避重试
// 完整性错误说明读到的数据或引擎本身有缺陷，必须显式暴露
var (
	// validation
	ErrInvalidParam   = errors.New("ErrInvalidParam")
	ErrAmount         = errors.New("ErrAmount")
	ErrBetTooLow      = errors.New("ErrBetTooLow")
	ErrBetTooHigh     = errors.New("ErrBetTooHigh")
	ErrBetMismatch    = errors.New("ErrBetMismatch")
	ErrWeakSecret     = errors.New("ErrWeakSecret")
	ErrInvalidCommit  = errors.New("ErrInvalidCommit")
	ErrCommitMismatch = errors.New("ErrCommitMismatch")
	ErrNotAPlayer     = errors.New("ErrNotAPlayer")
	ErrSelfPlay       = errors.New("ErrSelfPlay")
	ErrInvalidAddress = errors.New("ErrInvalidAddress")
	ErrFeeBpsTooHigh  = errors.New("ErrFeeBpsTooHigh")

	// state conflict
	ErrPhaseConflict      = errors.New("ErrPhaseConflict")
	ErrGameTerminal       = errors.New("ErrGameTerminal")
	ErrAlreadyCommitted   = errors.New("ErrAlreadyCommitted")
	ErrAlreadyRevealed    = errors.New("ErrAlreadyRevealed")
	ErrAlreadyAdvanced    = errors.New("ErrAlreadyAdvanced")
	ErrNotReadyForResolve = errors.New("ErrNotReadyForResolve")
	ErrDeadlineNotPassed  = errors.New("ErrDeadlineNotPassed")
	ErrGameNotFound       = errors.New("ErrGameNotFound")

	// transient infrastructure
	ErrTimeout     = errors.New("ErrTimeout")
	ErrIsClosed    = errors.New("ErrIsClosed")
	ErrRateLimited = errors.New("ErrRateLimited")
	ErrConnLost    = errors.New("ErrConnLost")
	ErrRetryBudget = errors.New("ErrRetryBudget")

	// integrity
	ErrEncode          = errors.New("ErrEncode")
	ErrDecode          = errors.New("ErrDecode")
	ErrCorruptGame     = errors.New("ErrCorruptGame")
	ErrPayoutImbalance = errors.New("ErrPayoutImbalance")
	ErrOutcomeMismatch = errors.New("ErrOutcomeMismatch")
	ErrEscrowReleased  = errors.New("ErrEscrowReleased")
	ErrNoBalance       = errors.New("ErrNoBalance")
	ErrFrozen          = errors.New("ErrFrozen")
)

var validationErrs = []error{
	ErrInvalidParam, ErrAmount, ErrBetTooLow, ErrBetTooHigh, ErrBetMismatch,
	ErrWeakSecret, ErrInvalidCommit, ErrCommitMismatch, ErrNotAPlayer,
	ErrSelfPlay, ErrInvalidAddress, ErrFeeBpsTooHigh, ErrNoBalance,
}

var conflictErrs = []error{
	ErrPhaseConflict, ErrGameTerminal, ErrAlreadyCommitted, ErrAlreadyRevealed,
	ErrAlreadyAdvanced, ErrNotReadyForResolve, ErrDeadlineNotPassed, ErrGameNotFound,
}

var transientErrs = []error{
	ErrTimeout, ErrIsClosed, ErrRateLimited, ErrConnLost, ErrRetryBudget,
}

var integrityErrs = []error{
	ErrEncode, ErrDecode, ErrCorruptGame, ErrPayoutImbalance,
	ErrOutcomeMismatch, ErrEscrowReleased, ErrFrozen,
}

func matchAny(err error, set []error) bool {
	for _, e := range set {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// IsValidation 参数校验类错误，调用方修正输入，不重试
func IsValidation(err error) bool { return matchAny(err, validationErrs) }

// IsStateConflict 状态冲突类错误，调用方重新读取权威状态再决策
func IsStateConflict(err error) bool { return matchAny(err, conflictErrs) }

// IsTransient 瞬时基础设施错误，可以有限退避重试
func IsTransient(err error) bool { return matchAny(err, transientErrs) }

// IsIntegrity 完整性错误，致命，禁止静默修补
func IsIntegrity(err error) bool { return matchAny(err, integrityErrs) }
