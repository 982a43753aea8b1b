package service

import (
	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/entity"
)

// Transition 状态机唯一的决策入口：当前状态+动作+角色 → 下一状态。
// 纯函数，不碰存储。写入侧必须配合条件更新（WHERE id=? AND status=?）
// 才能保证并发下至多一次生效。
func Transition(current, action, role string) (string, error) {
	switch action {
	case entity.ActionSubmit:
		// draft提交进入评审；revision_requested重新提交后显式回到pending
		if current == entity.StatusDraft || current == entity.StatusRevisionRequested {
			return entity.StatusPending, nil
		}
		return "", &ConflictError{
			CurrentStatus: current,
			Msg:           "proposal can only be submitted from draft or revision_requested",
		}

	case entity.ActionApprove, entity.ActionDeny, entity.ActionRevisionRequested:
		if !entity.IsReviewerRole(role) {
			return "", &AuthorizationError{Role: role, Action: action}
		}
		if current != entity.StatusPending {
			// 已决的提案不能再评审，不会被悄悄接受
			return "", &ConflictError{
				CurrentStatus: current,
				Msg:           "proposal is not pending review",
			}
		}
		switch action {
		case entity.ActionApprove:
			return entity.StatusApproved, nil
		case entity.ActionDeny:
			return entity.StatusDenied, nil
		default:
			return entity.StatusRevisionRequested, nil
		}

	default:
		return "", &ValidationError{Msg: "unknown action: " + action}
	}
}
