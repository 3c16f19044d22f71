package service

import "github.com/d60-Lab/vidtube/pkg/apperror"

// Owned 拥有 owner 的资源（视频、评论、动态、播放列表）
type Owned interface {
	OwnerOf() string
}

// canMutate 只有所有者可以修改资源
func canMutate(actorID string, r Owned) bool {
	return actorID != "" && r.OwnerOf() == actorID
}

// requireOwner 非所有者返回 Forbidden
func requireOwner(actorID string, r Owned, action string) error {
	if !canMutate(actorID, r) {
		return apperror.Forbidden("you are not allowed to %s", action)
	}
	return nil
}
