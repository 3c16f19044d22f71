package service

import (
	"strings"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

// videoSortColumns 允许排序的字段（对外名 -> 列名）
var videoSortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"duration":  "duration",
	"title":     "title",
}

// VideoFilter 视频列表过滤条件
type VideoFilter struct {
	OwnerID  string `form:"userId"`
	Query    string `form:"query"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
}

// publishedVideosSpec 已发布视频，标题模糊匹配，可按频道过滤
func publishedVideosSpec(f VideoFilter) (query.Spec, error) {
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	col, ok := videoSortColumns[sortBy]
	if !ok {
		return query.Spec{}, apperror.Validation("unsupported sortBy %q", f.SortBy)
	}
	var desc bool
	switch strings.ToLower(f.SortType) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return query.Spec{}, apperror.Validation("sortType must be asc or desc")
	}

	spec := query.New("videos").Where(query.Eq("is_published", true))
	if f.OwnerID != "" {
		spec = spec.Where(query.Eq("owner_id", f.OwnerID))
	}
	return spec.
		Where(query.Contains("title", f.Query)).
		With(query.OwnerJoin()).
		OrderBy(col, desc).
		OrderBy("id", false), nil
}

// channelVideosSpec 频道全部视频（含未发布），仅供所有者的 dashboard
func channelVideosSpec(ownerID string) query.Spec {
	return query.New("videos").
		Where(query.Eq("owner_id", ownerID)).
		OrderBy("created_at", true)
}

// playlistVideosSpec 播放列表条目按 position 排序；已删除的视频由 inner join 过滤掉
func playlistVideosSpec(playlistID string, publishedOnly, newestFirst bool) query.Spec {
	spec := query.New("videos").
		JoinInner("JOIN playlist_videos ON playlist_videos.video_id = videos.id AND playlist_videos.playlist_id = ?", playlistID)
	if publishedOnly {
		spec = spec.Where(query.Eq("is_published", true))
	}
	return spec.
		With(query.OwnerJoin()).
		OrderBy("playlist_videos.position", newestFirst)
}

// likedVideosSpec 用户点赞过的视频，最近点赞在前
func likedVideosSpec(actorID string) query.Spec {
	return query.New("videos").
		JoinInner("JOIN likes ON likes.target_id = videos.id AND likes.target_type = ? AND likes.liked_by = ?",
			model.LikeTargetVideo, actorID).
		Where(query.Eq("is_published", true)).
		With(query.OwnerJoin()).
		OrderBy("likes.created_at", true)
}

func videoCommentsSpec(videoID string) query.Spec {
	return query.New("comments").
		Where(query.Eq("video_id", videoID)).
		With(query.OwnerJoin()).
		OrderBy("created_at", true)
}

func userTweetsSpec(ownerID string) query.Spec {
	return query.New("tweets").
		Where(query.Eq("owner_id", ownerID)).
		With(query.OwnerJoin()).
		OrderBy("created_at", true)
}

// userPlaylistsSpec 非所有者只能看到公开列表
func userPlaylistsSpec(ownerID string, includePrivate bool) query.Spec {
	spec := query.New("playlists").Where(query.Eq("owner_id", ownerID))
	if !includePrivate {
		spec = spec.Where(query.Eq("is_public", true))
	}
	return spec.
		With(query.OwnerJoin()).
		OrderBy("created_at", true)
}

// channelSubscribersSpec 订阅某频道的用户，最近订阅在前；已删除的用户自然不出现
func channelSubscribersSpec(channelID string) query.Spec {
	return query.New("users").
		JoinInner("JOIN subscriptions ON subscriptions.subscriber_id = users.id AND subscriptions.channel_id = ?", channelID).
		OrderBy("subscriptions.created_at", true)
}

// subscribedChannelsSpec 某用户订阅的频道
func subscribedChannelsSpec(subscriberID string) query.Spec {
	return query.New("users").
		JoinInner("JOIN subscriptions ON subscriptions.channel_id = users.id AND subscriptions.subscriber_id = ?", subscriberID).
		OrderBy("subscriptions.created_at", true)
}
