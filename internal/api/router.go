// Package api assembles the gin engine: middleware chain and /api/v1 routes.
package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/vidtube/docs"
	"github.com/d60-Lab/vidtube/internal/api/handler"
	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/internal/auth"
)

// Options 路由装配参数
type Options struct {
	Mode        string
	ServiceName string
	Tracing     bool
	Swagger     bool
	MaxUploadMB int64
	// MediaPath/MediaRoot 本地对象存储的静态目录，为空时不挂载
	MediaPath string
	MediaRoot string
	Limiter   *middleware.RateLimiter
}

// NewRouter 创建 gin 引擎并注册全部路由
func NewRouter(h *handler.Handler, tokens *auth.TokenCodec, opts Options) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	r := gin.New()
	if opts.MaxUploadMB > 0 {
		r.MaxMultipartMemory = opts.MaxUploadMB << 20
	}

	r.Use(middleware.Recovery(), middleware.Sentry(), middleware.RequestID())
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.AccessLog(), gzip.Gzip(gzip.DefaultCompression))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Handler())
	}

	r.GET("/healthz", h.Healthz)
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.MediaPath != "" && opts.MediaRoot != "" {
		r.Static(opts.MediaPath, opts.MediaRoot)
	}

	authed := middleware.Auth(tokens)
	optional := middleware.OptionalAuth(tokens)
	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/refresh-token", h.RefreshToken)
		users.GET("/c/:username", optional, h.ChannelProfile)

		users.POST("/logout", authed, h.Logout)
		users.POST("/change-password", authed, h.ChangePassword)
		users.GET("/current-user", authed, h.CurrentUser)
		users.PATCH("/update-account", authed, h.UpdateAccount)
		users.PATCH("/avatar", authed, h.UpdateAvatar)
		users.PATCH("/cover-image", authed, h.UpdateCoverImage)
		users.GET("/history", authed, h.WatchHistory)
		users.POST("/send-otp", authed, h.SendOTP)
		users.POST("/verify-otp", authed, h.VerifyOTP)
	}

	videos := v1.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.POST("", authed, h.PublishVideo)
		videos.GET("/:videoId", optional, h.GetVideo)
		videos.PATCH("/:videoId", authed, h.UpdateVideo)
		videos.DELETE("/:videoId", authed, h.DeleteVideo)
		videos.PATCH("/toggle/publish/:videoId", authed, h.TogglePublish)
	}

	comments := v1.Group("/comments")
	{
		comments.GET("/:videoId", h.ListComments)
		comments.POST("/:videoId", authed, h.AddComment)
		comments.PATCH("/c/:commentId", authed, h.UpdateComment)
		comments.DELETE("/c/:commentId", authed, h.DeleteComment)
	}

	tweets := v1.Group("/tweets")
	{
		tweets.POST("", authed, h.CreateTweet)
		tweets.GET("/user/:userId", h.ListUserTweets)
		tweets.PATCH("/:tweetId", authed, h.UpdateTweet)
		tweets.DELETE("/:tweetId", authed, h.DeleteTweet)
	}

	likes := v1.Group("/likes", authed)
	{
		likes.POST("/toggle/v/:videoId", h.ToggleVideoLike)
		likes.POST("/toggle/c/:commentId", h.ToggleCommentLike)
		likes.POST("/toggle/t/:tweetId", h.ToggleTweetLike)
		likes.GET("/videos", h.LikedVideos)
	}

	subs := v1.Group("/subscriptions")
	{
		subs.POST("/c/:channelId", authed, h.ToggleSubscription)
		subs.GET("/c/:channelId", h.ChannelSubscribers)
		subs.GET("/u/:subscriberId", h.SubscribedChannels)
	}

	playlists := v1.Group("/playlist")
	{
		playlists.POST("", authed, h.CreatePlaylist)
		playlists.GET("/user/:userId", optional, h.ListUserPlaylists)
		playlists.GET("/:playlistId", optional, h.GetPlaylist)
		playlists.PATCH("/:playlistId", authed, h.UpdatePlaylist)
		playlists.DELETE("/:playlistId", authed, h.DeletePlaylist)
		playlists.PATCH("/add/:videoId/:playlistId", authed, h.AddVideoToPlaylist)
		playlists.PATCH("/remove/:videoId/:playlistId", authed, h.RemoveVideoFromPlaylist)
		playlists.PATCH("/toggle/:playlistId", authed, h.TogglePlaylistVisibility)
		playlists.POST("/save/:playlistId", authed, h.SavePlaylist)
		playlists.DELETE("/save/:playlistId", authed, h.UnsavePlaylist)
	}

	dashboard := v1.Group("/dashboard", authed)
	{
		dashboard.GET("/stats", h.ChannelStats)
		dashboard.GET("/videos", h.ChannelVideos)
	}

	return r
}
